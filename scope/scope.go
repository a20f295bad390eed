package scope

import (
	"strings"

	"github.com/pontaoski/kestrel/ast"
	"github.com/pontaoski/kestrel/errors"
)

type Kind int

const (
	Root Kind = iota
	File
	Namespace
	Struct
	Arguments
	Block
)

type Scope struct {
	Kind     Kind
	Parent   ast.ScopeID
	Owner    ast.Definition
	File     string
	Children []ast.Definition

	names map[string]int
	// bytes contributed by this scope alone, see Size
	size int
}

// Table is an arena of scopes addressed by ast.ScopeID. Scopes never move and
// are never removed, so ids stay valid for the life of the table.
type Table struct {
	scopes    []Scope
	files     []ast.ScopeID
	resolving map[*ast.ImportAlias]bool
}

func NewTable() *Table {
	t := &Table{resolving: map[*ast.ImportAlias]bool{}}
	root := t.New(Root, ast.NoScope, nil)
	for _, b := range builtins {
		t.Append(root, &ast.Struct{
			DefBase: ast.DefBase{Name: b.name, Parent: root},
			Type:    b.typ,
			Scope:   ast.NoScope,
			Builtin: true,
		})
	}
	return t
}

func (t *Table) Root() ast.ScopeID {
	return 0
}

func (t *Table) New(kind Kind, parent ast.ScopeID, owner ast.Definition) ast.ScopeID {
	file := ""
	if parent != ast.NoScope {
		file = t.scopes[parent].File
	}
	t.scopes = append(t.scopes, Scope{
		Kind:   kind,
		Parent: parent,
		Owner:  owner,
		File:   file,
		names:  map[string]int{},
	})
	return ast.ScopeID(len(t.scopes) - 1)
}

// NewFile creates the top level scope of a source file.
func (t *Table) NewFile(name string) ast.ScopeID {
	id := t.New(File, t.Root(), nil)
	t.scopes[id].File = name
	t.files = append(t.files, id)
	return id
}

func (t *Table) Files() []ast.ScopeID {
	return t.files
}

func (t *Table) Get(id ast.ScopeID) *Scope {
	return &t.scopes[id]
}

// Append adds def to the scope. It fails if the name is already taken in
// that scope; enclosing scopes are not consulted.
func (t *Table) Append(id ast.ScopeID, def ast.Definition) bool {
	s := &t.scopes[id]
	name := def.Base().Name
	if _, ok := s.names[name]; ok {
		return false
	}

	def.Base().Parent = id
	s.names[name] = len(s.Children)
	s.Children = append(s.Children, def)

	if v, ok := def.(*ast.Variable); ok {
		switch s.Kind {
		case Block:
			s.size += AlignTo(v.Type.Size(), 8)
			v.Storage = ast.Storage{Kind: ast.Local, Offset: -(t.Size(s.Parent) + s.size)}
		case File, Namespace, Root:
			v.Storage = ast.Storage{Kind: ast.Global}
		}
	}
	return true
}

// Find looks a name up in one scope only.
func (t *Table) Find(id ast.ScopeID, name string) ast.Definition {
	s := &t.scopes[id]
	if idx, ok := s.names[name]; ok {
		return s.Children[idx]
	}
	return nil
}

// Lookup walks the parent chain. A file scope that misses also searches the
// top level of every other file, but never their nested scopes. A name found
// in more than one other file is an AmbiguousName error.
func (t *Table) Lookup(id ast.ScopeID, name string) (ast.Definition, error) {
	for cur := id; cur != ast.NoScope; cur = t.scopes[cur].Parent {
		if def := t.Find(cur, name); def != nil {
			return t.resolve(def)
		}

		if t.scopes[cur].Kind != File {
			continue
		}

		var found ast.Definition
		var files []string
		for _, sibling := range t.files {
			if sibling == cur {
				continue
			}
			if def := t.Find(sibling, name); def != nil {
				found = def
				files = append(files, t.scopes[sibling].File)
			}
		}
		if len(files) > 1 {
			return nil, errors.AmbiguousName{Name: name, Files: files}
		}
		if found != nil {
			return t.resolve(found)
		}
	}

	return nil, nil
}

// Member looks a name up in one scope only, following import aliases.
func (t *Table) Member(id ast.ScopeID, name string) (ast.Definition, error) {
	def := t.Find(id, name)
	if def == nil {
		return nil, nil
	}
	return t.resolve(def)
}

// LookupPath resolves a dotted name such as math.vec.add.
func (t *Table) LookupPath(id ast.ScopeID, path []string) (ast.Definition, error) {
	def, err := t.Lookup(id, path[0])
	if err != nil || def == nil {
		return nil, err
	}

	for _, name := range path[1:] {
		inner := ScopeOf(def)
		if inner == ast.NoScope {
			return nil, nil
		}
		if def, err = t.Member(inner, name); err != nil || def == nil {
			return nil, err
		}
	}
	return def, nil
}

// ScopeOf returns the scope a definition owns for its members.
func ScopeOf(def ast.Definition) ast.ScopeID {
	switch d := def.(type) {
	case *ast.Namespace:
		return d.Scope
	case *ast.Struct:
		return d.Scope
	}
	return ast.NoScope
}

func (t *Table) resolve(def ast.Definition) (ast.Definition, error) {
	alias, ok := def.(*ast.ImportAlias)
	if !ok {
		return def, nil
	}
	if alias.Resolved != nil {
		return alias.Resolved, nil
	}
	if t.resolving[alias] {
		return nil, nil
	}

	t.resolving[alias] = true
	defer delete(t.resolving, alias)

	target, err := t.LookupPath(alias.Parent, alias.Target)
	if err != nil || target == nil {
		return nil, err
	}
	alias.Resolved = target
	return target, nil
}

// LookupType resolves a type name. Every trailing '*' wraps the result in a
// Pointer.
func (t *Table) LookupType(id ast.ScopeID, name string) (ast.Typ, error) {
	base := strings.TrimRight(name, "*")
	stars := len(name) - len(base)

	def, err := t.LookupPath(id, strings.Split(base, "."))
	if err != nil {
		return nil, err
	}

	var typ ast.Typ
	switch d := def.(type) {
	case *ast.Struct:
		typ = d.Type
	case *ast.Enum:
		typ = d.Type
	default:
		return nil, errors.UnresolvedName{Name: base, What: "type"}
	}

	for i := 0; i < stars; i++ {
		typ = ast.Pointer{To: typ}
	}
	return typ, nil
}

// Size is the number of frame bytes a scope needs. Block scopes include
// their parents, so it grows with nesting depth.
func (t *Table) Size(id ast.ScopeID) int {
	if id == ast.NoScope {
		return 0
	}
	s := &t.scopes[id]
	switch s.Kind {
	case Arguments:
		return s.size
	case Block:
		return s.size + t.Size(s.Parent)
	}
	return 0
}

// Shadows reports whether name is already bound by an enclosing block or
// argument scope.
func (t *Table) Shadows(id ast.ScopeID, name string) bool {
	for cur := t.scopes[id].Parent; cur != ast.NoScope; cur = t.scopes[cur].Parent {
		k := t.scopes[cur].Kind
		if k != Block && k != Arguments {
			return false
		}
		if t.Find(cur, name) != nil {
			return true
		}
	}
	return false
}

// Function returns the function whose body contains id, if any.
func (t *Table) Function(id ast.ScopeID) *ast.Function {
	for cur := id; cur != ast.NoScope; cur = t.scopes[cur].Parent {
		if fn, ok := t.scopes[cur].Owner.(*ast.Function); ok {
			return fn
		}
	}
	return nil
}

func AlignTo(n, align int) int {
	return (n + align - 1) / align * align
}

// Qualify prefixes name with the namespaces enclosing scope id, joined by
// dots.
func (t *Table) Qualify(id ast.ScopeID, name string) string {
	parts := []string{name}
	for cur := id; cur != ast.NoScope; cur = t.scopes[cur].Parent {
		if ns, ok := t.scopes[cur].Owner.(*ast.Namespace); ok {
			parts = append([]string{ns.Name}, parts...)
		}
	}
	return strings.Join(parts, ".")
}
