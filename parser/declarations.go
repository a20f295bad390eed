package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pontaoski/kestrel/ast"
	"github.com/pontaoski/kestrel/errors"
	"github.com/pontaoski/kestrel/scope"
	"github.com/pontaoski/kestrel/types"
)

type collector struct {
	prog *Program
	s    stream
}

// Declare collects the skeleton of one file: namespaces, structs, enums,
// imports, functions and globals. Types are kept as names until Resolve,
// function bodies are captured as token slices until ParseBodies.
func (prog *Program) Declare(filename string, src TokenSource) {
	c := &collector{prog: prog, s: stream{src}}
	file := prog.Table.NewFile(filename)
	c.declarations(file, "", false)
}

func (c *collector) report(err error) {
	c.prog.Diagnostics.Report(err)
}

func (c *collector) declarations(id ast.ScopeID, prefix string, closing bool) {
	for {
		tok := c.s.Peek()
		switch {
		case tok.Kind == types.EOF:
			if closing {
				c.report(errors.UnexpectedEOF{Expected: "'}'", Location: tok.Location})
			}
			return
		case tok.Is("}"):
			if closing {
				return
			}
			c.s.Lex()
			c.report(errors.UnmatchedBracket{Bracket: "}", Location: tok.Location})
			continue
		}

		c.guarded(func() { c.declaration(id, prefix) })
	}
}

// guarded runs one declaration, turning syntax panics into diagnostics.
func (c *collector) guarded(f func()) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(errors.Located)
			if !ok {
				panic(r)
			}
			c.report(err)
			c.s.Synchronize()
		}
	}()
	f()
}

func (c *collector) modifiers() (mods ast.Modifier, loc types.Span) {
	for c.s.PeekIs("external", "export") {
		tok := c.s.Lex()
		m := ast.External
		if tok.Value == "export" {
			m = ast.Export
		}
		if mods.Has(m) {
			c.report(errors.DuplicateModifier{Modifier: tok.Value, Location: tok.Location})
		}
		mods |= m
		loc = tok.Location
	}
	return
}

func (c *collector) disallow(mods ast.Modifier, loc types.Span, construct string) {
	if mods.Has(ast.External) {
		c.report(errors.ModifierNotAllowed{Modifier: "external", Construct: construct, Location: loc})
	}
	if mods.Has(ast.Export) {
		c.report(errors.ModifierNotAllowed{Modifier: "export", Construct: construct, Location: loc})
	}
}

// typeName reads Name(.Name)* followed by any number of '*'.
func (c *collector) typeName() (string, types.Span) {
	first := c.s.ExpectKind(types.IDENT)
	name := first.Value
	loc := first.Location
	for c.s.PeekIs(".") {
		c.s.Lex()
		next := c.s.ExpectKind(types.IDENT)
		name += "." + next.Value
		loc = types.Combine(loc, next.Location)
	}
	for c.s.PeekIs("*") {
		star := c.s.Lex()
		name += "*"
		loc = types.Combine(loc, star.Location)
	}
	return name, loc
}

func (c *collector) declaration(id ast.ScopeID, prefix string) {
	mods, modLoc := c.modifiers()
	tok := c.s.Peek()

	switch {
	case tok.Is("namespace"):
		c.disallow(mods, modLoc, "a namespace")
		c.namespace(id, prefix)
	case tok.Is("struct"):
		c.disallow(mods, modLoc, "a struct")
		c.structure(id, prefix)
	case tok.Is("enum"):
		c.disallow(mods, modLoc, "an enum")
		c.enum(id)
	case tok.Is("import"):
		c.disallow(mods, modLoc, "an import")
		c.importAlias(id)
	case tok.Is(";") && mods == 0:
		c.s.Lex()
	case tok.Kind == types.IDENT:
		typeName, _ := c.typeName()
		name := c.s.ExpectKind(types.IDENT)
		if c.s.PeekIs("(") {
			c.function(id, prefix, mods, typeName, name)
			return
		}
		c.global(id, mods, typeName, name)
	default:
		c.s.Lex()
		panic(errors.UnexpectedToken{Expected: []string{"declaration"}, Got: tok})
	}
}

func (c *collector) namespace(id ast.ScopeID, prefix string) {
	c.s.Expect("namespace")
	name := c.s.ExpectKind(types.IDENT)

	ns := &ast.Namespace{DefBase: ast.DefBase{Name: name.Value, Location: name.Location}}
	switch existing := c.prog.Table.Find(id, name.Value).(type) {
	case nil:
		c.prog.Table.Append(id, ns)
		ns.Scope = c.prog.Table.New(scope.Namespace, id, ns)
	case *ast.Namespace:
		// namespaces may be reopened
		ns = existing
	default:
		c.report(errors.DuplicateName{Name: name.Value, Location: name.Location})
		ns.Parent = id
		ns.Scope = c.prog.Table.New(scope.Namespace, id, ns)
	}

	c.s.Expect("{")
	c.declarations(ns.Scope, prefix+name.Value+".", true)
	c.s.Expect("}")
}

func (c *collector) structure(id ast.ScopeID, prefix string) {
	c.s.Expect("struct")
	name := c.s.ExpectKind(types.IDENT)

	st := &ast.StructType{Name: prefix + name.Value}
	def := &ast.Struct{
		DefBase: ast.DefBase{Name: name.Value, Location: name.Location},
		Type:    st,
	}
	if !c.prog.Table.Append(id, def) {
		c.report(errors.DuplicateName{Name: name.Value, Location: name.Location})
		def.Parent = id
	}
	def.Scope = c.prog.Table.New(scope.Struct, id, def)
	c.prog.Structs = append(c.prog.Structs, def)

	c.s.Expect("{")
	seen := map[string]bool{}
	for !c.s.PeekIs("}") {
		if c.s.AtEOF() {
			c.s.Expect("}")
		}
		c.guarded(func() {
			mods, modLoc := c.modifiers()
			typeName, _ := c.typeName()
			member := c.s.ExpectKind(types.IDENT)
			if seen[member.Value] {
				c.report(errors.DuplicateName{Name: member.Value, Location: member.Location})
			}
			seen[member.Value] = true

			if c.s.PeekIs("(") {
				c.function(def.Scope, prefix+name.Value+".", mods, typeName, member)
				st.Methods = append(st.Methods, member.Value)
				return
			}

			c.disallow(mods, modLoc, "a struct field")
			field := ast.FieldDecl{Name: member.Value, TypeName: typeName, Location: member.Location}
			field.Count = c.arraySuffix()
			c.s.Expect(";")
			def.Fields = append(def.Fields, field)
		})
	}
	c.s.Expect("}")
}

// arraySuffix reads an optional [N] and returns N, or 0.
func (c *collector) arraySuffix() int {
	if !c.s.PeekIs("[") {
		return 0
	}
	c.s.Lex()
	tok := c.s.ExpectKind(types.INT)
	c.s.Expect("]")
	n, err := strconv.ParseInt(tok.Value, 0, 32)
	if err != nil || n <= 0 {
		c.report(errors.Unsupported{What: fmt.Sprintf("invalid array length %s", tok.Value), Location: tok.Location})
		return 1
	}
	return int(n)
}

func (c *collector) enum(id ast.ScopeID) {
	c.s.Expect("enum")
	name := c.s.ExpectKind(types.IDENT)

	def := &ast.Enum{
		DefBase:        ast.DefBase{Name: name.Value, Location: name.Location},
		Type:           &ast.EnumType{Name: name.Value},
		UnderlyingName: "int32",
	}
	if !c.prog.Table.Append(id, def) {
		c.report(errors.DuplicateName{Name: name.Value, Location: name.Location})
		def.Parent = id
	}
	c.prog.Enums = append(c.prog.Enums, def)

	if c.s.PeekIs(":") {
		c.s.Lex()
		def.UnderlyingName, _ = c.typeName()
	}

	c.s.Expect("{")
	next := int64(0)
	for !c.s.PeekIs("}") {
		member := c.s.ExpectKind(types.IDENT)
		if _, dup := def.Type.Member(member.Value); dup {
			c.report(errors.DuplicateName{Name: member.Value, Location: member.Location})
		}
		if c.s.PeekIs("=") {
			c.s.Lex()
			negative := false
			if c.s.PeekIs("-") {
				c.s.Lex()
				negative = true
			}
			tok := c.s.ExpectKind(types.INT)
			v, err := strconv.ParseInt(tok.Value, 0, 64)
			if err != nil {
				c.report(errors.Unsupported{What: "enum value out of range", Location: tok.Location})
			}
			if negative {
				v = -v
			}
			next = v
		}
		def.Type.Members = append(def.Type.Members, ast.EnumMember{Name: member.Value, Value: next})
		next++

		if !c.s.PeekIs("}") {
			c.s.Expect(",")
		}
	}
	c.s.Expect("}")
}

func (c *collector) importAlias(id ast.ScopeID) {
	c.s.Expect("import")
	name := c.s.ExpectKind(types.IDENT)
	c.s.Expect("=")
	target, loc := c.typeName()
	c.s.Expect(";")

	if strings.HasSuffix(target, "*") {
		c.report(errors.UnexpectedToken{Expected: []string{"name"}, Got: types.Token{Kind: types.SYMBOL, Value: "*", Location: loc}})
		target = strings.TrimRight(target, "*")
	}

	alias := &ast.ImportAlias{
		DefBase: ast.DefBase{Name: name.Value, Location: name.Location},
		Target:  strings.Split(target, "."),
	}
	if !c.prog.Table.Append(id, alias) {
		c.report(errors.DuplicateName{Name: name.Value, Location: name.Location})
		return
	}
	c.prog.Aliases = append(c.prog.Aliases, alias)
}

func (c *collector) function(id ast.ScopeID, prefix string, mods ast.Modifier, returns string, name types.Token) {
	fn := &ast.Function{
		DefBase: ast.DefBase{
			Name:      name.Value,
			Modifiers: mods,
			Location:  name.Location,
		},
		FullName:       prefix + name.Value,
		ReturnTypeName: returns,
	}
	if !c.prog.Table.Append(id, fn) {
		c.report(errors.DuplicateName{Name: name.Value, Location: name.Location})
		fn.Parent = id
	}
	fn.Scope = c.prog.Table.New(scope.Arguments, id, fn)

	c.s.Expect("(")
	for !c.s.PeekIs(")") {
		typeName, _ := c.typeName()
		argName := c.s.ExpectKind(types.IDENT)
		arg := &ast.Variable{
			DefBase:  ast.DefBase{Name: argName.Value, Location: argName.Location},
			TypeName: typeName,
		}
		if c.prog.Table.Append(fn.Scope, arg) {
			fn.Arguments = append(fn.Arguments, arg)
		} else {
			c.report(errors.DuplicateName{Name: argName.Value, Location: argName.Location})
		}

		if !c.s.PeekIs(")") {
			c.s.Expect(",")
		}
	}
	c.s.Expect(")")

	if c.s.PeekIs(";") {
		c.s.Lex()
	} else {
		fn.BodyTokens = c.s.Capture()
		if mods.Has(ast.External) {
			c.prog.Diagnostics.Errorf(name.Location, "external function %s cannot have a body", name.Value)
		}
	}

	c.prog.Functions = append(c.prog.Functions, fn)
}

func (c *collector) global(id ast.ScopeID, mods ast.Modifier, typeName string, name types.Token) {
	v := &ast.Variable{
		DefBase: ast.DefBase{
			Name:      name.Value,
			Modifiers: mods,
			Location:  name.Location,
		},
		TypeName: typeName,
	}
	v.Count = c.arraySuffix()
	c.s.Expect(";")

	if !c.prog.Table.Append(id, v) {
		c.report(errors.DuplicateName{Name: name.Value, Location: name.Location})
		return
	}
	c.prog.Globals = append(c.prog.Globals, v)
}
