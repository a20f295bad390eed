package ast

import "github.com/pontaoski/kestrel/types"

// ScopeID addresses a scope in a scope.Table.
type ScopeID int

const NoScope ScopeID = -1

type Modifier int

const (
	External Modifier = 1 << iota
	Export
)

func (m Modifier) Has(o Modifier) bool {
	return m&o != 0
}

type Definition interface {
	isDefinition()
	Base() *DefBase
}

type DefBase struct {
	Name      string
	Parent    ScopeID
	Modifiers Modifier
	Location  types.Span
}

func (d *DefBase) Base() *DefBase {
	return d
}

type Namespace struct {
	DefBase
	Scope ScopeID
}

// Struct names a type. Builtin primitive types are Structs too, their Type
// is the primitive instead of a *StructType.
type Struct struct {
	DefBase
	Type    Typ
	Scope   ScopeID
	Builtin bool
	Fields  []FieldDecl
}

type FieldDecl struct {
	Name     string
	TypeName string
	Count    int
	Location types.Span
}

type Function struct {
	DefBase
	FullName   string
	Arguments  []*Variable
	Returns    Typ
	Scope      ScopeID
	Body       *CodeBlock
	BodyTokens []types.Token

	ReturnTypeName string
}

// Symbol is the name the function has in the object file.
func (f *Function) Symbol() string {
	if f.Modifiers.Has(External) || f.FullName == "" {
		return f.Name
	}
	return f.FullName
}

func (f *Function) Signature() FunctionPointer {
	sig := FunctionPointer{Returns: f.Returns}
	for _, arg := range f.Arguments {
		sig.Arguments = append(sig.Arguments, arg.Type)
	}
	return sig
}

type Variable struct {
	DefBase
	Type     Typ
	Storage  Storage
	TypeName string
	Count    int
}

type Enum struct {
	DefBase
	Type *EnumType

	UnderlyingName string
}

type ImportAlias struct {
	DefBase
	Target   []string
	Resolved Definition
}

type StorageKind int

const (
	Global StorageKind = iota
	RegisterArgument
	StackArgument
	Local
)

// Storage is where a variable lives at runtime. Offset is relative to rbp,
// globals have offset zero and are addressed by name.
type Storage struct {
	Kind     StorageKind
	Offset   int
	Register string
}
