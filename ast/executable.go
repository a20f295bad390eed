package ast

import "github.com/pontaoski/kestrel/types"

type Executable interface {
	isExecutable()
	Type() Typ
	Span() types.Span
}

type Node struct {
	Typ      Typ
	Location types.Span
}

func (n Node) Type() Typ        { return n.Typ }
func (n Node) Span() types.Span { return n.Location }

type UnaryOp int

const (
	Negate UnaryOp = iota
	Not
	Dereference
	AddressOf
	Cast
)

type BinaryOp int

const (
	Assign BinaryOp = iota
	LogicalOr
	LogicalAnd
	BitOr
	BitXor
	BitAnd
	Equals
	NotEquals
	Less
	LessEqual
	Greater
	GreaterEqual
	ShiftLeft
	ShiftRight
	Add
	Subtract
	Multiply
	Divide
	Remainder
)

func (op BinaryOp) IsComparison() bool {
	return op >= Equals && op <= GreaterEqual
}

func (op BinaryOp) IsArithmetic() bool {
	return op >= Add && op <= Remainder
}

func (op BinaryOp) IsBitwise() bool {
	return op == BitOr || op == BitXor || op == BitAnd
}

type UnaryOperation struct {
	Node
	Op      UnaryOp
	Operand Executable
}

type BinaryOperation struct {
	Node
	Op    BinaryOp
	Left  Executable
	Right Executable
}

type FunctionCall struct {
	Node
	Callee    Executable
	Arguments []Executable
}

type CodeBlock struct {
	Node
	Scope      ScopeID
	Statements []Executable
	Returns    Typ
}

type GetMember struct {
	Node
	Of     Executable
	Member string
	Offset int
}

type GetElement struct {
	Node
	Of    Executable
	Index Executable
}

// Identifier refers to a Variable or a Function. Declaration is set when the
// identifier introduced the variable.
type Identifier struct {
	Node
	Definition  Definition
	Declaration bool
}

type PostIncrement struct {
	Node
	Target *Identifier
}

type LiteralValue interface {
	int64 | bool | rune | string
}

// Literal is not listed in sum.adt, the generator does not handle type
// parameters.
type Literal[T LiteralValue] struct {
	Node
	Value T
}

func (*Literal[T]) isExecutable() {}

type ControlFlow struct {
	Node
	Condition Executable
	Then      Executable
	Else      Executable
	Returns   Typ
}

type WhileLoop struct {
	Node
	Condition Executable
	Body      Executable
}

type Return struct {
	Node
	Value   Executable
	Returns Typ
}

type Nop struct {
	Node
}

type NamespaceValue struct {
	Node
	Namespace *Namespace
}

// TypeValue is a type name used where a value is expected, e.g. the left
// side of Color.Red.
type TypeValue struct {
	Node
	Definition Definition
}

func NewNop(loc types.Span) *Nop {
	return &Nop{Node{Typ: Void{}, Location: loc}}
}

// ReturnTypeOf is the type a statement is known to return on every path, or
// nil when it may fall through.
func ReturnTypeOf(e Executable) Typ {
	switch v := e.(type) {
	case *CodeBlock:
		return v.Returns
	case *ControlFlow:
		return v.Returns
	case *Return:
		return v.Returns
	}
	return nil
}
