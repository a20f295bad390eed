package ast

import (
	"fmt"
	"strings"
)

func (Void) String() string           { return "void" }
func (Char) String() string           { return "char" }
func (Bool) String() string           { return "bool" }
func (UntypedInteger) String() string { return "integer literal" }
func (p Pointer) String() string      { return p.To.String() + "*" }
func (s *StructType) String() string  { return s.Name }
func (e *EnumType) String() string    { return e.Name }

func (i Integer) String() string {
	if i.Signed {
		return fmt.Sprintf("int%d", i.Bytes*8)
	}
	return fmt.Sprintf("uint%d", i.Bytes*8)
}

func (f FloatingPoint) String() string {
	return fmt.Sprintf("float%d", f.Bytes*8)
}

func (f FunctionPointer) String() string {
	var args []string
	for _, arg := range f.Arguments {
		args = append(args, arg.String())
	}
	return fmt.Sprintf("%s(%s)", f.Returns, strings.Join(args, ", "))
}

func (a SizedArray) String() string {
	return fmt.Sprintf("%s[%d]", a.Element, a.Count)
}

var binaryOps = map[BinaryOp]string{
	Assign:       "=",
	LogicalOr:    "||",
	LogicalAnd:   "&&",
	BitOr:        "|",
	BitXor:       "^",
	BitAnd:       "&",
	Equals:       "==",
	NotEquals:    "!=",
	Less:         "<",
	LessEqual:    "<=",
	Greater:      ">",
	GreaterEqual: ">=",
	ShiftLeft:    "<<",
	ShiftRight:   ">>",
	Add:          "+",
	Subtract:     "-",
	Multiply:     "*",
	Divide:       "/",
	Remainder:    "%",
}

func (op BinaryOp) String() string {
	return binaryOps[op]
}

func (op UnaryOp) String() string {
	switch op {
	case Negate:
		return "-"
	case Not:
		return "!"
	case Dereference:
		return "*"
	case AddressOf:
		return "&"
	}
	return "cast"
}

// Sexp renders an expression tree compactly, e.g. (+ a (* b c)).
func Sexp(e Executable) string {
	switch v := e.(type) {
	case *BinaryOperation:
		return fmt.Sprintf("(%s %s %s)", v.Op, Sexp(v.Left), Sexp(v.Right))
	case *UnaryOperation:
		if v.Op == Cast {
			return fmt.Sprintf("(%s %s)", v.Typ, Sexp(v.Operand))
		}
		return fmt.Sprintf("(%s %s)", v.Op, Sexp(v.Operand))
	case *Identifier:
		return v.Definition.Base().Name
	case *Literal[int64]:
		if u, ok := v.Typ.(UntypedInteger); ok && u.Unsigned {
			return fmt.Sprint(uint64(v.Value))
		}
		return fmt.Sprint(v.Value)
	case *Literal[bool]:
		return fmt.Sprint(v.Value)
	case *Literal[rune]:
		return fmt.Sprintf("%q", v.Value)
	case *Literal[string]:
		return fmt.Sprintf("%q", v.Value)
	case *FunctionCall:
		parts := []string{Sexp(v.Callee)}
		for _, arg := range v.Arguments {
			parts = append(parts, Sexp(arg))
		}
		return "(call " + strings.Join(parts, " ") + ")"
	case *GetMember:
		return fmt.Sprintf("(. %s %s)", Sexp(v.Of), v.Member)
	case *GetElement:
		return fmt.Sprintf("([] %s %s)", Sexp(v.Of), Sexp(v.Index))
	case *PostIncrement:
		return fmt.Sprintf("(++ %s)", Sexp(v.Target))
	case *NamespaceValue:
		return v.Namespace.Name
	case *TypeValue:
		return v.Definition.Base().Name
	case *Nop:
		return "nop"
	case *CodeBlock:
		parts := []string{"block"}
		for _, s := range v.Statements {
			parts = append(parts, Sexp(s))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case *Return:
		if v.Value == nil {
			return "(return)"
		}
		return "(return " + Sexp(v.Value) + ")"
	case *ControlFlow:
		if v.Else == nil {
			return fmt.Sprintf("(if %s %s)", Sexp(v.Condition), Sexp(v.Then))
		}
		return fmt.Sprintf("(if %s %s %s)", Sexp(v.Condition), Sexp(v.Then), Sexp(v.Else))
	case *WhileLoop:
		return fmt.Sprintf("(while %s %s)", Sexp(v.Condition), Sexp(v.Body))
	}
	panic(fmt.Sprintf("unhandled executable %T", e))
}
