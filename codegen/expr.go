package codegen

import (
	"fmt"

	"github.com/pontaoski/kestrel/ast"
)

func signed(t ast.Typ) bool {
	switch v := t.(type) {
	case ast.Integer:
		return v.Signed
	case *ast.EnumType:
		return v.Underlying.Signed
	case ast.UntypedInteger:
		return true
	}
	return false
}

// scalar reports whether values of t fit in rax.
func scalar(t ast.Typ) bool {
	switch t.(type) {
	case ast.Char, ast.Bool, ast.Integer, ast.UntypedInteger, ast.Pointer, ast.FunctionPointer, *ast.EnumType:
		return true
	}
	return false
}

// normalize extends the low bytes of rax to 64 bits the way values of t
// are kept.
func (g *generator) normalize(t ast.Typ) {
	if !scalar(t) {
		return
	}
	switch t.Size() {
	case 1:
		if signed(t) {
			g.emit("movsx rax, al")
		} else {
			g.emit("movzx eax, al")
		}
	case 2:
		if signed(t) {
			g.emit("movsx rax, ax")
		} else {
			g.emit("movzx eax, ax")
		}
	case 4:
		if signed(t) {
			g.emit("movsxd rax, eax")
		} else {
			g.emit("mov eax, eax")
		}
	}
}

// load replaces the address in rax with the value stored there. Arrays
// stay addresses.
func (g *generator) load(t ast.Typ, e ast.Executable) {
	if _, ok := t.(ast.SizedArray); ok {
		return
	}
	if _, ok := t.(ast.FloatingPoint); ok {
		fatalf(e.Span(), "floating point values are not supported")
	}

	switch t.Size() {
	case 1:
		if signed(t) {
			g.emit("movsx rax, byte [rax]")
		} else {
			g.emit("movzx eax, byte [rax]")
		}
	case 2:
		if signed(t) {
			g.emit("movsx rax, word [rax]")
		} else {
			g.emit("movzx eax, word [rax]")
		}
	case 4:
		if signed(t) {
			g.emit("movsxd rax, dword [rax]")
		} else {
			g.emit("mov eax, dword [rax]")
		}
	case 8:
		g.emit("mov rax, qword [rax]")
	default:
		fatalf(e.Span(), "cannot load a value of type %s (%d bytes)", t, t.Size())
	}
}

// store writes rax to the address in rdi.
func (g *generator) store(t ast.Typ, e ast.Executable) {
	switch t.Size() {
	case 1:
		g.emit("mov byte [rdi], al")
	case 2:
		g.emit("mov word [rdi], ax")
	case 4:
		g.emit("mov dword [rdi], eax")
	case 8:
		g.emit("mov qword [rdi], rax")
	default:
		fatalf(e.Span(), "cannot store a value of type %s (%d bytes)", t, t.Size())
	}
}

// addr computes the address of e into rax.
func (g *generator) addr(e ast.Executable) {
	switch v := e.(type) {
	case *ast.Identifier:
		switch d := v.Definition.(type) {
		case *ast.Variable:
			if d.Storage.Kind == ast.Global {
				g.emit("lea rax, [%s]", g.symbol(d))
				return
			}
			g.emit("lea rax, [rbp%+d]", d.Storage.Offset)
			return
		case *ast.Function:
			g.emit("lea rax, [%s]", d.Symbol())
			return
		}

	case *ast.UnaryOperation:
		if v.Op == ast.Dereference {
			g.expr(v.Operand)
			return
		}

	case *ast.GetMember:
		if ast.IsPointer(v.Of.Type()) {
			g.expr(v.Of)
		} else {
			g.addr(v.Of)
		}
		if v.Offset != 0 {
			g.emit("add rax, %d", v.Offset)
		}
		return

	case *ast.GetElement:
		if _, ok := v.Of.Type().(ast.SizedArray); ok {
			g.addr(v.Of)
		} else {
			g.expr(v.Of)
		}
		g.push()
		g.expr(v.Index)
		if size := v.Type().Size(); size != 1 {
			g.emit("imul rax, rax, %d", size)
		}
		g.pop("rdi")
		g.emit("add rax, rdi")
		return
	}

	fatalf(e.Span(), "expression is not addressable")
}

func (g *generator) expr(e ast.Executable) {
	switch v := e.(type) {
	case *ast.Literal[int64]:
		g.emit("mov rax, %d", v.Value)
	case *ast.Literal[bool]:
		if v.Value {
			g.emit("mov rax, 1")
		} else {
			g.emit("mov rax, 0")
		}
	case *ast.Literal[rune]:
		g.emit("mov rax, %d", int64(v.Value))
	case *ast.Literal[string]:
		g.emit("lea rax, [%s]", Label(g.pool.Add(v.Value)))

	case *ast.Identifier:
		g.addr(v)
		if _, fn := v.Definition.(*ast.Function); !fn {
			g.load(v.Type(), v)
		}

	case *ast.GetMember, *ast.GetElement:
		g.addr(v)
		g.load(v.Type(), v)

	case *ast.UnaryOperation:
		g.unary(v)
	case *ast.BinaryOperation:
		g.binary(v)
	case *ast.FunctionCall:
		g.call(v)

	case *ast.PostIncrement:
		g.addr(v.Target)
		g.emit("mov rdi, rax")
		g.load(v.Type(), v)
		g.push()
		g.emit("add rax, 1")
		g.store(v.Type(), v)
		g.pop("rax")

	case *ast.TypeValue, *ast.NamespaceValue:
		fatalf(e.Span(), "a type or namespace is not a value")
	default:
		fatalf(e.Span(), "cannot generate %T as a value", e)
	}
}

func (g *generator) unary(v *ast.UnaryOperation) {
	switch v.Op {
	case ast.Negate:
		g.expr(v.Operand)
		g.emit("neg rax")
		g.normalize(v.Type())
	case ast.Not:
		g.expr(v.Operand)
		g.emit("xor rax, 1")
	case ast.Dereference:
		g.expr(v.Operand)
		g.load(v.Type(), v)
	case ast.AddressOf:
		g.addr(v.Operand)
	case ast.Cast:
		g.expr(v.Operand)
		g.normalize(v.Type())
	default:
		fatalf(v.Span(), "unknown unary operator")
	}
}

var setcc = map[ast.BinaryOp][2]string{
	// signed, unsigned
	ast.Equals:       {"sete", "sete"},
	ast.NotEquals:    {"setne", "setne"},
	ast.Less:         {"setl", "setb"},
	ast.LessEqual:    {"setle", "setbe"},
	ast.Greater:      {"setg", "seta"},
	ast.GreaterEqual: {"setge", "setae"},
}

func (g *generator) binary(v *ast.BinaryOperation) {
	switch v.Op {
	case ast.Assign:
		g.addr(v.Left)
		g.push()
		g.expr(v.Right)
		g.pop("rdi")
		g.store(v.Left.Type(), v)
		return
	case ast.LogicalAnd, ast.LogicalOr:
		g.logical(v)
		return
	}

	g.expr(v.Right)
	g.push()
	g.expr(v.Left)
	g.pop("rdi")

	operands := v.Left.Type()
	if v.Op.IsComparison() {
		cc := setcc[v.Op][1]
		if signed(operands) {
			cc = setcc[v.Op][0]
		}
		g.emit("cmp rax, rdi")
		g.emit("%s al", cc)
		g.emit("movzx eax, al")
		return
	}

	switch v.Op {
	case ast.Add:
		g.emit("add rax, rdi")
	case ast.Subtract:
		g.emit("sub rax, rdi")
	case ast.Multiply:
		g.emit("imul rax, rdi")
	case ast.Divide, ast.Remainder:
		if signed(operands) {
			g.emit("cqo")
			g.emit("idiv rdi")
		} else {
			g.emit("xor edx, edx")
			g.emit("div rdi")
		}
		if v.Op == ast.Remainder {
			g.emit("mov rax, rdx")
		}
	case ast.BitAnd:
		g.emit("and rax, rdi")
	case ast.BitOr:
		g.emit("or rax, rdi")
	case ast.BitXor:
		g.emit("xor rax, rdi")
	case ast.ShiftLeft, ast.ShiftRight:
		g.emit("mov rcx, rdi")
		switch {
		case v.Op == ast.ShiftLeft:
			g.emit("shl rax, cl")
		case signed(operands):
			g.emit("sar rax, cl")
		default:
			g.emit("shr rax, cl")
		}
	default:
		fatalf(v.Span(), "unknown binary operator %s", v.Op)
	}
	g.normalize(v.Type())
}

// logical evaluates && and || with short circuiting.
func (g *generator) logical(v *ast.BinaryOperation) {
	n := g.count()
	short, shortValue, otherValue := fmt.Sprintf(".Lfalse%d", n), 0, 1
	jump := "je"
	if v.Op == ast.LogicalOr {
		short, shortValue, otherValue = fmt.Sprintf(".Ltrue%d", n), 1, 0
		jump = "jne"
	}

	g.expr(v.Left)
	g.emit("cmp rax, 0")
	g.emit("%s %s", jump, short)
	g.expr(v.Right)
	g.emit("cmp rax, 0")
	g.emit("%s %s", jump, short)
	g.emit("mov rax, %d", otherValue)
	g.emit("jmp .Lend%d", n)
	g.label(short)
	g.emit("mov rax, %d", shortValue)
	g.label(fmt.Sprintf(".Lend%d", n))
}
