package llvmgen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/pontaoski/kestrel/ast"
	"github.com/pontaoski/kestrel/errors"
)

func zero(t types.Type) *constant.Int {
	return constant.NewInt(intType(t), 0)
}

func index(i int64) *constant.Int {
	return constant.NewInt(types.I32, i)
}

// str returns an i8* to a private zero terminated copy of s.
func (g *generator) str(s string) value.Value {
	if v, ok := g.strings[s]; ok {
		return v
	}
	data := constant.NewCharArrayFromString(s + "\x00")
	gl := g.module.NewGlobalDef(fmt.Sprintf("str.%d", len(g.strings)), data)
	gl.Immutable = true
	gl.Linkage = enum.LinkagePrivate

	v := constant.NewGetElementPtr(data.Typ, gl, index(0), index(0))
	g.strings[s] = v
	return v
}

// addr returns a pointer to the storage of e.
func (g *generator) addr(e ast.Executable) value.Value {
	switch v := e.(type) {
	case *ast.Identifier:
		switch d := v.Definition.(type) {
		case *ast.Variable:
			if slot, ok := g.locals[d]; ok {
				return slot
			}
			if gl, ok := g.globals[d]; ok {
				return gl
			}
			slot := g.entry.NewAlloca(g.typ(d.Type))
			g.locals[d] = slot
			return slot
		case *ast.Function:
			return g.funcs[d]
		}

	case *ast.UnaryOperation:
		if v.Op == ast.Dereference {
			return g.expr(v.Operand)
		}

	case *ast.GetMember:
		var base value.Value
		st := v.Of.Type()
		if ptr, ok := st.(ast.Pointer); ok {
			base, st = g.expr(v.Of), ptr.To
		} else {
			base = g.addr(v.Of)
		}
		structType := st.(*ast.StructType)
		for i, m := range structType.Members {
			if m.Name == v.Member {
				return g.cur.NewGetElementPtr(g.typ(structType), base, index(0), index(int64(i)))
			}
		}

	case *ast.GetElement:
		if arr, ok := v.Of.Type().(ast.SizedArray); ok {
			base := g.addr(v.Of)
			i := g.expr(v.Index)
			return g.cur.NewGetElementPtr(g.typ(arr), base, zero(types.I64), i)
		}
		base := g.expr(v.Of)
		i := g.expr(v.Index)
		return g.cur.NewGetElementPtr(g.typ(v.Type()), base, i)
	}

	panic(errors.Unsupported{What: "expression is not addressable", Location: e.Span()})
}

func (g *generator) load(t ast.Typ, ptr value.Value) value.Value {
	return g.cur.NewLoad(g.typ(t), ptr)
}

func (g *generator) expr(e ast.Executable) value.Value {
	switch v := e.(type) {
	case *ast.Literal[int64]:
		return constant.NewInt(intType(g.typ(v.Type())), v.Value)
	case *ast.Literal[bool]:
		return constant.NewBool(v.Value)
	case *ast.Literal[rune]:
		return constant.NewInt(types.I8, int64(v.Value))
	case *ast.Literal[string]:
		return g.str(v.Value)

	case *ast.Identifier:
		if fn, ok := v.Definition.(*ast.Function); ok {
			return g.funcs[fn]
		}
		return g.load(v.Type(), g.addr(v))

	case *ast.GetMember, *ast.GetElement:
		return g.load(v.Type(), g.addr(v))

	case *ast.UnaryOperation:
		return g.unary(v)
	case *ast.BinaryOperation:
		return g.binary(v)

	case *ast.FunctionCall:
		callee := g.expr(v.Callee)
		var args []value.Value
		for _, arg := range v.Arguments {
			args = append(args, g.expr(arg))
		}
		return g.cur.NewCall(callee, args...)

	case *ast.PostIncrement:
		ptr := g.addr(v.Target)
		old := g.load(v.Type(), ptr)
		g.cur.NewStore(g.cur.NewAdd(old, constant.NewInt(intType(old.Type()), 1)), ptr)
		return old
	}

	panic(errors.Unsupported{What: fmt.Sprintf("cannot generate %T as a value", e), Location: e.Span()})
}

func (g *generator) unary(v *ast.UnaryOperation) value.Value {
	switch v.Op {
	case ast.Negate:
		x := g.expr(v.Operand)
		return g.cur.NewSub(zero(x.Type()), x)
	case ast.Not:
		x := g.expr(v.Operand)
		return g.cur.NewXor(x, constant.True)
	case ast.Dereference:
		return g.load(v.Type(), g.expr(v.Operand))
	case ast.AddressOf:
		return g.addr(v.Operand)
	case ast.Cast:
		return g.convert(g.expr(v.Operand), v.Operand.Type(), v.Type())
	}
	panic(errors.Unsupported{What: "unary operator " + v.Op.String(), Location: v.Span()})
}

// convert implements casts between integers, enums and pointers.
func (g *generator) convert(x value.Value, from, to ast.Typ) value.Value {
	target := g.typ(to)
	if x.Type().Equal(target) {
		return x
	}

	switch target.(type) {
	case *types.IntType:
		if ast.IsPointer(from) {
			return g.cur.NewPtrToInt(x, target)
		}
		have, want := intType(x.Type()).BitSize, intType(target).BitSize
		switch {
		case have > want:
			return g.cur.NewTrunc(x, target)
		case signed(from):
			return g.cur.NewSExt(x, target)
		default:
			return g.cur.NewZExt(x, target)
		}
	case *types.PointerType:
		if _, ok := x.Type().(*types.IntType); ok {
			return g.cur.NewIntToPtr(x, target)
		}
		return g.cur.NewBitCast(x, target)
	}

	panic(errors.Unsupported{What: fmt.Sprintf("cast from %s to %s", from, to)})
}

var predicates = map[ast.BinaryOp][2]enum.IPred{
	// signed, unsigned
	ast.Equals:       {enum.IPredEQ, enum.IPredEQ},
	ast.NotEquals:    {enum.IPredNE, enum.IPredNE},
	ast.Less:         {enum.IPredSLT, enum.IPredULT},
	ast.LessEqual:    {enum.IPredSLE, enum.IPredULE},
	ast.Greater:      {enum.IPredSGT, enum.IPredUGT},
	ast.GreaterEqual: {enum.IPredSGE, enum.IPredUGE},
}

func (g *generator) binary(v *ast.BinaryOperation) value.Value {
	switch v.Op {
	case ast.Assign:
		ptr := g.addr(v.Left)
		x := g.expr(v.Right)
		g.cur.NewStore(x, ptr)
		return x
	case ast.LogicalAnd, ast.LogicalOr:
		return g.logical(v)
	}

	lhs := g.expr(v.Left)
	rhs := g.expr(v.Right)
	operands := v.Left.Type()
	s := signed(operands)

	if v.Op.IsComparison() {
		pred := predicates[v.Op][1]
		if s {
			pred = predicates[v.Op][0]
		}
		return g.cur.NewICmp(pred, lhs, rhs)
	}

	switch v.Op {
	case ast.Add:
		return g.cur.NewAdd(lhs, rhs)
	case ast.Subtract:
		return g.cur.NewSub(lhs, rhs)
	case ast.Multiply:
		return g.cur.NewMul(lhs, rhs)
	case ast.Divide:
		if s {
			return g.cur.NewSDiv(lhs, rhs)
		}
		return g.cur.NewUDiv(lhs, rhs)
	case ast.Remainder:
		if s {
			return g.cur.NewSRem(lhs, rhs)
		}
		return g.cur.NewURem(lhs, rhs)
	case ast.BitAnd:
		return g.cur.NewAnd(lhs, rhs)
	case ast.BitOr:
		return g.cur.NewOr(lhs, rhs)
	case ast.BitXor:
		return g.cur.NewXor(lhs, rhs)
	case ast.ShiftLeft, ast.ShiftRight:
		rhs = g.convert(rhs, v.Right.Type(), operands)
		switch {
		case v.Op == ast.ShiftLeft:
			return g.cur.NewShl(lhs, rhs)
		case s:
			return g.cur.NewAShr(lhs, rhs)
		}
		return g.cur.NewLShr(lhs, rhs)
	}

	panic(errors.Unsupported{What: "binary operator " + v.Op.String(), Location: v.Span()})
}

// logical short circuits && and || through a phi in a join block.
func (g *generator) logical(v *ast.BinaryOperation) value.Value {
	lhs := g.expr(v.Left)
	from := g.cur

	rhsBlock, end := g.block("logic.rhs"), g.block("logic.end")
	short := constant.False
	if v.Op == ast.LogicalAnd {
		g.cur.NewCondBr(lhs, rhsBlock, end)
	} else {
		short = constant.True
		g.cur.NewCondBr(lhs, end, rhsBlock)
	}

	g.cur = rhsBlock
	rhs := g.expr(v.Right)
	rhsEnd := g.cur
	g.cur.NewBr(end)

	g.cur = end
	return end.NewPhi(ir.NewIncoming(short, from), ir.NewIncoming(rhs, rhsEnd))
}
