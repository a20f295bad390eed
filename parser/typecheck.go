package parser

import (
	"github.com/pontaoski/kestrel/ast"
	"github.com/pontaoski/kestrel/errors"
	"github.com/pontaoski/kestrel/types"
)

// untyped returns e as an integer literal that has not been given a type
// yet.
func untyped(e ast.Executable) (*ast.Literal[int64], bool) {
	lit, ok := e.(*ast.Literal[int64])
	if !ok || !ast.IsUntyped(lit.Typ) {
		return nil, false
	}
	return lit, true
}

// leastCommonType is the type both operands of an arithmetic operation are
// promoted to.
func leastCommonType(a, b ast.Typ) (ast.Typ, bool) {
	switch {
	case ast.IsUntyped(a) && ast.IsUntyped(b):
		return a, true
	case ast.IsUntyped(a) && ast.IsInteger(b):
		return b, true
	case ast.IsInteger(a) && ast.IsUntyped(b):
		return a, true
	}

	x, ok := a.(ast.Integer)
	if !ok {
		return nil, false
	}
	y, ok := b.(ast.Integer)
	if !ok || x.Signed != y.Signed {
		return nil, false
	}
	if y.Bytes > x.Bytes {
		return y, true
	}
	return x, true
}

// promoteToType converts e to the given type without losing information.
func (p *Parser) promoteToType(e ast.Executable, to ast.Typ) (ast.Executable, bool) {
	from := e.Type()
	if ast.Equal(from, to) {
		return e, true
	}

	target, ok := to.(ast.Integer)
	if !ok {
		return nil, false
	}

	if lit, ok := untyped(e); ok {
		if !ast.LiteralFits(lit, target) {
			return nil, false
		}
		return cast(e, to, e.Span()), true
	}

	source, ok := from.(ast.Integer)
	if !ok || source.Signed != target.Signed || source.Bytes >= target.Bytes {
		return nil, false
	}
	return cast(e, to, e.Span()), true
}

// checkTypeCast reports whether an explicit (T) x cast is allowed.
func checkTypeCast(from, to ast.Typ) bool {
	switch t := to.(type) {
	case ast.Integer:
		if ast.IsInteger(from) || ast.IsUntyped(from) {
			return true
		}
		return ast.IsPointer(from) && t == ast.Uint64
	case ast.Pointer:
		if ast.IsPointer(from) || ast.IsUntyped(from) {
			return true
		}
		return ast.Equal(from, ast.Uint64)
	}
	return false
}

func (p *Parser) invalidOperands(op ast.BinaryOp, lhs, rhs ast.Executable, loc types.Span) {
	p.report(errors.InvalidOperands{
		Operator: op.String(),
		Left:     lhs.Type().String(),
		Right:    rhs.Type().String(),
		Location: loc,
	})
}

func binary(op ast.BinaryOp, typ ast.Typ, lhs, rhs ast.Executable, loc types.Span) *ast.BinaryOperation {
	return &ast.BinaryOperation{
		Node:  ast.Node{Typ: typ, Location: loc},
		Op:    op,
		Left:  lhs,
		Right: rhs,
	}
}

// verifyBinaryOperation type checks lhs op rhs and returns the typed node,
// inserting casts where operands are promoted. Failures are reported and
// yield nil.
func (p *Parser) verifyBinaryOperation(op ast.BinaryOp, lhs, rhs ast.Executable) ast.Executable {
	loc := types.Combine(lhs.Span(), rhs.Span())

	if a, ok := untyped(lhs); ok {
		if b, ok := untyped(rhs); ok {
			return p.fold(op, a, b, loc)
		}
	}

	switch {
	case op == ast.Assign:
		return p.verifyAssignment(lhs, rhs, loc)

	case op.IsArithmetic():
		typ, ok := leastCommonType(lhs.Type(), rhs.Type())
		if !ok {
			p.invalidOperands(op, lhs, rhs, loc)
			return nil
		}
		l, lok := p.promoteToType(lhs, typ)
		r, rok := p.promoteToType(rhs, typ)
		if !lok || !rok {
			p.invalidOperands(op, lhs, rhs, loc)
			return nil
		}
		return binary(op, typ, l, r, loc)

	case op.IsBitwise():
		width, ok := bitwiseWidth(lhs.Type(), rhs.Type())
		if !ok {
			p.invalidOperands(op, lhs, rhs, loc)
			return nil
		}
		typ := ast.Integer{Bytes: width, Signed: false}
		l, lok := p.toUnsigned(lhs, typ)
		r, rok := p.toUnsigned(rhs, typ)
		if !lok || !rok {
			p.invalidOperands(op, lhs, rhs, loc)
			return nil
		}
		return binary(op, typ, l, r, loc)

	case op.IsComparison():
		if (op == ast.Equals || op == ast.NotEquals) && comparableForEquality(lhs.Type(), rhs.Type()) {
			return binary(op, ast.Bool{}, lhs, rhs, loc)
		}
		typ, ok := leastCommonType(lhs.Type(), rhs.Type())
		if !ok {
			p.invalidOperands(op, lhs, rhs, loc)
			return nil
		}
		l, lok := p.promoteToType(lhs, typ)
		r, rok := p.promoteToType(rhs, typ)
		if !lok || !rok {
			p.invalidOperands(op, lhs, rhs, loc)
			return nil
		}
		return binary(op, ast.Bool{}, l, r, loc)

	case op == ast.LogicalAnd || op == ast.LogicalOr:
		_, lb := lhs.Type().(ast.Bool)
		_, rb := rhs.Type().(ast.Bool)
		if !lb || !rb {
			p.invalidOperands(op, lhs, rhs, loc)
			return nil
		}
		return binary(op, ast.Bool{}, lhs, rhs, loc)

	case op == ast.ShiftLeft || op == ast.ShiftRight:
		return p.verifyShift(op, lhs, rhs, loc)
	}

	p.invalidOperands(op, lhs, rhs, loc)
	return nil
}

func (p *Parser) verifyAssignment(lhs, rhs ast.Executable, loc types.Span) ast.Executable {
	switch target := lhs.(type) {
	case *ast.Identifier:
		if _, ok := target.Definition.(*ast.Variable); !ok {
			p.report(errors.InvalidAssignment{Reason: "cannot assign to function " + target.Definition.Base().Name, Location: lhs.Span()})
			return nil
		}
	case *ast.GetMember, *ast.GetElement:
	case *ast.UnaryOperation:
		if target.Op != ast.Dereference {
			p.report(errors.InvalidAssignment{Reason: "left side is not assignable", Location: lhs.Span()})
			return nil
		}
	default:
		p.report(errors.InvalidAssignment{Reason: "left side is not assignable", Location: lhs.Span()})
		return nil
	}

	typ := lhs.Type()
	switch typ.(type) {
	case *ast.StructType, ast.SizedArray:
		p.report(errors.InvalidAssignment{Reason: "values of type " + typ.String() + " cannot be assigned", Location: loc})
		return nil
	}

	value, ok := p.promoteToType(rhs, typ)
	if !ok {
		p.report(errors.TypeMismatch{Expected: typ.String(), Got: rhs.Type().String(), Context: "assigned value", Location: rhs.Span()})
		return nil
	}
	return binary(ast.Assign, typ, lhs, value, loc)
}

func (p *Parser) verifyShift(op ast.BinaryOp, lhs, rhs ast.Executable, loc types.Span) ast.Executable {
	if _, ok := untyped(lhs); ok {
		if !ast.IsInteger(rhs.Type()) {
			p.invalidOperands(op, lhs, rhs, loc)
			return nil
		}
		to := ast.Int64
		if unsignedLiteral(lhs) {
			to = ast.Uint64
		}
		lhs, _ = p.promoteToType(lhs, to)
	}

	typ, ok := lhs.Type().(ast.Integer)
	if !ok {
		p.invalidOperands(op, lhs, rhs, loc)
		return nil
	}

	if lit, ok := untyped(rhs); ok {
		if lit.Value < 0 || lit.Value >= int64(typ.Bytes*8) {
			p.report(errors.Unsupported{What: "shift count out of range", Location: rhs.Span()})
			return nil
		}
		rhs = cast(rhs, typ, rhs.Span())
	}
	if !ast.IsInteger(rhs.Type()) {
		p.invalidOperands(op, lhs, rhs, loc)
		return nil
	}
	return binary(op, typ, lhs, rhs, loc)
}

// bitwiseWidth is the width of the unsigned result of & | ^.
func bitwiseWidth(a, b ast.Typ) (int, bool) {
	x, xok := a.(ast.Integer)
	y, yok := b.(ast.Integer)
	switch {
	case xok && yok:
		if y.Bytes > x.Bytes {
			return y.Bytes, true
		}
		return x.Bytes, true
	case xok && ast.IsUntyped(b):
		return x.Bytes, true
	case yok && ast.IsUntyped(a):
		return y.Bytes, true
	}
	return 0, false
}

func (p *Parser) toUnsigned(e ast.Executable, to ast.Integer) (ast.Executable, bool) {
	if ast.Equal(e.Type(), to) {
		return e, true
	}
	if lit, ok := untyped(e); ok && !ast.LiteralFits(lit, to) {
		return nil, false
	}
	return cast(e, to, e.Span()), true
}

func comparableForEquality(a, b ast.Typ) bool {
	if !ast.Equal(a, b) {
		return false
	}
	switch a.(type) {
	case ast.Bool, ast.Char, *ast.EnumType, ast.Pointer:
		return true
	}
	return false
}

func unsignedLiteral(e ast.Executable) bool {
	u, ok := e.Type().(ast.UntypedInteger)
	return ok && u.Unsigned
}

// fold evaluates an operation on two untyped literals. Once one side holds
// uint64 bits the arithmetic is unsigned.
func (p *Parser) fold(op ast.BinaryOp, a, b *ast.Literal[int64], loc types.Span) ast.Executable {
	x, y := a.Value, b.Value
	unsigned := unsignedLiteral(a) || unsignedLiteral(b)
	lit := func(v int64) ast.Executable {
		typ := ast.UntypedInteger{Unsigned: unsigned && v < 0}
		return &ast.Literal[int64]{Node: ast.Node{Typ: typ, Location: loc}, Value: v}
	}
	truth := func(v bool) ast.Executable {
		return &ast.Literal[bool]{Node: ast.Node{Typ: ast.Bool{}, Location: loc}, Value: v}
	}

	switch op {
	case ast.Add:
		return lit(x + y)
	case ast.Subtract:
		return lit(x - y)
	case ast.Multiply:
		return lit(x * y)
	case ast.Divide, ast.Remainder:
		if y == 0 {
			p.report(errors.Unsupported{What: "division by zero", Location: loc})
			return nil
		}
		switch {
		case unsigned && op == ast.Divide:
			return lit(int64(uint64(x) / uint64(y)))
		case unsigned:
			return lit(int64(uint64(x) % uint64(y)))
		case op == ast.Divide:
			return lit(x / y)
		}
		return lit(x % y)
	case ast.BitAnd:
		return lit(x & y)
	case ast.BitOr:
		return lit(x | y)
	case ast.BitXor:
		return lit(x ^ y)
	case ast.ShiftLeft, ast.ShiftRight:
		if y < 0 || y >= 64 {
			p.report(errors.Unsupported{What: "shift count out of range", Location: loc})
			return nil
		}
		switch {
		case op == ast.ShiftLeft:
			return lit(x << uint(y))
		case unsigned:
			return lit(int64(uint64(x) >> uint(y)))
		}
		return lit(x >> uint(y))
	case ast.Equals:
		return truth(x == y)
	case ast.NotEquals:
		return truth(x != y)
	}

	if unsigned {
		switch op {
		case ast.Less:
			return truth(uint64(x) < uint64(y))
		case ast.LessEqual:
			return truth(uint64(x) <= uint64(y))
		case ast.Greater:
			return truth(uint64(x) > uint64(y))
		case ast.GreaterEqual:
			return truth(uint64(x) >= uint64(y))
		}
	}
	switch op {
	case ast.Less:
		return truth(x < y)
	case ast.LessEqual:
		return truth(x <= y)
	case ast.Greater:
		return truth(x > y)
	case ast.GreaterEqual:
		return truth(x >= y)
	}

	p.report(errors.InvalidOperands{Operator: op.String(), Left: a.Typ.String(), Right: b.Typ.String(), Location: loc})
	return nil
}

// verifyUnaryOperation type checks a prefix operator.
func (p *Parser) verifyUnaryOperation(tok types.Token, operand ast.Executable) ast.Executable {
	loc := types.Combine(tok.Location, operand.Span())
	typ := operand.Type()
	unary := func(op ast.UnaryOp, typ ast.Typ) ast.Executable {
		return &ast.UnaryOperation{Node: ast.Node{Typ: typ, Location: loc}, Op: op, Operand: operand}
	}
	invalid := func() ast.Executable {
		p.report(errors.InvalidOperands{Operator: tok.Value, Left: typ.String(), Location: loc})
		return nil
	}

	switch {
	case tok.Is("-"):
		if lit, ok := untyped(operand); ok {
			return &ast.Literal[int64]{Node: ast.Node{Typ: ast.UntypedInteger{}, Location: loc}, Value: -lit.Value}
		}
		if !ast.IsInteger(typ) {
			return invalid()
		}
		return unary(ast.Negate, typ)

	case tok.Is("!"):
		if _, ok := typ.(ast.Bool); !ok {
			return invalid()
		}
		return unary(ast.Not, typ)

	case tok.Is("*"):
		ptr, ok := typ.(ast.Pointer)
		if !ok || ast.IsVoid(ptr.To) {
			return invalid()
		}
		return unary(ast.Dereference, ptr.To)

	case tok.Is("&"):
		switch v := operand.(type) {
		case *ast.Identifier:
			if _, ok := v.Definition.(*ast.Variable); !ok {
				return invalid()
			}
		case *ast.GetMember, *ast.GetElement:
		case *ast.UnaryOperation:
			if v.Op != ast.Dereference {
				return invalid()
			}
		default:
			return invalid()
		}
		return unary(ast.AddressOf, ast.Pointer{To: typ})
	}

	return invalid()
}
