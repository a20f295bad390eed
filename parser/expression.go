package parser

import (
	"strconv"

	"github.com/pontaoski/kestrel/ast"
	"github.com/pontaoski/kestrel/errors"
	"github.com/pontaoski/kestrel/types"
)

type bindingPower struct {
	op          ast.BinaryOp
	left, right int
}

var binaryOperators = map[string]bindingPower{
	"=":  {ast.Assign, 1, 0},
	"||": {ast.LogicalOr, 2, 3},
	"&&": {ast.LogicalAnd, 4, 5},
	"|":  {ast.BitOr, 6, 7},
	"^":  {ast.BitXor, 8, 9},
	"&":  {ast.BitAnd, 10, 11},
	"==": {ast.Equals, 12, 13},
	"!=": {ast.NotEquals, 12, 13},
	"<":  {ast.Less, 14, 15},
	"<=": {ast.LessEqual, 14, 15},
	">":  {ast.Greater, 14, 15},
	">=": {ast.GreaterEqual, 14, 15},
	"<<": {ast.ShiftLeft, 16, 17},
	">>": {ast.ShiftRight, 16, 17},
	"+":  {ast.Add, 20, 21},
	"-":  {ast.Subtract, 20, 21},
	"*":  {ast.Multiply, 22, 23},
	"/":  {ast.Divide, 22, 23},
	"%":  {ast.Remainder, 22, 23},
}

const prefixPower = 100

// parseExpression parses operators binding tighter than min. It stops in
// front of a token from terminators, consuming it when consume is set. A nil
// result means the error has already been reported.
func (p *Parser) parseExpression(min int, terminators []string, consume bool) ast.Executable {
	lhs := p.parsePrefix(terminators)
	if lhs == nil {
		return nil
	}

	for {
		tok := p.s.Peek()

		if tok.Is("(") || tok.Is(".") || tok.Is("[") || tok.Is("++") {
			if lhs = p.parsePostfix(lhs, tok); lhs == nil {
				return nil
			}
			continue
		}

		if bp, ok := binaryOperators[tok.Value]; ok && tok.Kind == types.SYMBOL {
			if bp.left <= min {
				return lhs
			}
			p.s.Lex()
			rhs := p.parseExpression(bp.right, terminators, false)
			if rhs == nil {
				return nil
			}
			lhs = p.verifyBinaryOperation(bp.op, lhs, rhs)
			if lhs == nil {
				return nil
			}
			continue
		}

		if p.s.PeekIs(terminators...) {
			if consume {
				p.s.Lex()
			}
			return lhs
		}

		if tok.Kind == types.EOF {
			panic(errors.UnexpectedEOF{Expected: quoted(terminators), Location: tok.Location})
		}
		p.report(errors.UnexpectedToken{Expected: append([]string{"operator"}, quotedAll(terminators)...), Got: tok})
		return nil
	}
}

func (p *Parser) parsePostfix(lhs ast.Executable, tok types.Token) ast.Executable {
	switch {
	case tok.Is("("):
		return p.parseCall(lhs)
	case tok.Is("."):
		return p.parseMember(lhs)
	case tok.Is("["):
		return p.parseElement(lhs)
	}
	return p.parsePostIncrement(lhs)
}

func quotedAll(values []string) (ret []string) {
	for _, v := range values {
		ret = append(ret, "'"+v+"'")
	}
	return
}

func quoted(values []string) string {
	if len(values) == 0 {
		return "expression"
	}
	return "'" + values[0] + "'"
}

func (p *Parser) parsePrefix(terminators []string) ast.Executable {
	tok := p.s.Peek()

	switch {
	case tok.Kind == types.EOF:
		panic(errors.UnexpectedEOF{Expected: "expression", Location: tok.Location})
	case p.s.PeekIs(terminators...):
		// left in place so the caller can resynchronize on it
		p.report(errors.UnexpectedToken{Expected: []string{"expression"}, Got: tok})
		return nil
	}

	p.s.Lex()
	switch tok.Kind {
	case types.INT:
		return p.integerLiteral(tok)
	case types.STRING:
		return &ast.Literal[string]{
			Node:  ast.Node{Typ: ast.Pointer{To: ast.Char{}}, Location: tok.Location},
			Value: tok.Value,
		}
	case types.CHAR:
		return &ast.Literal[rune]{
			Node:  ast.Node{Typ: ast.Char{}, Location: tok.Location},
			Value: rune(tok.Value[0]),
		}
	case types.IDENT:
		return p.parseIdentifier(tok)
	}

	switch {
	case tok.Is("true"), tok.Is("false"):
		return &ast.Literal[bool]{
			Node:  ast.Node{Typ: ast.Bool{}, Location: tok.Location},
			Value: tok.Is("true"),
		}
	case tok.Is("("):
		if typ, ok := p.castType(); ok {
			return p.parseCast(tok, typ, terminators)
		}
		return p.parseExpression(0, []string{")"}, true)
	case tok.Is("-"), tok.Is("!"), tok.Is("*"), tok.Is("&"):
		operand := p.parseExpression(prefixPower, terminators, false)
		if operand == nil {
			return nil
		}
		return p.verifyUnaryOperation(tok, operand)
	}

	p.report(errors.UnexpectedToken{Expected: []string{"expression"}, Got: tok})
	return nil
}

func (p *Parser) integerLiteral(tok types.Token) ast.Executable {
	typ := ast.UntypedInteger{}
	v, err := strconv.ParseInt(tok.Value, 0, 64)
	if err != nil {
		u, uerr := strconv.ParseUint(tok.Value, 0, 64)
		if uerr != nil {
			p.report(errors.Unsupported{What: "integer literal " + tok.Value + " is out of range", Location: tok.Location})
			return nil
		}
		v, typ.Unsigned = int64(u), true
	}
	return &ast.Literal[int64]{
		Node:  ast.Node{Typ: typ, Location: tok.Location},
		Value: v,
	}
}

// castType looks past an opening parenthesis for a type name followed by
// ')'. On success the type tokens and the ')' are consumed.
func (p *Parser) castType() (ast.Typ, bool) {
	first := p.s.PeekN(0)
	if first.Kind != types.IDENT {
		return nil, false
	}

	path := []string{first.Value}
	n := 1
	for p.s.PeekN(n).Is(".") && p.s.PeekN(n+1).Kind == types.IDENT {
		path = append(path, p.s.PeekN(n+1).Value)
		n += 2
	}
	stars := 0
	for p.s.PeekN(n).Is("*") {
		stars++
		n++
	}
	if !p.s.PeekN(n).Is(")") {
		return nil, false
	}

	def, err := p.table.LookupPath(p.scope, path)
	if err != nil {
		return nil, false
	}
	typ := typeOf(def)
	if typ == nil {
		return nil, false
	}
	for i := 0; i < stars; i++ {
		typ = ast.Pointer{To: typ}
	}

	for i := 0; i <= n; i++ {
		p.s.Lex()
	}
	return typ, true
}

func (p *Parser) parseCast(open types.Token, to ast.Typ, terminators []string) ast.Executable {
	operand := p.parseExpression(prefixPower, terminators, false)
	if operand == nil {
		return nil
	}
	loc := types.Combine(open.Location, operand.Span())
	if !checkTypeCast(operand.Type(), to) {
		p.report(errors.InvalidCast{From: operand.Type().String(), To: to.String(), Location: loc})
		return nil
	}
	return cast(operand, to, loc)
}

func cast(e ast.Executable, to ast.Typ, loc types.Span) *ast.UnaryOperation {
	return &ast.UnaryOperation{
		Node:    ast.Node{Typ: to, Location: loc},
		Op:      ast.Cast,
		Operand: e,
	}
}

func (p *Parser) parseIdentifier(tok types.Token) ast.Executable {
	def := p.lookup(tok)
	if def == nil {
		return nil
	}
	return p.reference(def, tok.Location)
}

// reference builds the node for a resolved name.
func (p *Parser) reference(def ast.Definition, loc types.Span) ast.Executable {
	switch d := def.(type) {
	case *ast.Variable:
		return &ast.Identifier{Node: ast.Node{Typ: d.Type, Location: loc}, Definition: d}
	case *ast.Function:
		return &ast.Identifier{Node: ast.Node{Typ: d.Signature(), Location: loc}, Definition: d}
	case *ast.Namespace:
		return &ast.NamespaceValue{Node: ast.Node{Typ: ast.Void{}, Location: loc}, Namespace: d}
	case *ast.Struct, *ast.Enum:
		tv := &ast.TypeValue{Node: ast.Node{Typ: ast.Void{}, Location: loc}, Definition: d}
		if decl, ok := p.maybeDeclaration(tv); ok {
			return decl
		}
		return tv
	}

	p.report(errors.Unsupported{What: def.Base().Name + " cannot be used here", Location: loc})
	return nil
}

func typeOf(def ast.Definition) ast.Typ {
	switch d := def.(type) {
	case *ast.Struct:
		return d.Type
	case *ast.Enum:
		return d.Type
	}
	return nil
}

// maybeDeclaration turns "Type name", "Type* name" and "Type name[N]" into
// a new local variable. It consumes nothing unless the tokens after the type
// form a declaration.
func (p *Parser) maybeDeclaration(tv *ast.TypeValue) (ast.Executable, bool) {
	n := 0
	for p.s.PeekN(n).Is("*") {
		n++
	}
	if p.s.PeekN(n).Kind != types.IDENT {
		return nil, false
	}

	typ := typeOf(tv.Definition)
	for i := 0; i < n; i++ {
		p.s.Lex()
		typ = ast.Pointer{To: typ}
	}
	name := p.s.Lex()

	if p.s.PeekIs("[") {
		p.s.Lex()
		count := p.s.ExpectKind(types.INT)
		p.s.Expect("]")
		c, err := strconv.ParseInt(count.Value, 0, 32)
		if err != nil || c <= 0 {
			p.report(errors.Unsupported{What: "invalid array length " + count.Value, Location: count.Location})
			c = 1
		}
		typ = ast.SizedArray{Element: typ, Count: int(c)}
	}

	loc := types.Combine(tv.Location, name.Location)
	if ast.IsVoid(typ) {
		p.report(errors.Unsupported{What: "variable " + name.Value + " cannot have type void", Location: loc})
		typ = ast.Int64
	}

	v := &ast.Variable{
		DefBase: ast.DefBase{Name: name.Value, Location: name.Location},
		Type:    typ,
	}
	if p.table.Shadows(p.scope, name.Value) {
		p.warn(errors.DuplicateName{Name: name.Value, Location: name.Location})
	}
	if !p.table.Append(p.scope, v) {
		p.report(errors.DuplicateName{Name: name.Value, Location: name.Location})
	}

	return &ast.Identifier{
		Node:        ast.Node{Typ: typ, Location: loc},
		Definition:  v,
		Declaration: true,
	}, true
}

func (p *Parser) parseMember(of ast.Executable) ast.Executable {
	p.s.Expect(".")
	name := p.s.ExpectKind(types.IDENT)
	loc := types.Combine(of.Span(), name.Location)

	switch v := of.(type) {
	case *ast.NamespaceValue:
		return p.scopedMember(v.Namespace.Scope, v.Namespace.Name, name, loc)
	case *ast.TypeValue:
		switch d := v.Definition.(type) {
		case *ast.Enum:
			m, ok := d.Type.Member(name.Value)
			if !ok {
				p.report(errors.UnresolvedName{Name: d.Name + "." + name.Value, What: "enum member", Location: loc})
				return nil
			}
			return &ast.Literal[int64]{Node: ast.Node{Typ: d.Type, Location: loc}, Value: m.Value}
		case *ast.Struct:
			if d.Scope == ast.NoScope {
				p.report(errors.Unsupported{What: d.Name + " has no members", Location: loc})
				return nil
			}
			return p.scopedMember(d.Scope, d.Name, name, loc)
		}
	}

	typ := of.Type()
	// members of a struct pointer are reached through it
	if ptr, ok := typ.(ast.Pointer); ok {
		typ = ptr.To
	}
	st, ok := typ.(*ast.StructType)
	if !ok {
		p.report(errors.InvalidOperands{Operator: ".", Left: of.Type().String(), Location: loc})
		return nil
	}
	m, ok := st.Member(name.Value)
	if !ok {
		p.report(errors.UnresolvedName{Name: st.Name + "." + name.Value, What: "member", Location: loc})
		return nil
	}
	return &ast.GetMember{
		Node:   ast.Node{Typ: m.Type, Location: loc},
		Of:     of,
		Member: m.Name,
		Offset: m.Offset,
	}
}

func (p *Parser) scopedMember(id ast.ScopeID, owner string, name types.Token, loc types.Span) ast.Executable {
	def, err := p.table.Member(id, name.Value)
	if err != nil {
		p.report(locate(err, loc))
		return nil
	}
	if def == nil {
		p.report(errors.UnresolvedName{Name: owner + "." + name.Value, Location: loc})
		return nil
	}
	return p.reference(def, loc)
}

func (p *Parser) parseElement(of ast.Executable) ast.Executable {
	p.s.Expect("[")
	index := p.parseExpression(0, []string{"]"}, true)
	if index == nil {
		return nil
	}
	loc := types.Combine(of.Span(), index.Span())

	var elem ast.Typ
	switch t := of.Type().(type) {
	case ast.Pointer:
		elem = t.To
	case ast.SizedArray:
		elem = t.Element
	default:
		p.report(errors.InvalidOperands{Operator: "[]", Left: of.Type().String(), Location: loc})
		return nil
	}
	if ast.IsVoid(elem) {
		p.report(errors.InvalidOperands{Operator: "[]", Left: of.Type().String(), Location: loc})
		return nil
	}

	switch {
	case ast.IsUntyped(index.Type()):
		index, _ = p.promoteToType(index, ast.Int64)
	case !ast.IsInteger(index.Type()):
		p.report(errors.TypeMismatch{Expected: "an integer", Got: index.Type().String(), Context: "index", Location: index.Span()})
		return nil
	}

	return &ast.GetElement{
		Node:  ast.Node{Typ: elem, Location: loc},
		Of:    of,
		Index: index,
	}
}

func (p *Parser) parsePostIncrement(target ast.Executable) ast.Executable {
	tok := p.s.Expect("++")
	loc := types.Combine(target.Span(), tok.Location)

	ident, ok := target.(*ast.Identifier)
	if !ok {
		p.report(errors.InvalidAssignment{Reason: "++ needs a variable", Location: loc})
		return nil
	}
	if _, ok := ident.Definition.(*ast.Variable); !ok || !ast.IsInteger(ident.Type()) {
		p.report(errors.InvalidOperands{Operator: "++", Left: ident.Type().String(), Location: loc})
		return nil
	}

	return &ast.PostIncrement{Node: ast.Node{Typ: ident.Type(), Location: loc}, Target: ident}
}

func (p *Parser) parseCall(callee ast.Executable) ast.Executable {
	open := p.s.Expect("(")

	sig, ok := callee.Type().(ast.FunctionPointer)
	if !ok {
		p.report(errors.InvalidOperands{Operator: "call", Left: callee.Type().String(), Location: callee.Span()})
		p.skipArguments()
		return nil
	}

	var args []ast.Executable
	end := open
	if p.s.PeekIs(")") {
		end = p.s.Lex()
	}
	for !end.Is(")") {
		arg := p.parseExpression(0, []string{",", ")"}, false)
		if arg == nil {
			return nil
		}
		args = append(args, arg)
		end = p.s.Lex()
	}
	loc := types.Combine(callee.Span(), end.Location)

	name := calleeName(callee)
	if len(args) != len(sig.Arguments) {
		p.report(errors.ArgumentMismatch{Function: name, Expected: len(sig.Arguments), Got: len(args), Location: loc})
		return nil
	}
	for i, arg := range args {
		want := sig.Arguments[i]
		if ast.Equal(arg.Type(), want) {
			continue
		}
		if promoted, ok := p.promoteToType(arg, want); ok && ast.IsUntyped(arg.Type()) {
			args[i] = promoted
			continue
		}
		p.report(errors.TypeMismatch{
			Expected: want.String(),
			Got:      arg.Type().String(),
			Context:  "argument " + strconv.Itoa(i+1) + " of " + name,
			Location: arg.Span(),
		})
		return nil
	}

	return &ast.FunctionCall{
		Node:      ast.Node{Typ: sig.Returns, Location: loc},
		Callee:    callee,
		Arguments: args,
	}
}

// skipArguments consumes a parenthesized argument list after a failed
// callee, the '(' already read.
func (p *Parser) skipArguments() {
	depth := 1
	for depth > 0 {
		tok := p.s.Peek()
		if tok.Kind == types.EOF || tok.Is(";") || tok.Is("}") {
			return
		}
		p.s.Lex()
		switch {
		case tok.Is("("):
			depth++
		case tok.Is(")"):
			depth--
		}
	}
}

func calleeName(callee ast.Executable) string {
	if ident, ok := callee.(*ast.Identifier); ok {
		if fn, ok := ident.Definition.(*ast.Function); ok {
			return fn.FullName
		}
		return ident.Definition.Base().Name
	}
	return "function pointer"
}
