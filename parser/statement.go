package parser

import (
	"github.com/pontaoski/kestrel/ast"
	"github.com/pontaoski/kestrel/errors"
	"github.com/pontaoski/kestrel/scope"
	"github.com/pontaoski/kestrel/types"
)

func (p *Parser) parseBlock() *ast.CodeBlock {
	open := p.s.Expect("{")

	id, leave := p.enter(scope.Block)
	defer leave()

	block := &ast.CodeBlock{Scope: id}
	for !p.s.PeekIs("}") {
		if p.s.AtEOF() {
			p.s.Expect("}")
		}
		stmt := p.parseStatement()
		block.Statements = append(block.Statements, stmt)
		if block.Returns == nil {
			block.Returns = ast.ReturnTypeOf(stmt)
		}
	}
	end := p.s.Expect("}")

	block.Node = ast.Node{Typ: ast.Void{}, Location: types.Combine(open.Location, end.Location)}
	return block
}

// parseStatement never fails: a broken statement is reported, skipped and
// replaced by a Nop. Running out of tokens is the exception, it unwinds to
// parseFunctionBody.
func (p *Parser) parseStatement() (stmt ast.Executable) {
	start := p.s.Peek()

	defer func() {
		if r := recover(); r != nil {
			if _, eof := r.(errors.UnexpectedEOF); eof {
				panic(r)
			}
			err, ok := r.(errors.Located)
			if !ok {
				panic(r)
			}
			p.report(err)
			p.s.Synchronize()
			stmt = ast.NewNop(start.Location)
		}
	}()

	switch {
	case start.Is("{"):
		return p.parseBlock()
	case start.Is("return"):
		return p.parseReturn()
	case start.Is("if"):
		return p.parseIf()
	case start.Is("while"):
		return p.parseWhile()
	case start.Is(";"):
		p.s.Lex()
		return ast.NewNop(start.Location)
	case start.Kind == types.KEYWORD && !start.Is("true") && !start.Is("false"):
		p.s.Lex()
		panic(errors.UnexpectedToken{Expected: []string{"statement"}, Got: start})
	}

	return p.parseExpressionStatement()
}

func (p *Parser) parseExpressionStatement() ast.Executable {
	start := p.s.Peek()
	expr := p.parseExpression(0, []string{";"}, true)
	if expr == nil {
		p.s.Synchronize()
		return ast.NewNop(start.Location)
	}

	switch expr.(type) {
	case *ast.TypeValue, *ast.NamespaceValue:
		p.report(errors.Unsupported{What: "expected a value, not a type or namespace", Location: expr.Span()})
		return ast.NewNop(expr.Span())
	}
	return expr
}

func (p *Parser) parseReturn() ast.Executable {
	tok := p.s.Expect("return")
	ret := &ast.Return{
		Node:    ast.Node{Typ: ast.Void{}, Location: tok.Location},
		Returns: p.fn.Returns,
	}

	if p.s.PeekIs(";") {
		end := p.s.Lex()
		ret.Location = types.Combine(tok.Location, end.Location)
		ret.Returns = ast.Void{}
		if !ast.IsVoid(p.fn.Returns) {
			p.report(errors.ReturnMismatch{Function: p.fn.Name, Expected: p.fn.Returns.String(), Got: "void", Location: ret.Location})
			ret.Returns = p.fn.Returns
		}
		return ret
	}

	value := p.parseExpression(0, []string{";"}, true)
	if value == nil {
		p.s.Synchronize()
		return ret
	}
	ret.Location = types.Combine(tok.Location, value.Span())

	if ast.IsVoid(p.fn.Returns) {
		p.report(errors.ReturnMismatch{Function: p.fn.Name, Expected: "void", Got: value.Type().String(), Location: ret.Location})
		return ret
	}

	promoted, ok := p.promoteToType(value, p.fn.Returns)
	if !ok {
		p.report(errors.TypeMismatch{
			Expected: p.fn.Returns.String(),
			Got:      value.Type().String(),
			Context:  "returned value",
			Location: value.Span(),
		})
		return ret
	}
	ret.Value = promoted
	return ret
}

// parseCondition reads "( expr )" and checks that expr is a bool. A nil
// result has been reported already.
func (p *Parser) parseCondition() ast.Executable {
	p.s.Expect("(")
	cond := p.parseExpression(0, []string{")"}, true)
	if cond == nil {
		return nil
	}
	if _, ok := cond.Type().(ast.Bool); !ok {
		p.report(errors.TypeMismatch{Expected: "bool", Got: cond.Type().String(), Context: "condition", Location: cond.Span()})
	}
	return cond
}

func (p *Parser) parseIf() ast.Executable {
	tok := p.s.Expect("if")
	cond := p.parseCondition()
	if cond == nil {
		p.s.Synchronize()
		return ast.NewNop(tok.Location)
	}

	node := &ast.ControlFlow{Condition: cond}
	node.Then = p.parseStatement()
	end := node.Then.Span()

	if p.s.PeekIs("else") {
		p.s.Lex()
		node.Else = p.parseStatement()
		end = node.Else.Span()

		thenReturns, elseReturns := ast.ReturnTypeOf(node.Then), ast.ReturnTypeOf(node.Else)
		if thenReturns != nil && elseReturns != nil {
			if ast.Equal(thenReturns, elseReturns) {
				node.Returns = thenReturns
			} else {
				p.report(errors.TypeMismatch{
					Expected: thenReturns.String(),
					Got:      elseReturns.String(),
					Context:  "else branch return",
					Location: node.Else.Span(),
				})
			}
		}
	}

	node.Node = ast.Node{Typ: ast.Void{}, Location: types.Combine(tok.Location, end)}
	return node
}

func (p *Parser) parseWhile() ast.Executable {
	tok := p.s.Expect("while")
	cond := p.parseCondition()
	if cond == nil {
		p.s.Synchronize()
		return ast.NewNop(tok.Location)
	}

	body := p.parseStatement()
	return &ast.WhileLoop{
		Node:      ast.Node{Typ: ast.Void{}, Location: types.Combine(tok.Location, body.Span())},
		Condition: cond,
		Body:      body,
	}
}
