package parser

import (
	"github.com/pontaoski/kestrel/ast"
	"github.com/pontaoski/kestrel/errors"
	"github.com/pontaoski/kestrel/scope"
	"github.com/pontaoski/kestrel/types"
)

// Parser turns the captured body of one function into a typed tree. Type
// checking happens while parsing, every node it returns is fully typed.
type Parser struct {
	table *scope.Table
	diags *errors.Diagnostics

	s     stream
	fn    *ast.Function
	scope ast.ScopeID
}

func (p *Parser) report(err error) {
	p.diags.Report(err)
}

func (p *Parser) warn(err error) {
	p.diags.Warn(err)
}

func (p *Parser) parseFunctionBody(fn *ast.Function, brokenSignature bool) {
	p.fn = fn
	p.scope = fn.Scope
	p.s = stream{NewTokens(fn.BodyTokens)}

	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(errors.Located)
			if !ok {
				panic(r)
			}
			p.report(err)
			fn.Body = nil
		}
	}()

	body := p.parseBlock()
	fn.Body = body

	if brokenSignature {
		return
	}

	switch {
	case ast.IsVoid(fn.Returns):
		if body.Returns != nil && !ast.IsVoid(body.Returns) {
			p.report(errors.ReturnMismatch{Function: fn.Name, Expected: "void", Got: body.Returns.String(), Location: fn.Location})
		}
	case body.Returns == nil:
		p.report(errors.ReturnMismatch{Function: fn.Name, Expected: fn.Returns.String(), Location: fn.Location})
	case !ast.Equal(body.Returns, fn.Returns):
		p.report(errors.ReturnMismatch{Function: fn.Name, Expected: fn.Returns.String(), Got: body.Returns.String(), Location: fn.Location})
	}
}

// enter opens a child scope and returns the function that restores the
// previous one.
func (p *Parser) enter(kind scope.Kind) (ast.ScopeID, func()) {
	outer := p.scope
	p.scope = p.table.New(kind, outer, nil)
	return p.scope, func() { p.scope = outer }
}

func (p *Parser) lookup(tok types.Token) ast.Definition {
	def, err := p.table.Lookup(p.scope, tok.Value)
	if err != nil {
		p.report(locate(err, tok.Location))
		return nil
	}
	if def == nil {
		p.report(errors.UnresolvedName{Name: tok.Value, Location: tok.Location})
	}
	return def
}
