package codegen

import (
	"github.com/pontaoski/kestrel/ast"
	"github.com/pontaoski/kestrel/scope"
	"github.com/pontaoski/kestrel/types"
)

// checkReturn rejects return values that do not come back in rax.
func checkReturn(t ast.Typ, loc types.Span) {
	if ast.IsVoid(t) {
		return
	}
	if _, ok := t.(ast.FloatingPoint); ok || t.Size() > 8 {
		fatalf(loc, "values of type %s (%d bytes) cannot be returned", t, t.Size())
	}
}

// call follows the System V AMD64 convention for integer class arguments.
// Stack arguments are pushed last to first, so the first one ends on top;
// register arguments are evaluated last to first onto the stack and then
// popped into their registers. rsp is 16 byte aligned at the call.
func (g *generator) call(c *ast.FunctionCall) {
	sig := c.Callee.Type().(ast.FunctionPointer)
	checkReturn(sig.Returns, c.Span())
	placements := scope.Classify(sig.Arguments)
	for i, p := range placements {
		if p.Class != scope.ClassInteger || len(p.Registers) > 1 || (!p.InRegisters() && p.Size > 8) {
			fatalf(c.Arguments[i].Span(), "argument of type %s cannot be passed (class %s)", sig.Arguments[i], p.Class)
		}
	}

	var direct *ast.Function
	if ident, ok := c.Callee.(*ast.Identifier); ok {
		direct, _ = ident.Definition.(*ast.Function)
	}
	if direct == nil {
		g.expr(c.Callee)
		g.push()
	}

	stack := scope.StackBytes(placements)
	pad := 0
	if (g.depth*8+stack)%16 == 8 {
		pad = 8
		g.emit("sub rsp, 8")
		g.depth++
	}

	for i := len(c.Arguments) - 1; i >= 0; i-- {
		if !placements[i].InRegisters() {
			g.expr(c.Arguments[i])
			g.push()
		}
	}
	for i := len(c.Arguments) - 1; i >= 0; i-- {
		if placements[i].InRegisters() {
			g.expr(c.Arguments[i])
			g.push()
		}
	}
	for _, p := range placements {
		if p.InRegisters() {
			g.pop(p.Registers[0])
		}
	}

	g.emit("xor eax, eax")
	switch {
	case direct == nil:
		g.emit("mov r11, qword [rsp+%d]", stack+pad)
		g.emit("call r11")
	case g.opts.Library && direct.Modifiers.Has(ast.External):
		g.emit("call PLT %s", direct.Symbol())
	default:
		g.emit("call %s", direct.Symbol())
	}

	if n := stack + pad; n > 0 {
		g.emit("add rsp, %d", n)
		g.depth -= n / 8
	}
	if direct == nil {
		g.emit("add rsp, 8")
		g.depth--
	}

	if !ast.IsVoid(sig.Returns) {
		g.normalize(sig.Returns)
	}
}
