// Package llvmgen lowers a typed program to an LLVM module.
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
	"github.com/pontaoski/kestrel/parser"
	"github.com/pontaoski/kestrel/scope"
	"github.com/pontaoski/kestrel/typeinfo"
	"github.com/ztrue/tracerr"
)

type generator struct {
	table  *scope.Table
	module *ir.Module

	funcs   map[*ast.Function]*ir.Func
	globals map[*ast.Variable]value.Value
	structs map[*ast.StructType]*types.StructType
	strings map[string]value.Value

	// per function
	fn     *ast.Function
	irfn   *ir.Func
	entry  *ir.Block
	cur    *ir.Block
	locals map[*ast.Variable]value.Value
	blocks int
}

// Generate builds the module for prog, which must be free of errors.
func Generate(prog *parser.Program) (m *ir.Module, err error) {
	defer func() {
		if v := recover(); v != nil {
			if u, ok := v.(errors.Unsupported); ok {
				err = tracerr.Wrap(u)
				return
			}
			panic(v)
		}
	}()

	g := &generator{
		table:   prog.Table,
		module:  ir.NewModule(),
		funcs:   map[*ast.Function]*ir.Func{},
		globals: map[*ast.Variable]value.Value{},
		structs: map[*ast.StructType]*types.StructType{},
		strings: map[string]value.Value{},
	}

	for _, v := range prog.Globals {
		g.global(v)
	}
	// every function is declared before any body refers to it
	for _, fn := range prog.Functions {
		g.declare(fn)
	}
	for _, fn := range prog.Functions {
		if !fn.Modifiers.Has(ast.External) {
			g.function(fn)
		}
	}

	g.registerTypeInfo(typeinfo.FromFunctions(prog.Functions))
	return g.module, nil
}

func (g *generator) registerTypeInfo(info typeinfo.Info) {
	gl := g.module.NewGlobalDef(typeinfo.Symbol, constant.NewCharArray(append(info.Marshal(), 0)))
	gl.Immutable = true
}

func (g *generator) global(v *ast.Variable) {
	t := g.typ(v.Type)
	if v.Modifiers.Has(ast.External) {
		g.globals[v] = g.module.NewGlobal(v.Name, t)
		return
	}

	gl := g.module.NewGlobalDef(g.table.Qualify(v.Parent, v.Name), constant.NewZeroInitializer(t))
	if !v.Modifiers.Has(ast.Export) {
		gl.Linkage = enum.LinkageInternal
	}
	g.globals[v] = gl
}

func (g *generator) declare(fn *ast.Function) {
	var params []*ir.Param
	for _, arg := range fn.Arguments {
		params = append(params, ir.NewParam(arg.Name, g.typ(arg.Type)))
	}

	f := g.module.NewFunc(fn.Symbol(), g.typ(fn.Returns), params...)
	if !fn.Modifiers.Has(ast.External) && !fn.Modifiers.Has(ast.Export) {
		f.Linkage = enum.LinkageInternal
	}
	g.funcs[fn] = f
}

func (g *generator) function(fn *ast.Function) {
	if fn.Body == nil {
		panic(errors.Unsupported{What: fmt.Sprintf("function %s has no body", fn.FullName), Location: fn.Location})
	}

	g.fn = fn
	g.irfn = g.funcs[fn]
	g.entry = g.irfn.NewBlock("entry")
	g.cur = g.entry
	g.locals = map[*ast.Variable]value.Value{}
	g.blocks = 0

	for i, arg := range fn.Arguments {
		slot := g.entry.NewAlloca(g.typ(arg.Type))
		g.entry.NewStore(g.irfn.Params[i], slot)
		g.locals[arg] = slot
	}

	g.statement(fn.Body)

	// blocks left open follow a return or are never reached
	for _, b := range g.irfn.Blocks {
		if b.Term != nil {
			continue
		}
		if ast.IsVoid(fn.Returns) {
			b.NewRet(nil)
		} else {
			b.NewUnreachable()
		}
	}
}

func (g *generator) block(name string) *ir.Block {
	g.blocks++
	return g.irfn.NewBlock(fmt.Sprintf("%s.%d", name, g.blocks))
}

func (g *generator) statement(stmt ast.Executable) {
	switch s := stmt.(type) {
	case *ast.CodeBlock:
		for _, inner := range s.Statements {
			g.statement(inner)
		}

	case *ast.Return:
		if s.Value == nil {
			g.cur.NewRet(nil)
		} else {
			v := g.expr(s.Value)
			g.cur.NewRet(v)
		}
		g.cur = g.block("after.return")

	case *ast.ControlFlow:
		cond := g.expr(s.Condition)
		then, end := g.block("if.then"), g.block("if.end")
		otherwise := end
		if s.Else != nil {
			otherwise = g.block("if.else")
		}
		g.cur.NewCondBr(cond, then, otherwise)

		g.cur = then
		g.statement(s.Then)
		g.cur.NewBr(end)

		if s.Else != nil {
			g.cur = otherwise
			g.statement(s.Else)
			g.cur.NewBr(end)
		}
		g.cur = end

	case *ast.WhileLoop:
		head, body, end := g.block("while.cond"), g.block("while.body"), g.block("while.end")
		g.cur.NewBr(head)

		g.cur = head
		cond := g.expr(s.Condition)
		g.cur.NewCondBr(cond, body, end)

		g.cur = body
		g.statement(s.Body)
		g.cur.NewBr(head)
		g.cur = end

	case *ast.Nop:
	case *ast.Identifier:
		if s.Declaration {
			g.addr(s)
			return
		}
		g.expr(s)
	default:
		g.expr(stmt)
	}
}
