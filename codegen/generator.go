// Package codegen lowers a typed program to x86-64 assembly for the flat
// assembler. Every value is computed into rax; temporaries go through the
// machine stack.
package codegen

import (
	"fmt"
	"strings"

	"github.com/pontaoski/kestrel/ast"
	"github.com/pontaoski/kestrel/parser"
	"github.com/pontaoski/kestrel/scope"
	"github.com/pontaoski/kestrel/typeinfo"
	"github.com/ztrue/tracerr"
)

type Options struct {
	// Library routes calls to external functions through the PLT so the
	// output can be linked into a shared object.
	Library bool
}

type generator struct {
	table *scope.Table
	opts  Options
	pool  *Pool

	header strings.Builder
	text   strings.Builder

	fn     *ast.Function
	depth  int
	labels int
}

// Generate produces the assembly for prog. The program must be free of
// errors; anything the generator cannot lower is returned as a Fatal.
func Generate(prog *parser.Program, opts Options) (out string, err error) {
	defer func() {
		if v := recover(); v != nil {
			if f, ok := v.(Fatal); ok {
				err = tracerr.Wrap(f)
				return
			}
			panic(v)
		}
	}()

	g := &generator{
		table: prog.Table,
		opts:  opts,
		pool:  NewPool(),
	}

	for _, fn := range prog.Functions {
		g.function(fn)
	}

	var data strings.Builder
	data.WriteString("section '.data' writeable\n")
	fmt.Fprintf(&data, "public %s\n", typeinfo.Symbol)
	fmt.Fprintf(&data, "%s db %s\n", typeinfo.Symbol, Bytes(string(typeinfo.FromFunctions(prog.Functions).Marshal())))
	for _, v := range prog.Globals {
		g.global(&data, v)
	}
	g.pool.Emit(&data)

	var asm strings.Builder
	asm.WriteString("format ELF64\n")
	asm.WriteString("section '.text' executable\n")
	asm.WriteString(g.header.String())
	asm.WriteString(g.text.String())
	asm.WriteString(data.String())
	return asm.String(), nil
}

func (g *generator) emit(format string, args ...interface{}) {
	g.text.WriteString("    ")
	fmt.Fprintf(&g.text, format, args...)
	g.text.WriteByte('\n')
}

func (g *generator) label(name string) {
	g.text.WriteString(name)
	g.text.WriteString(":\n")
}

func (g *generator) count() int {
	g.labels++
	return g.labels
}

func (g *generator) push() {
	g.emit("push rax")
	g.depth++
}

func (g *generator) pop(reg string) {
	g.emit("pop %s", reg)
	g.depth--
}

func (g *generator) function(fn *ast.Function) {
	sym := fn.Symbol()
	if fn.Modifiers.Has(ast.External) {
		fmt.Fprintf(&g.header, "extrn %s\n", sym)
		return
	}
	if fn.Body == nil {
		fatalf(fn.Location, "function %s has no body", fn.FullName)
	}
	checkReturn(fn.Returns, fn.Location)
	if fn.Modifiers.Has(ast.Export) {
		fmt.Fprintf(&g.header, "public %s\n", sym)
	}

	g.fn = fn
	g.depth = 0

	g.label(sym)
	g.emit("push rbp")
	g.emit("mov rbp, rsp")
	g.block(fn.Body, true)
	g.label(".return")
	g.emit("mov rsp, rbp")
	g.emit("pop rbp")
	g.emit("ret")
}

// frameSize is what a block reserves on entry: its locals and those of the
// enclosing blocks, plus room for the return value, rounded up to keep rsp
// 16 byte aligned.
func (g *generator) frameSize(b *ast.CodeBlock) int {
	return scope.AlignTo(g.table.Size(b.Scope)+g.fn.Returns.Size(), 16)
}

func (g *generator) block(b *ast.CodeBlock, body bool) {
	size := g.frameSize(b)
	if size > 0 {
		g.emit("sub rsp, %d", size)
	}
	if body {
		g.spill()
	}

	for _, stmt := range b.Statements {
		g.statement(stmt)
	}

	if size > 0 {
		g.emit("add rsp, %d", size)
	}
}

// spill copies register arguments into their frame slots.
func (g *generator) spill() {
	for _, arg := range g.fn.Arguments {
		if arg.Storage.Kind != ast.RegisterArgument {
			continue
		}
		first := registerIndex(arg.Storage.Register)
		if first < 0 {
			fatalf(arg.Location, "argument %s of type %s is not supported", arg.Name, arg.Type)
		}
		words := scope.AlignTo(arg.Type.Size(), 8) / 8
		for i := 0; i < words; i++ {
			g.emit("mov qword [rbp%+d], %s", arg.Storage.Offset+8*i, scope.IntegerRegisters[first+i])
		}
	}
}

func registerIndex(reg string) int {
	for i, r := range scope.IntegerRegisters {
		if r == reg {
			return i
		}
	}
	return -1
}

func (g *generator) statement(stmt ast.Executable) {
	switch s := stmt.(type) {
	case *ast.CodeBlock:
		g.block(s, false)
	case *ast.Return:
		if s.Value != nil {
			g.expr(s.Value)
		}
		g.emit("jmp .return")
	case *ast.ControlFlow:
		n := g.count()
		g.expr(s.Condition)
		g.emit("cmp rax, 0")
		g.emit("je .Lelse%d", n)
		g.statement(s.Then)
		g.emit("jmp .Lend%d", n)
		g.label(fmt.Sprintf(".Lelse%d", n))
		if s.Else != nil {
			g.statement(s.Else)
		}
		g.label(fmt.Sprintf(".Lend%d", n))
	case *ast.WhileLoop:
		n := g.count()
		g.label(fmt.Sprintf(".Lbegin%d", n))
		g.expr(s.Condition)
		g.emit("cmp rax, 0")
		g.emit("je .Lend%d", n)
		g.statement(s.Body)
		g.emit("jmp .Lbegin%d", n)
		g.label(fmt.Sprintf(".Lend%d", n))
	case *ast.Nop:
	case *ast.Identifier:
		// a bare declaration reserves its slot and computes nothing
		if !s.Declaration {
			g.expr(s)
		}
	default:
		g.expr(stmt)
	}

	if g.depth != 0 {
		fatalf(stmt.Span(), "unbalanced stack after statement")
	}
}

// symbol is the object file name of a global variable: its namespaces
// joined with dots in front of its own name.
func (g *generator) symbol(v *ast.Variable) string {
	if v.Modifiers.Has(ast.External) {
		return v.Name
	}
	return g.table.Qualify(v.Parent, v.Name)
}

var dataDirectives = map[int]string{1: "db", 2: "dw", 4: "dd", 8: "dq"}

func (g *generator) global(w *strings.Builder, v *ast.Variable) {
	sym := g.symbol(v)
	if v.Modifiers.Has(ast.External) {
		fmt.Fprintf(&g.header, "extrn %s\n", sym)
		return
	}
	if v.Modifiers.Has(ast.Export) {
		fmt.Fprintf(w, "public %s\n", sym)
	}
	if d, ok := dataDirectives[v.Type.Size()]; ok {
		fmt.Fprintf(w, "%s %s 0\n", sym, d)
		return
	}
	fmt.Fprintf(w, "%s rb %d\n", sym, v.Type.Size())
}
