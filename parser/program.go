package parser

import (
	"io"

	"github.com/pontaoski/kestrel/ast"
	"github.com/pontaoski/kestrel/errors"
	"github.com/pontaoski/kestrel/lexer"
	"github.com/pontaoski/kestrel/scope"
	"github.com/pontaoski/kestrel/types"
)

// Program is everything the declaration and body phases produce. The phases
// must run in order over all files: Declare every file, then Resolve, then
// ParseBodies, because lookups across files assume complete top levels.
type Program struct {
	Table       *scope.Table
	Functions   []*ast.Function
	Globals     []*ast.Variable
	Structs     []*ast.Struct
	Enums       []*ast.Enum
	Aliases     []*ast.ImportAlias
	Diagnostics *errors.Diagnostics

	brokenSignature map[*ast.Function]bool
}

func NewProgram() *Program {
	return &Program{
		Table:           scope.NewTable(),
		Diagnostics:     &errors.Diagnostics{},
		brokenSignature: map[*ast.Function]bool{},
	}
}

type SourceFile struct {
	Name   string
	Reader io.Reader
}

// Parse runs every front end phase over the given files.
func Parse(files []SourceFile) *Program {
	prog := NewProgram()
	for _, f := range files {
		prog.DeclareFile(f.Name, f.Reader)
	}
	prog.Resolve()
	prog.ParseBodies()
	return prog
}

func (prog *Program) DeclareFile(name string, r io.Reader) {
	l := lexer.NewLexer(r, name)
	prog.Declare(name, l)
	for _, err := range l.Errors {
		prog.Diagnostics.Report(err)
	}
}

func (prog *Program) ParseBodies() {
	for _, fn := range prog.Functions {
		if fn.BodyTokens == nil {
			continue
		}
		p := &Parser{
			table: prog.Table,
			diags: prog.Diagnostics,
		}
		p.parseFunctionBody(fn, prog.brokenSignature[fn])
	}
}

func (prog *Program) Failed() bool {
	return prog.Diagnostics.ErrorCount() > 0
}

func locate(err error, loc types.Span) error {
	switch e := err.(type) {
	case errors.UnresolvedName:
		e.Location = loc
		return e
	case errors.AmbiguousName:
		e.Location = loc
		return e
	}
	return err
}
