package project

import (
	"errors"
	"io"
	"io/ioutil"
	"log"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pontaoski/kestrel/codegen"
	"github.com/pontaoski/kestrel/llvmgen"
	"github.com/pontaoski/kestrel/parser"
	"github.com/ztrue/tracerr"
)

type Emit string

const (
	EmitAsm  Emit = "asm"
	EmitLLVM Emit = "llvm"
)

type BuildOptions struct {
	Output  string
	Emit    Emit
	Library bool
	// Keep leaves the intermediate files in place.
	Keep bool

	Log    *log.Logger
	Stderr io.Writer
}

// ErrDiagnostics is returned when the program has errors. They are in the
// program's diagnostics, not in the error.
var ErrDiagnostics = errors.New("compilation failed")

// Check loads and parses every source file of the project.
func (p Project) Check(dir string) (*parser.Program, error) {
	files, err := p.Files(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, tracerr.Errorf("no source files match %v", p.Sources)
	}

	sources, err := ReadSources(files)
	if err != nil {
		return nil, err
	}
	return Parse(sources), nil
}

// Generate renders prog with the selected backend.
func Generate(prog *parser.Program, opts BuildOptions) (string, error) {
	if opts.Emit == EmitLLVM {
		m, err := llvmgen.Generate(prog)
		if err != nil {
			return "", err
		}
		return m.String(), nil
	}
	return codegen.Generate(prog, codegen.Options{Library: opts.Library})
}

func (p Project) output(opts BuildOptions) string {
	if opts.Output != "" {
		return opts.Output
	}
	if opts.Library {
		return "lib" + p.Output + ".so"
	}
	return p.Output
}

// Build compiles the project in dir into a binary or shared library.
func (p Project) Build(dir string, opts BuildOptions) (*parser.Program, error) {
	logger := opts.Log
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}

	prog, err := p.Check(dir)
	if err != nil {
		return nil, err
	}
	if prog.Failed() {
		return prog, ErrDiagnostics
	}

	text, err := Generate(prog, opts)
	if err != nil {
		return prog, err
	}

	work, err := ioutil.TempDir("", "kestrel-")
	if err != nil {
		return prog, tracerr.Wrap(err)
	}
	if opts.Keep {
		logger.Printf("keeping intermediate files in %s", work)
	} else {
		defer os.RemoveAll(work)
	}

	out := p.output(opts)
	if !filepath.IsAbs(out) {
		out = filepath.Join(dir, out)
	}

	if opts.Emit == EmitLLVM {
		ll := filepath.Join(work, p.Package+".ll")
		if err := ioutil.WriteFile(ll, []byte(text), 0644); err != nil {
			return prog, tracerr.Wrap(err)
		}
		args := []string{"-o", out}
		if opts.Library {
			args = append(args, "-shared", "-fPIC")
		}
		return prog, run(logger, opts.Stderr, "clang", append(args, ll)...)
	}

	asm := filepath.Join(work, p.Package+".asm")
	obj := filepath.Join(work, p.Package+".o")
	if err := ioutil.WriteFile(asm, []byte(text), 0644); err != nil {
		return prog, tracerr.Wrap(err)
	}
	if err := run(logger, opts.Stderr, p.Assembler, asm, obj); err != nil {
		return prog, err
	}

	args := p.linkFlags(opts.Library)
	args = append(args, "-o", out, obj)
	return prog, run(logger, opts.Stderr, p.Linker, args...)
}

// linkFlags drops -no-pie for shared libraries, they are always position
// independent.
func (p Project) linkFlags(library bool) []string {
	if !library {
		return append([]string(nil), p.LinkFlags...)
	}
	var ret []string
	for _, f := range p.LinkFlags {
		if f != "-no-pie" {
			ret = append(ret, f)
		}
	}
	return append(ret, "-shared")
}

func run(logger *log.Logger, stderr io.Writer, name string, args ...string) error {
	if stderr == nil {
		stderr = os.Stderr
	}
	logger.Printf("running %s %v", name, args)

	cmd := exec.Command(name, args...)
	cmd.Stdout = stderr
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return tracerr.Errorf("%s failed: %v", name, err)
	}
	return nil
}
