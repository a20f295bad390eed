package main

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/alecthomas/repr"
	"github.com/pontaoski/kestrel/ast"
	"github.com/pontaoski/kestrel/parser"
	"github.com/pontaoski/kestrel/project"
	"github.com/pontaoski/kestrel/reader"
	"github.com/urfave/cli/v2"
	"github.com/ztrue/tracerr"
)

func logger(c *cli.Context) *log.Logger {
	if c.Bool("verbose") {
		return log.New(os.Stderr, "kestrel: ", 0)
	}
	return log.New(ioutil.Discard, "", 0)
}

// report prints the diagnostics and fails when any of them is an error.
func report(prog *parser.Program) error {
	prog.Diagnostics.Print(os.Stderr)
	if prog.Failed() {
		return cli.Exit(fmt.Sprintf("%d error(s)", prog.Diagnostics.ErrorCount()), 1)
	}
	return nil
}

type layout struct {
	Name    string
	Size    int
	Offsets map[string]int
}

func dumpTree(prog *parser.Program) {
	var layouts []layout
	for _, st := range prog.Structs {
		t, ok := st.Type.(*ast.StructType)
		if !ok {
			continue
		}
		l := layout{Name: t.Name, Size: t.Size(), Offsets: map[string]int{}}
		for _, m := range t.Members {
			l.Offsets[m.Name] = m.Offset
		}
		layouts = append(layouts, l)
	}
	if len(layouts) > 0 {
		repr.Println(layouts, repr.Indent("  "))
	}

	for _, fn := range prog.Functions {
		fmt.Printf("%s %s\n", fn.FullName, fn.Signature())
		if fn.Body != nil {
			fmt.Printf("  %s\n", ast.Sexp(fn.Body))
		}
	}
}

func main() {
	app := &cli.App{
		Name:  "kestrel",
		Usage: "kestrel compiler",
		ExitErrHandler: func(c *cli.Context, err error) {
			if err == nil {
				return
			}
			if _, ok := err.(cli.ExitCoder); ok {
				cli.HandleExitCoder(err)
				return
			}
			tracerr.PrintSourceColor(err)
			os.Exit(1)
		},
		Commands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "create a project in the current directory",
				ArgsUsage: "<package>",
				Action: func(c *cli.Context) error {
					name := c.Args().First()
					if name == "" {
						return cli.Exit("no package name provided", 1)
					}
					return project.New(name).Save(".")
				},
			},
			{
				Name:  "check",
				Usage: "parse and type check the project",
				Action: func(c *cli.Context) error {
					p, err := project.Load(".")
					if err != nil {
						return err
					}
					prog, err := p.Check(".")
					if err != nil {
						return err
					}
					return report(prog)
				},
			},
			{
				Name:  "typeinfo",
				Usage: "dump the type information of a built library",
				Action: func(c *cli.Context) error {
					info, err := reader.ReadTypeInfo(c.Args().First())
					if err != nil {
						return err
					}
					for _, name := range info.Names() {
						fmt.Printf("%s %s\n", name, info.Functions[name])
					}
					return nil
				},
			},
			{
				Name:  "build",
				Usage: "build the project",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "output",
						Usage: "path of the binary",
					},
					&cli.StringFlag{
						Name:  "emit",
						Value: string(project.EmitAsm),
						Usage: "backend to use, asm or llvm",
					},
					&cli.BoolFlag{
						Name:  "dump",
						Usage: "print the generated code instead of building",
					},
					&cli.BoolFlag{
						Name:  "dump-tree",
						Usage: "print the typed tree of every function",
					},
					&cli.BoolFlag{
						Name: "library",
					},
					&cli.BoolFlag{
						Name:  "keep",
						Usage: "keep intermediate files",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
					},
				},
				Action: func(c *cli.Context) error {
					opts := project.BuildOptions{
						Output:  c.String("output"),
						Emit:    project.Emit(c.String("emit")),
						Library: c.Bool("library"),
						Keep:    c.Bool("keep"),
						Log:     logger(c),
					}
					if opts.Emit != project.EmitAsm && opts.Emit != project.EmitLLVM {
						return cli.Exit("unknown backend "+c.String("emit"), 1)
					}

					p, err := project.Load(".")
					if err != nil {
						return err
					}

					if c.Bool("dump") || c.Bool("dump-tree") {
						prog, err := p.Check(".")
						if err != nil {
							return err
						}
						if err := report(prog); err != nil {
							return err
						}
						if c.Bool("dump-tree") {
							dumpTree(prog)
						}
						if c.Bool("dump") {
							text, err := project.Generate(prog, opts)
							if err != nil {
								return err
							}
							fmt.Print(text)
						}
						return nil
					}

					prog, err := p.Build(".", opts)
					if prog != nil {
						prog.Diagnostics.Print(os.Stderr)
					}
					if err == project.ErrDiagnostics {
						return cli.Exit(fmt.Sprintf("%d error(s)", prog.Diagnostics.ErrorCount()), 1)
					}
					return err
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
