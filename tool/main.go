// Command adtgen writes the marker methods that seal a sum type.
//
//	adtgen <input.adt> <output.go> <package>
//
// The input declares sums as
//
//	sum Executable = *CodeBlock | *Return | Nop;
//
// and every variant gets an empty isExecutable method, with a pointer
// receiver when the variant is written with a leading star.
package main

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/alecthomas/participle"

	. "github.com/dave/jennifer/jen"
)

type SumDecls struct {
	Sums []*Sum `@@*`
}

type Variant struct {
	Pointer bool   `@"*"?`
	Name    string `@Ident`
}

type Sum struct {
	Name     string     `"sum" @Ident "="`
	Variants []*Variant `@@ ("|" @@)* ";"`
}

func (s *Sum) Validate() error {
	seen := map[string]bool{}
	for _, v := range s.Variants {
		if seen[v.Name] {
			return fmt.Errorf("sum %s lists %s more than once", s.Name, v.Name)
		}
		seen[v.Name] = true
	}
	return nil
}

func GenerateDecls(pkgname string, t *SumDecls) string {
	f := NewFile(pkgname)
	f.HeaderComment("Code generated by adtgen. DO NOT EDIT.")

	for _, sum := range t.Sums {
		method := "is" + sum.Name
		for _, v := range sum.Variants {
			recv := Id(v.Name)
			if v.Pointer {
				recv = Op("*").Id(v.Name)
			}
			f.Func().Params(recv).Id(method).Params().Block()
		}
	}

	return fmt.Sprintf("%#v", f)
}

func main() {
	parser := participle.MustBuild(&SumDecls{})

	if len(os.Args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: adtgen <input.adt> <output.go> <package>")
		os.Exit(2)
	}
	in := os.Args[1]
	out := os.Args[2]
	pkgname := os.Args[3]

	inData, err := ioutil.ReadFile(in)
	if err != nil {
		panic(err)
	}

	decls := SumDecls{}
	err = parser.ParseBytes(inData, &decls)
	if err != nil {
		panic(err)
	}
	for _, sum := range decls.Sums {
		if err := sum.Validate(); err != nil {
			panic(err)
		}
	}

	err = ioutil.WriteFile(out, []byte(GenerateDecls(pkgname, &decls)), 0644)
	if err != nil {
		panic(err)
	}
}
