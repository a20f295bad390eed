// Package ast holds the typed program: types, named definitions and the
// executable tree produced by the parser. Typ, Definition and Executable are
// closed sums, their marker methods are generated from sum.adt.
package ast

//go:generate sh -c "cd ../tool && go run . ../ast/sum.adt ../ast/sum_gen.go ast"
