package scope

import "github.com/pontaoski/kestrel/ast"

var builtins = []struct {
	name string
	typ  ast.Typ
}{
	{"void", ast.Void{}},
	{"char", ast.Char{}},
	{"bool", ast.Bool{}},
	{"int8", ast.Int8},
	{"int16", ast.Int16},
	{"int32", ast.Int32},
	{"int64", ast.Int64},
	{"uint8", ast.Uint8},
	{"uint16", ast.Uint16},
	{"uint32", ast.Uint32},
	{"uint64", ast.Uint64},
	{"int", ast.Int32},
	{"uint", ast.Uint32},
	{"float32", ast.FloatingPoint{Bytes: 4}},
	{"float64", ast.FloatingPoint{Bytes: 8}},
}
