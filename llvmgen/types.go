package llvmgen

import (
	"github.com/llir/llvm/ir/types"
	"github.com/pontaoski/kestrel/ast"
	"github.com/pontaoski/kestrel/errors"
)

var (
	Float32 = &types.FloatType{Kind: types.FloatKindFloat}
	Float64 = &types.FloatType{Kind: types.FloatKindDouble}
)

// typ maps a resolved type to its LLVM form. Struct types become named
// type definitions the first time they are seen.
func (g *generator) typ(t ast.Typ) types.Type {
	switch v := t.(type) {
	case ast.Void:
		return types.Void
	case ast.Char:
		return types.I8
	case ast.Bool:
		return types.I1
	case ast.Integer:
		return types.NewInt(uint64(v.Bytes * 8))
	case ast.UntypedInteger:
		return types.I64
	case *ast.EnumType:
		return types.NewInt(uint64(v.Underlying.Bytes * 8))
	case ast.FloatingPoint:
		if v.Bytes == 4 {
			return Float32
		}
		return Float64
	case ast.Pointer:
		if ast.IsVoid(v.To) {
			return types.I8Ptr
		}
		return types.NewPointer(g.typ(v.To))
	case ast.FunctionPointer:
		var params []types.Type
		for _, arg := range v.Arguments {
			params = append(params, g.typ(arg))
		}
		return types.NewPointer(types.NewFunc(g.typ(v.Returns), params...))
	case ast.SizedArray:
		return types.NewArray(uint64(v.Count), g.typ(v.Element))
	case *ast.StructType:
		if st, ok := g.structs[v]; ok {
			return st
		}
		// registered before the members so a struct can point to itself
		st := types.NewStruct()
		g.structs[v] = st
		g.module.NewTypeDef(v.Name, st)
		for _, m := range v.Members {
			st.Fields = append(st.Fields, g.typ(m.Type))
		}
		return st
	}

	panic(errors.Unsupported{What: "type " + t.String()})
}

func intType(t types.Type) *types.IntType {
	return t.(*types.IntType)
}

func signed(t ast.Typ) bool {
	switch v := t.(type) {
	case ast.Integer:
		return v.Signed
	case *ast.EnumType:
		return v.Underlying.Signed
	case ast.UntypedInteger:
		return true
	}
	return false
}
