package parser

import (
	"strings"

	"github.com/pontaoski/kestrel/ast"
	"github.com/pontaoski/kestrel/errors"
	"github.com/pontaoski/kestrel/types"
)

// Resolve turns the type names recorded by Declare into types. It must run
// after every file has been declared.
func (prog *Program) Resolve() {
	for _, def := range prog.Structs {
		prog.resolveStruct(def)
	}
	for _, def := range prog.Structs {
		st := def.Type.(*ast.StructType)
		if prog.containsItself(st, st, map[*ast.StructType]bool{}) {
			prog.Diagnostics.Errorf(def.Location, "struct %s contains itself", def.Name)
			st.Members = nil
		}
	}
	for _, def := range prog.Structs {
		def.Type.(*ast.StructType).Layout()
	}

	for _, def := range prog.Enums {
		prog.resolveEnum(def)
	}

	for _, alias := range prog.Aliases {
		target, err := prog.Table.Lookup(alias.Parent, alias.Name)
		if err != nil {
			prog.Diagnostics.Report(locate(err, alias.Location))
			continue
		}
		if target == nil {
			prog.Diagnostics.Report(errors.UnresolvedName{Name: strings.Join(alias.Target, "."), What: "import", Location: alias.Location})
		}
	}

	for _, fn := range prog.Functions {
		prog.resolveSignature(fn)
	}

	for _, v := range prog.Globals {
		v.Type = prog.resolveVariableType(v.Parent, v.TypeName, v.Count, v.Location)
	}
}

func (prog *Program) resolveStruct(def *ast.Struct) {
	st := def.Type.(*ast.StructType)
	for _, field := range def.Fields {
		typ := prog.resolveVariableType(def.Scope, field.TypeName, field.Count, field.Location)
		st.Members = append(st.Members, ast.Member{Name: field.Name, Type: typ})
	}
}

// containsItself reports whether target is reachable from st through
// members stored by value.
func (prog *Program) containsItself(st, target *ast.StructType, seen map[*ast.StructType]bool) bool {
	if seen[st] {
		return false
	}
	seen[st] = true

	for _, m := range st.Members {
		typ := m.Type
		if arr, ok := typ.(ast.SizedArray); ok {
			typ = arr.Element
		}
		inner, ok := typ.(*ast.StructType)
		if !ok {
			continue
		}
		if inner == target || prog.containsItself(inner, target, seen) {
			return true
		}
	}
	return false
}

func (prog *Program) resolveEnum(def *ast.Enum) {
	def.Type.Underlying = ast.Int32

	typ, err := prog.Table.LookupType(def.Parent, def.UnderlyingName)
	if err != nil {
		prog.Diagnostics.Report(locate(err, def.Location))
		return
	}
	underlying, ok := typ.(ast.Integer)
	if !ok {
		prog.Diagnostics.Report(errors.TypeMismatch{
			Expected: "an integer type",
			Got:      typ.String(),
			Context:  "underlying type of " + def.Name,
			Location: def.Location,
		})
		return
	}
	def.Type.Underlying = underlying

	for _, m := range def.Type.Members {
		if !ast.Fits(m.Value, underlying) {
			prog.Diagnostics.Errorf(def.Location, "value %d of %s.%s does not fit in %s", m.Value, def.Name, m.Name, underlying)
		}
	}
}

func (prog *Program) resolveSignature(fn *ast.Function) {
	fn.Returns = ast.Void{}
	typ, err := prog.Table.LookupType(fn.Parent, fn.ReturnTypeName)
	if err != nil {
		prog.Diagnostics.Report(locate(err, fn.Location))
		prog.brokenSignature[fn] = true
	} else {
		fn.Returns = typ
	}

	for _, arg := range fn.Arguments {
		typ, err := prog.Table.LookupType(fn.Parent, arg.TypeName)
		switch {
		case err != nil:
			prog.Diagnostics.Report(locate(err, arg.Location))
			prog.brokenSignature[fn] = true
			typ = ast.Int64
		case ast.IsVoid(typ):
			prog.Diagnostics.Errorf(arg.Location, "argument %s cannot have type void", arg.Name)
			typ = ast.Int64
		}
		arg.Type = typ
	}

	prog.Table.AssignArguments(fn)
}

func (prog *Program) resolveVariableType(id ast.ScopeID, name string, count int, loc types.Span) ast.Typ {
	typ, err := prog.Table.LookupType(id, name)
	if err != nil {
		prog.Diagnostics.Report(locate(err, loc))
		return ast.Int64
	}
	if ast.IsVoid(typ) {
		prog.Diagnostics.Errorf(loc, "variable cannot have type void")
		return ast.Int64
	}
	if count > 0 {
		typ = ast.SizedArray{Element: typ, Count: count}
	}
	return typ
}
