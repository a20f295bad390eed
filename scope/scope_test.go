package scope

import (
	"testing"

	"github.com/pontaoski/kestrel/ast"
	"github.com/pontaoski/kestrel/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func variable(name string, typ ast.Typ) *ast.Variable {
	return &ast.Variable{DefBase: ast.DefBase{Name: name}, Type: typ}
}

func TestAppendRejectsDuplicates(t *testing.T) {
	table := NewTable()
	file := table.NewFile("a.ks")

	assert.True(t, table.Append(file, variable("x", ast.Int32)))
	assert.False(t, table.Append(file, variable("x", ast.Int64)))

	def, err := table.Lookup(file, "x")
	require.NoError(t, err)
	assert.Equal(t, ast.Int32, def.(*ast.Variable).Type)
}

func TestLookupWalksParents(t *testing.T) {
	table := NewTable()
	file := table.NewFile("a.ks")
	outer := table.New(Block, file, nil)
	inner := table.New(Block, outer, nil)

	table.Append(file, variable("g", ast.Int64))
	table.Append(outer, variable("x", ast.Int32))

	def, err := table.Lookup(inner, "x")
	require.NoError(t, err)
	assert.Equal(t, "x", def.Base().Name)

	def, err = table.Lookup(inner, "g")
	require.NoError(t, err)
	assert.Equal(t, "g", def.Base().Name)

	def, err = table.Lookup(inner, "int32")
	require.NoError(t, err)
	assert.True(t, def.(*ast.Struct).Builtin)

	def, err = table.Lookup(outer, "missing")
	assert.NoError(t, err)
	assert.Nil(t, def)
}

func TestLookupSiblingFiles(t *testing.T) {
	table := NewTable()
	a := table.NewFile("a.ks")
	b := table.NewFile("b.ks")
	c := table.NewFile("c.ks")

	nsScope := table.New(Namespace, b, nil)
	table.Append(b, variable("onlyB", ast.Int64))
	table.Append(nsScope, variable("nested", ast.Int64))

	def, err := table.Lookup(a, "onlyB")
	require.NoError(t, err)
	require.NotNil(t, def)

	// nested scopes of other files are never searched
	def, err = table.Lookup(a, "nested")
	require.NoError(t, err)
	assert.Nil(t, def)

	t.Run("Ambiguous", func(t *testing.T) {
		table.Append(b, variable("twice", ast.Int64))
		table.Append(c, variable("twice", ast.Int64))

		_, err := table.Lookup(a, "twice")
		var amb errors.AmbiguousName
		require.ErrorAs(t, err, &amb)
		assert.Equal(t, []string{"b.ks", "c.ks"}, amb.Files)

		// a file's own definition wins over its siblings
		table.Append(a, variable("twice", ast.Int32))
		def, err := table.Lookup(a, "twice")
		require.NoError(t, err)
		assert.Equal(t, ast.Int32, def.(*ast.Variable).Type)
	})

	t.Run("OnlyAtTopLevel", func(t *testing.T) {
		block := table.New(Block, a, nil)
		def, err := table.Lookup(block, "onlyB")
		require.NoError(t, err)
		assert.NotNil(t, def, "a nested scope reaches siblings through its file scope")

		ns := table.New(Namespace, a, nil)
		table.Append(ns, variable("local", ast.Int8))
		def, err = table.Lookup(c, "local")
		require.NoError(t, err)
		assert.Nil(t, def)
	})
}

func TestLookupType(t *testing.T) {
	table := NewTable()
	file := table.NewFile("a.ks")
	point := &ast.StructType{Name: "Point"}
	table.Append(file, &ast.Struct{DefBase: ast.DefBase{Name: "Point"}, Type: point, Scope: ast.NoScope})

	typ, err := table.LookupType(file, "char**")
	require.NoError(t, err)
	assert.True(t, ast.Equal(ast.Pointer{To: ast.Pointer{To: ast.Char{}}}, typ))

	typ, err = table.LookupType(file, "Point*")
	require.NoError(t, err)
	assert.True(t, ast.Equal(ast.Pointer{To: point}, typ))

	table.Append(file, variable("notAType", ast.Int8))
	_, err = table.LookupType(file, "notAType")
	assert.Error(t, err)
}

func TestImportAlias(t *testing.T) {
	table := NewTable()
	a := table.NewFile("a.ks")
	b := table.NewFile("b.ks")

	ns := &ast.Namespace{DefBase: ast.DefBase{Name: "math"}}
	table.Append(b, ns)
	ns.Scope = table.New(Namespace, b, ns)
	table.Append(ns.Scope, variable("pi", ast.Int64))

	table.Append(a, &ast.ImportAlias{DefBase: ast.DefBase{Name: "m"}, Target: []string{"math"}})

	def, err := table.LookupPath(a, []string{"m", "pi"})
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, "pi", def.Base().Name)

	table.Append(a, &ast.ImportAlias{DefBase: ast.DefBase{Name: "loop"}, Target: []string{"loop"}})
	def, err = table.Lookup(a, "loop")
	assert.NoError(t, err)
	assert.Nil(t, def)
}

func TestBlockSizeIsCumulative(t *testing.T) {
	table := NewTable()
	file := table.NewFile("a.ks")
	fn := &ast.Function{DefBase: ast.DefBase{Name: "f"}}
	fn.Scope = table.New(Arguments, file, fn)
	for _, name := range []string{"a", "b"} {
		arg := variable(name, ast.Int32)
		table.Append(fn.Scope, arg)
		fn.Arguments = append(fn.Arguments, arg)
	}
	table.AssignArguments(fn)
	assert.Equal(t, 16, table.Size(fn.Scope))

	body := table.New(Block, fn.Scope, nil)
	x := variable("x", ast.Int32)
	y := variable("y", ast.Int64)
	table.Append(body, x)
	table.Append(body, y)
	assert.Equal(t, -24, x.Storage.Offset)
	assert.Equal(t, -32, y.Storage.Offset)
	assert.Equal(t, 32, table.Size(body))

	nested := table.New(Block, body, nil)
	z := variable("z", ast.Int8)
	table.Append(nested, z)
	assert.Equal(t, -40, z.Storage.Offset)
	assert.Equal(t, 40, table.Size(nested))
	assert.Greater(t, table.Size(nested), table.Size(body))

	assert.True(t, table.Shadows(nested, "x"))
	assert.True(t, table.Shadows(nested, "a"))
	assert.False(t, table.Shadows(nested, "z"))
}

func TestClassify(t *testing.T) {
	t.Run("EightIntegers", func(t *testing.T) {
		var args []ast.Typ
		for i := 0; i < 8; i++ {
			args = append(args, ast.Int64)
		}
		placements := Classify(args)
		for i := 0; i < 6; i++ {
			assert.Equal(t, []string{IntegerRegisters[i]}, placements[i].Registers)
		}
		assert.Equal(t, 0, placements[6].StackOffset)
		assert.Equal(t, 8, placements[7].StackOffset)
		assert.Equal(t, 16, StackBytes(placements))
	})

	t.Run("SevenIntegers", func(t *testing.T) {
		var args []ast.Typ
		for i := 0; i < 7; i++ {
			args = append(args, ast.Int32)
		}
		assert.Equal(t, 8, StackBytes(Classify(args)))
	})

	t.Run("Mixed", func(t *testing.T) {
		big := &ast.StructType{Name: "Big", Members: []ast.Member{
			{Name: "a", Type: ast.Int64}, {Name: "b", Type: ast.Int64}, {Name: "c", Type: ast.Int64},
		}}
		pair := &ast.StructType{Name: "Pair", Members: []ast.Member{
			{Name: "a", Type: ast.Int64}, {Name: "b", Type: ast.Int64},
		}}
		placements := Classify([]ast.Typ{ast.FloatingPoint{Bytes: 8}, big, pair, ast.Pointer{To: ast.Char{}}})

		assert.Equal(t, ClassSSE, placements[0].Class)
		assert.Equal(t, []string{"xmm0"}, placements[0].Registers)
		assert.Equal(t, ClassMemory, placements[1].Class)
		assert.Equal(t, 0, placements[1].StackOffset)
		assert.Equal(t, []string{"rdi", "rsi"}, placements[2].Registers)
		assert.Equal(t, []string{"rdx"}, placements[3].Registers)
		assert.Equal(t, 24, StackBytes(placements))
	})
}

func TestAssignArgumentsStack(t *testing.T) {
	table := NewTable()
	file := table.NewFile("a.ks")
	fn := &ast.Function{DefBase: ast.DefBase{Name: "many"}}
	fn.Scope = table.New(Arguments, file, fn)
	for i := 0; i < 8; i++ {
		arg := variable(string(rune('a'+i)), ast.Int64)
		table.Append(fn.Scope, arg)
		fn.Arguments = append(fn.Arguments, arg)
	}
	table.AssignArguments(fn)

	assert.Equal(t, ast.Storage{Kind: ast.RegisterArgument, Register: "rdi", Offset: -8}, fn.Arguments[0].Storage)
	assert.Equal(t, ast.Storage{Kind: ast.RegisterArgument, Register: "r9", Offset: -48}, fn.Arguments[5].Storage)
	assert.Equal(t, ast.Storage{Kind: ast.StackArgument, Offset: 16}, fn.Arguments[6].Storage)
	assert.Equal(t, ast.Storage{Kind: ast.StackArgument, Offset: 24}, fn.Arguments[7].Storage)
	assert.Equal(t, 48, table.Size(fn.Scope))
}

func TestQualify(t *testing.T) {
	table := NewTable()
	file := table.NewFile("a.ks")
	outer := &ast.Namespace{DefBase: ast.DefBase{Name: "math"}}
	outer.Scope = table.New(Namespace, file, outer)
	inner := &ast.Namespace{DefBase: ast.DefBase{Name: "vec"}}
	inner.Scope = table.New(Namespace, outer.Scope, inner)

	assert.Equal(t, "x", table.Qualify(file, "x"))
	assert.Equal(t, "math.x", table.Qualify(outer.Scope, "x"))
	assert.Equal(t, "math.vec.x", table.Qualify(inner.Scope, "x"))
}
