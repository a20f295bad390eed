package typeinfo

import (
	"testing"

	"github.com/pontaoski/kestrel/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFunctions(t *testing.T) {
	add := &ast.Function{
		DefBase:   ast.DefBase{Name: "add", Modifiers: ast.Export},
		FullName:  "math.add",
		Returns:   ast.Int32,
		Arguments: []*ast.Variable{{Type: ast.Int32}, {Type: ast.Int32}},
	}
	hidden := &ast.Function{
		DefBase:  ast.DefBase{Name: "hidden"},
		FullName: "hidden",
		Returns:  ast.Void{},
	}

	info := FromFunctions([]*ast.Function{add, hidden})
	assert.Equal(t, map[string]string{"math.add": "int32(int32, int32)"}, info.Functions)
	assert.Equal(t, []string{"math.add"}, info.Names())

	back, err := Unmarshal(info.Marshal())
	require.NoError(t, err)
	assert.Equal(t, info, back)
}
