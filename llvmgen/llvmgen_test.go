package llvmgen

import (
	"strings"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/pontaoski/kestrel/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generate(t *testing.T, src string) (*ir.Module, string) {
	t.Helper()
	prog := parser.Parse([]parser.SourceFile{{Name: "test.ks", Reader: strings.NewReader(src)}})
	require.False(t, prog.Failed(), "%v", prog.Diagnostics.All())

	m, err := Generate(prog)
	require.NoError(t, err)
	return m, m.String()
}

func funcNamed(t *testing.T, m *ir.Module, name string) *ir.Func {
	t.Helper()
	for _, f := range m.Funcs {
		if f.Name() == name {
			return f
		}
	}
	t.Fatalf("no function %s", name)
	return nil
}

func TestFunctionsAndLinkage(t *testing.T) {
	m, text := generate(t, `
external int32 puts(char* s);
int add(int a, int b) { return a + b; }
export int main() { puts("hi"); return add(2, 3); }
`)

	assert.Empty(t, funcNamed(t, m, "puts").Blocks)
	assert.Equal(t, enum.LinkageInternal, funcNamed(t, m, "add").Linkage)
	assert.Equal(t, enum.LinkageNone, funcNamed(t, m, "main").Linkage)

	assert.Contains(t, text, "add i32")
	assert.Contains(t, text, "call i32 @add(")
	assert.Contains(t, text, "@__kestrel_types = constant")
}

func TestComparisonsFollowSignedness(t *testing.T) {
	_, text := generate(t, `
bool lt(int32 a, int32 b) { return a < b; }
bool ult(uint32 a, uint32 b) { return a < b; }
uint32 widen(uint8 x) { return x; }
int64 swiden(int8 x) { return x; }
`)
	assert.Contains(t, text, "icmp slt i32")
	assert.Contains(t, text, "icmp ult i32")
	assert.Contains(t, text, "zext i8")
	assert.Contains(t, text, "sext i8")
}

func TestStructsAndArrays(t *testing.T) {
	_, text := generate(t, `
struct Point { int32 x; int32 y; Point* next; }
int32 main() { Point p; p.y = 7; int64 a[4]; a[2] = 5; return p.y; }
`)
	assert.Contains(t, text, "%Point = type { i32, i32, %Point* }")
	assert.Contains(t, text, "getelementptr %Point")
	assert.Contains(t, text, "getelementptr [4 x i64]")
}

func TestControlFlow(t *testing.T) {
	_, text := generate(t, `
int64 count(int64 n) {
	int64 i = 0;
	while (i < n) { i++; }
	if (i == n && n > 0) { return i; } else { return 0; }
}
`)
	assert.Contains(t, text, "while.cond.")
	assert.Contains(t, text, "if.then.")
	assert.Contains(t, text, "phi i1")
}

func TestGlobals(t *testing.T) {
	m, _ := generate(t, `
export int64 counter;
namespace ns { uint8 flag; }
int64 bump() { counter = counter + 1; return counter; }
`)

	names := map[string]enum.Linkage{}
	for _, g := range m.Globals {
		names[g.Name()] = g.Linkage
	}
	assert.Equal(t, enum.LinkageNone, names["counter"])
	assert.Equal(t, enum.LinkageInternal, names["ns.flag"])
	assert.Contains(t, names, "__kestrel_types")
}

func TestMissingBody(t *testing.T) {
	prog := parser.Parse([]parser.SourceFile{{Name: "test.ks", Reader: strings.NewReader(`int32 f();`)}})
	_, err := Generate(prog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "function f has no body")
}
