package codegen

import (
	"strings"
	"testing"

	"github.com/pontaoski/kestrel/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, opts Options, src string) string {
	t.Helper()
	prog := parser.Parse([]parser.SourceFile{{Name: "test.ks", Reader: strings.NewReader(src)}})
	var msgs []string
	for _, d := range prog.Diagnostics.All() {
		msgs = append(msgs, d.String())
	}
	require.False(t, prog.Failed(), "%v", msgs)

	out, err := Generate(prog, opts)
	require.NoError(t, err)
	return out
}

func before(t *testing.T, out, first, second string) {
	t.Helper()
	i, j := strings.Index(out, first), strings.Index(out, second)
	require.NotEqual(t, -1, i, "missing %q", first)
	require.NotEqual(t, -1, j, "missing %q", second)
	assert.Less(t, i, j, "%q should come before %q", first, second)
}

func TestAddAndMain(t *testing.T) {
	out := compile(t, Options{}, `
int add(int a, int b) { return a + b; }
export int main() { return add(2, 3); }
`)

	assert.True(t, strings.HasPrefix(out, "format ELF64\nsection '.text' executable\n"))
	assert.Contains(t, out, "public main\n")
	assert.NotContains(t, out, "public add\n")
	assert.Contains(t, out, "\nadd:\n    push rbp\n    mov rbp, rsp\n")
	assert.Contains(t, out, "mov qword [rbp-8], rdi")
	assert.Contains(t, out, "mov qword [rbp-16], rsi")
	assert.Contains(t, out, "call add\n")
	assert.Contains(t, out, ".return:\n    mov rsp, rbp\n    pop rbp\n    ret\n")
	assert.NotContains(t, out, "sub rsp, 8\n")
	before(t, out, "pop rdi", "pop rsi")
}

func TestEightArguments(t *testing.T) {
	out := compile(t, Options{}, `
external int64 take(int64 a, int64 b, int64 c, int64 d, int64 e, int64 f, int64 g, int64 h);
void main() { take(1, 2, 3, 4, 5, 6, 7, 8); }
`)

	assert.NotContains(t, out, "sub rsp, 8\n")
	assert.Contains(t, out, "add rsp, 16\n")
	assert.Equal(t, 8, strings.Count(out, "push rax"))
	for _, reg := range []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"} {
		assert.Contains(t, out, "pop "+reg+"\n")
	}
	// stack arguments go first, the last one deepest
	before(t, out, "mov rax, 8", "mov rax, 7")
	before(t, out, "mov rax, 7", "mov rax, 6")
	before(t, out, "mov rax, 2", "mov rax, 1")
}

func TestSevenArgumentsArePadded(t *testing.T) {
	out := compile(t, Options{}, `
external int64 take(int64 a, int64 b, int64 c, int64 d, int64 e, int64 f, int64 g);
void main() { take(1, 2, 3, 4, 5, 6, 7); }
`)

	assert.Contains(t, out, "add rsp, 16\n")
	before(t, out, "sub rsp, 8\n", "mov rax, 7")
}

func TestExternalFunction(t *testing.T) {
	src := `
external int32 puts(char* s);
export int32 main() { puts("hi\n"); puts("hi\n"); return 0; }
`
	out := compile(t, Options{}, src)
	assert.Contains(t, out, "extrn puts\n")
	assert.NotContains(t, out, "puts:")
	assert.Contains(t, out, "call puts\n")
	assert.Contains(t, out, `str0 db "hi", 10, 0`)
	assert.NotContains(t, out, "str1")

	lib := compile(t, Options{Library: true}, src)
	assert.Contains(t, lib, "call PLT puts\n")
}

func TestBlockAllocation(t *testing.T) {
	out := compile(t, Options{}, `int32 main() { char buf[20]; return 0; }`)
	assert.Contains(t, out, "sub rsp, 32\n")
	assert.Contains(t, out, "add rsp, 32\n")

	out = compile(t, Options{}, `void main() { }`)
	assert.NotContains(t, out, "sub rsp")
}

func TestMembersAndElements(t *testing.T) {
	out := compile(t, Options{}, `
struct Point { int32 x; int32 y; }
int32 main() { Point p; p.y = 7; int64 a[4]; a[2] = 5; return p.y; }
`)

	assert.Contains(t, out, "add rax, 4\n")
	assert.Contains(t, out, "mov dword [rdi], eax")
	assert.Contains(t, out, "imul rax, rax, 8\n")
	assert.Contains(t, out, "mov qword [rdi], rax")
}

func TestComparisonsFollowSignedness(t *testing.T) {
	out := compile(t, Options{}, `
bool lt(int32 a, int32 b) { return a < b; }
bool ult(uint32 a, uint32 b) { return a < b; }
`)
	assert.Contains(t, out, "setl al")
	assert.Contains(t, out, "setb al")
	assert.Contains(t, out, "mov eax, dword [rax]")
}

func TestControlFlow(t *testing.T) {
	out := compile(t, Options{}, `
int64 count(int64 n) {
	int64 i = 0;
	while (i < n) { i++; }
	if (i == n && n > 0) { return i; } else { return 0; }
}
`)
	assert.Contains(t, out, ".Lbegin1:\n")
	assert.Contains(t, out, "jmp .Lbegin1\n")
	assert.Contains(t, out, ".Lfalse3:\n")
	assert.Contains(t, out, "je .Lelse2\n")
	assert.Contains(t, out, "jmp .return\n")
}

func TestGlobals(t *testing.T) {
	out := compile(t, Options{}, `
export int64 counter;
int16 small;
namespace ns { uint8 flag; }
external int32 errno;
int64 bump() { counter = counter + 1; return counter; }
`)
	assert.Contains(t, out, "public counter\ncounter dq 0\n")
	assert.Contains(t, out, "small dw 0\n")
	assert.Contains(t, out, "ns.flag db 0\n")
	assert.Contains(t, out, "extrn errno\n")
	assert.Contains(t, out, "lea rax, [counter]")
}

func TestTypeInfoIsEmbedded(t *testing.T) {
	out := compile(t, Options{}, `export int64 id(int64 x) { return x; }`)
	assert.Contains(t, out, "public __kestrel_types\n")
	assert.Contains(t, out, `__kestrel_types db "{", 34, "functions", 34, ":{", 34, "id", 34, ":", 34, "int64(int64)", 34, "}}", 0`)
}

func TestMissingBodyIsFatal(t *testing.T) {
	prog := parser.Parse([]parser.SourceFile{{Name: "test.ks", Reader: strings.NewReader(`
int32 f();
int32 main() { return f(); }
`)}})
	require.False(t, prog.Failed())

	_, err := Generate(prog, Options{})
	require.Error(t, err)
	var fatal Fatal
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, "function f has no body", fatal.Message)
}

func TestWideReturnsAreFatal(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
	}{
		{"ExternalCall", `
struct Big { int64 a; int64 b; int64 c; }
external Big make();
export int32 main() { make(); return 0; }
`},
		{"LocalByValue", `
struct Big { int64 a; int64 b; int64 c; }
Big make() { Big b; return b; }
`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			prog := parser.Parse([]parser.SourceFile{{Name: "test.ks", Reader: strings.NewReader(tc.src)}})
			require.False(t, prog.Failed(), "%v", prog.Diagnostics.All())

			_, err := Generate(prog, Options{})
			require.Error(t, err)
			var fatal Fatal
			require.ErrorAs(t, err, &fatal)
			assert.Equal(t, "values of type Big (24 bytes) cannot be returned", fatal.Message)
		})
	}
}

func TestBytes(t *testing.T) {
	assert.Equal(t, "0", Bytes(""))
	assert.Equal(t, `"hi", 10, 0`, Bytes("hi\n"))
	assert.Equal(t, `"a", 34, "b", 92, 0`, Bytes(`a"b\`))
	assert.Equal(t, `9, "x", 0`, Bytes("\tx"))
}

func TestPool(t *testing.T) {
	p := NewPool()
	assert.Equal(t, 0, p.Add("a"))
	assert.Equal(t, 1, p.Add("b"))
	assert.Equal(t, 0, p.Add("a"))
	assert.Equal(t, 2, p.Len())

	var w strings.Builder
	p.Emit(&w)
	assert.Equal(t, "str0 db \"a\", 0\nstr1 db \"b\", 0\n", w.String())
}
