package lexer

import (
	"strings"
	"testing"

	"github.com/pontaoski/kestrel/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tok struct {
	kind  types.TokenKind
	value string
}

func lexAll(src string) ([]tok, *Lexer) {
	l := NewLexer(strings.NewReader(src), "test.ks")
	var ret []tok
	for _, t := range l.LexToEOF() {
		ret = append(ret, tok{t.Kind, t.Value})
	}
	return ret, l
}

func TestLexer(t *testing.T) {
	tokens, l := lexAll(`export int32 main() { return a <= 0x1F && b != 'c'; } // done`)
	require.Empty(t, l.Errors)

	assert.Equal(t, []tok{
		{types.KEYWORD, "export"},
		{types.IDENT, "int32"},
		{types.IDENT, "main"},
		{types.SYMBOL, "("},
		{types.SYMBOL, ")"},
		{types.SYMBOL, "{"},
		{types.KEYWORD, "return"},
		{types.IDENT, "a"},
		{types.SYMBOL, "<="},
		{types.INT, "0x1F"},
		{types.SYMBOL, "&&"},
		{types.IDENT, "b"},
		{types.SYMBOL, "!="},
		{types.CHAR, "c"},
		{types.SYMBOL, ";"},
		{types.SYMBOL, "}"},
		{types.EOF, ""},
	}, tokens)
}

func TestStringEscapes(t *testing.T) {
	tokens, l := lexAll(`"a\tb\n\"q\"\\\x41\0"`)
	require.Empty(t, l.Errors)
	require.Len(t, tokens, 2)
	assert.Equal(t, tok{types.STRING, "a\tb\n\"q\"\\A\x00"}, tokens[0])
}

func TestHighByteChar(t *testing.T) {
	tokens, l := lexAll(`'\xff' '\x41'`)
	require.Empty(t, l.Errors)
	require.Len(t, tokens, 3)
	assert.Equal(t, tok{types.CHAR, "\xff"}, tokens[0])
	assert.Equal(t, tok{types.CHAR, "A"}, tokens[1])
}

func TestBlockComments(t *testing.T) {
	tokens, l := lexAll("a /* x\ny */ b")
	require.Empty(t, l.Errors)
	assert.Equal(t, []tok{{types.IDENT, "a"}, {types.IDENT, "b"}, {types.EOF, ""}}, tokens)
}

func TestLexicalErrors(t *testing.T) {
	cases := []struct {
		name    string
		src     string
		message string
	}{
		{"UnknownCharacter", "a @ b", "unknown character '@'"},
		{"UnclosedString", `"abc`, "unclosed string literal"},
		{"BadEscape", `"\q"`, "bad escape sequence"},
		{"MalformedNumber", "12ab", "malformed number 12a"},
		{"LongChar", "'ab'", "char literal must contain exactly one character"},
		{"UnclosedComment", "/* never", "unclosed block comment"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, l := lexAll(c.src)
			require.Len(t, l.Errors, 1)
			assert.Equal(t, c.message, l.Errors[0].Error())
		})
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	l := NewLexer(strings.NewReader("a b c"), "test.ks")
	assert.Equal(t, "c", l.PeekN(2).Value)
	assert.Equal(t, "a", l.Peek().Value)
	assert.Equal(t, "a", l.Lex().Value)
	assert.Equal(t, "b", l.Lex().Value)
}

func TestLocations(t *testing.T) {
	l := NewLexer(strings.NewReader("a\n  bc"), "test.ks")
	l.Lex()
	bc := l.Lex()
	assert.Equal(t, 2, bc.Location.From.Line)
	assert.Equal(t, 3, bc.Location.From.Column)
	assert.Equal(t, 4, bc.Location.To.Column)
	assert.Equal(t, "test.ks", bc.Location.From.Filename)
}
