package lexer

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/pontaoski/kestrel/errors"
	"github.com/pontaoski/kestrel/types"
)

var keywords = map[string]bool{
	"namespace": true,
	"struct":    true,
	"enum":      true,
	"import":    true,
	"external":  true,
	"export":    true,
	"return":    true,
	"if":        true,
	"else":      true,
	"while":     true,
	"true":      true,
	"false":     true,
}

// two character symbols are matched before single ones
var symbols2 = []string{"==", "!=", "<=", ">=", "<<", ">>", "&&", "||", "++"}

const symbols1 = "+-*/%&|^!=<>(){}[],;.:"

// Lexer produces tokens lazily from a reader. Lexical errors do not stop
// the lexer, they produce an UNKNOWN token and are collected in Errors.
type Lexer struct {
	pos    types.Position
	reader *bufio.Reader
	peeked []types.Token
	Errors []error
}

func NewLexer(reader io.Reader, filename string) *Lexer {
	return &Lexer{
		pos:    types.Position{Line: 1, Column: 0, Filename: filename},
		reader: bufio.NewReader(reader),
	}
}

func (l *Lexer) read() (rune, bool) {
	r, _, err := l.reader.ReadRune()
	if err != nil {
		if err == io.EOF {
			return 0, false
		}
		panic(err)
	}

	if r == '\n' {
		l.pos.Line++
		l.pos.Column = 0
	} else {
		l.pos.Column++
	}
	return r, true
}

func (l *Lexer) peekRune() (rune, bool) {
	r, _, err := l.reader.ReadRune()
	if err != nil {
		if err == io.EOF {
			return 0, false
		}
		panic(err)
	}
	if err := l.reader.UnreadRune(); err != nil {
		panic(err)
	}
	return r, true
}

func (l *Lexer) peekIs(r rune) bool {
	next, ok := l.peekRune()
	return ok && next == r
}

func (l *Lexer) fail(from types.Position, msg string) {
	l.Errors = append(l.Errors, errors.LexicalError{
		Message:  msg,
		Location: types.Span{From: from, To: l.pos},
	})
}

func identStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func identChar(r rune) bool {
	return identStart(r) || unicode.IsDigit(r)
}

// skip eats whitespace and comments.
func (l *Lexer) skip() {
	for {
		r, ok := l.peekRune()
		if !ok {
			return
		}

		switch {
		case unicode.IsSpace(r):
			l.read()
		case r == '/':
			byt, err := l.reader.Peek(2)
			if err != nil && err != io.EOF {
				panic(err)
			}
			if len(byt) < 2 {
				return
			}
			switch byt[1] {
			case '/':
				for {
					r, ok := l.read()
					if !ok || r == '\n' {
						break
					}
				}
			case '*':
				l.read()
				l.read()
				from := l.pos
				closed := false
				for !closed {
					r, ok := l.read()
					if !ok {
						l.fail(from, "unclosed block comment")
						return
					}
					if r == '*' && l.peekIs('/') {
						l.read()
						closed = true
					}
				}
			default:
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) Peek() types.Token {
	return l.PeekN(0)
}

// PeekN returns the token n positions ahead without consuming anything.
func (l *Lexer) PeekN(n int) types.Token {
	for len(l.peeked) <= n {
		l.peeked = append(l.peeked, l.lex())
	}
	return l.peeked[n]
}

func (l *Lexer) Lex() types.Token {
	if len(l.peeked) > 0 {
		t := l.peeked[0]
		l.peeked = l.peeked[1:]
		return t
	}
	return l.lex()
}

func (l *Lexer) lex() types.Token {
	l.skip()

	r, ok := l.read()
	if !ok {
		return types.Token{Kind: types.EOF, Location: types.SingleCharSpan(l.pos)}
	}
	from := l.pos

	tok := func(kind types.TokenKind, value string) types.Token {
		return types.Token{Kind: kind, Value: value, Location: types.Span{From: from, To: l.pos}}
	}

	switch {
	case identStart(r):
		var sb strings.Builder
		sb.WriteRune(r)
		for {
			next, ok := l.peekRune()
			if !ok || !identChar(next) {
				break
			}
			l.read()
			sb.WriteRune(next)
		}
		lit := sb.String()
		if keywords[lit] {
			return tok(types.KEYWORD, lit)
		}
		return tok(types.IDENT, lit)
	case unicode.IsDigit(r):
		var sb strings.Builder
		sb.WriteRune(r)
		hex := false
		if r == '0' && (l.peekIs('x') || l.peekIs('X')) {
			x, _ := l.read()
			sb.WriteRune(x)
			hex = true
		}
		for {
			next, ok := l.peekRune()
			if !ok {
				break
			}
			if unicode.IsDigit(next) || (hex && strings.ContainsRune("abcdefABCDEF", next)) {
				l.read()
				sb.WriteRune(next)
				continue
			}
			if identChar(next) {
				l.read()
				sb.WriteRune(next)
				l.fail(from, "malformed number "+sb.String())
				return tok(types.UNKNOWN, sb.String())
			}
			break
		}
		return tok(types.INT, sb.String())
	case r == '"':
		return l.lexQuoted(from, '"', types.STRING)
	case r == '\'':
		t := l.lexQuoted(from, '\'', types.CHAR)
		// chars are single bytes, \xNN escapes above 0x7f included
		if t.Kind == types.CHAR && len(t.Value) != 1 {
			l.fail(from, "char literal must contain exactly one character")
			t.Kind = types.UNKNOWN
		}
		return t
	}

	for _, sym := range symbols2 {
		if rune(sym[0]) == r && l.peekIs(rune(sym[1])) {
			l.read()
			return tok(types.SYMBOL, sym)
		}
	}
	if strings.ContainsRune(symbols1, r) {
		return tok(types.SYMBOL, string(r))
	}

	l.fail(from, "unknown character "+strconv.QuoteRune(r))
	return tok(types.UNKNOWN, string(r))
}

func (l *Lexer) lexQuoted(from types.Position, quote rune, kind types.TokenKind) types.Token {
	var sb strings.Builder
	for {
		r, ok := l.read()
		if !ok || r == '\n' {
			l.fail(from, "unclosed "+kind.String())
			return types.Token{Kind: types.UNKNOWN, Value: sb.String(), Location: types.Span{From: from, To: l.pos}}
		}
		if r == quote {
			break
		}
		if r == '\\' {
			esc, good := l.escape()
			if !good {
				l.fail(from, "bad escape sequence")
			}
			sb.WriteString(esc)
			continue
		}
		sb.WriteRune(r)
	}
	return types.Token{Kind: kind, Value: sb.String(), Location: types.Span{From: from, To: l.pos}}
}

func (l *Lexer) escape() (string, bool) {
	r, ok := l.read()
	if !ok {
		return "", false
	}
	switch r {
	case 'n':
		return "\n", true
	case 't':
		return "\t", true
	case 'r':
		return "\r", true
	case '0':
		return "\x00", true
	case '\\', '\'', '"':
		return string(r), true
	case 'x':
		var digits string
		for i := 0; i < 2; i++ {
			d, ok := l.peekRune()
			if !ok || !strings.ContainsRune("0123456789abcdefABCDEF", d) {
				return "", false
			}
			l.read()
			digits += string(d)
		}
		v, _ := strconv.ParseUint(digits, 16, 8)
		return string([]byte{byte(v)}), true
	}
	return string(r), false
}

// LexToEOF drains the lexer, the EOF token is included as the last element.
func (l *Lexer) LexToEOF() (ret []types.Token) {
	t := l.Lex()
	for t.Kind != types.EOF {
		ret = append(ret, t)
		t = l.Lex()
	}
	return append(ret, t)
}
