package parser

import (
	"fmt"

	"github.com/pontaoski/kestrel/errors"
	"github.com/pontaoski/kestrel/types"
)

// TokenSource is a lazy token sequence. *lexer.Lexer implements it, and so
// does a captured token slice.
type TokenSource interface {
	Lex() types.Token
	Peek() types.Token
	PeekN(n int) types.Token
}

// Tokens replays a captured slice. Reading past the end keeps returning an
// EOF token located after the last real one.
type Tokens struct {
	list []types.Token
	pos  int
	eof  types.Token
}

func NewTokens(list []types.Token) *Tokens {
	eof := types.Token{Kind: types.EOF}
	if len(list) > 0 {
		last := list[len(list)-1]
		eof.Location = types.SingleCharSpan(last.Location.To)
		if last.Kind == types.EOF {
			list = list[:len(list)-1]
		}
	}
	return &Tokens{list: list, eof: eof}
}

func (t *Tokens) PeekN(n int) types.Token {
	if t.pos+n >= len(t.list) {
		return t.eof
	}
	return t.list[t.pos+n]
}

func (t *Tokens) Peek() types.Token {
	return t.PeekN(0)
}

func (t *Tokens) Lex() types.Token {
	tok := t.Peek()
	if t.pos < len(t.list) {
		t.pos++
	}
	return tok
}

// stream adds the expect helpers shared by the declaration collector and
// the body parser. The expect helpers panic, the panics are recovered at
// statement and declaration boundaries.
type stream struct {
	TokenSource
}

func (s stream) PeekIs(values ...string) bool {
	tok := s.Peek()
	for _, v := range values {
		if tok.Is(v) {
			return true
		}
	}
	return false
}

func (s stream) AtEOF() bool {
	return s.Peek().Kind == types.EOF
}

func (s stream) Expect(value string) types.Token {
	tok := s.Lex()
	if tok.Is(value) {
		return tok
	}
	s.fail(tok, fmt.Sprintf("'%s'", value))
	return tok
}

func (s stream) ExpectKind(kind types.TokenKind) types.Token {
	tok := s.Lex()
	if tok.Kind == kind {
		return tok
	}
	s.fail(tok, kind.String())
	return tok
}

func (s stream) fail(got types.Token, expected string) {
	if got.Kind == types.EOF {
		panic(errors.UnexpectedEOF{Expected: expected, Location: got.Location})
	}
	panic(errors.UnexpectedToken{Expected: []string{expected}, Got: got})
}

// Capture reads a balanced {...} group, the opening brace included. The
// returned slice ends with an EOF token.
func (s stream) Capture() []types.Token {
	open := s.Expect("{")
	list := []types.Token{open}
	depth := 1
	for depth > 0 {
		tok := s.Lex()
		if tok.Kind == types.EOF {
			panic(errors.UnmatchedBracket{Bracket: "{", Location: open.Location})
		}
		switch {
		case tok.Is("{"):
			depth++
		case tok.Is("}"):
			depth--
		}
		list = append(list, tok)
	}
	return append(list, types.Token{Kind: types.EOF, Location: types.SingleCharSpan(list[len(list)-1].Location.To)})
}

// Synchronize skips to the end of the current statement: past the next ';'
// on this nesting level, or up to a '}' that closes the enclosing group.
func (s stream) Synchronize() {
	depth := 0
	for {
		tok := s.Peek()
		switch {
		case tok.Kind == types.EOF:
			return
		case tok.Is("}") && depth == 0:
			return
		}

		s.Lex()
		switch {
		case tok.Is("{"):
			depth++
		case tok.Is("}"):
			depth--
			if depth == 0 {
				return
			}
		case tok.Is(";") && depth == 0:
			return
		}
	}
}
