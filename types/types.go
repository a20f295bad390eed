package types

import (
	"fmt"
)

type Position struct {
	Line     int
	Column   int
	Filename string
}

type Span struct {
	From Position
	To   Position
}

type TokenKind int

const (
	EOF TokenKind = iota
	UNKNOWN

	IDENT
	KEYWORD
	SYMBOL

	INT
	STRING
	CHAR
)

func (t TokenKind) String() string {
	data := map[TokenKind]string{
		EOF:     "end of file",
		UNKNOWN: "unknown",
		IDENT:   "identifier",
		KEYWORD: "keyword",
		SYMBOL:  "symbol",
		INT:     "integer literal",
		STRING:  "string literal",
		CHAR:    "char literal",
	}
	return data[t]
}

func (p Position) String() string {
	if p.Filename == "" {
		p.Filename = "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Column < o.Column
}

func (s Span) String() string {
	if s.From == s.To {
		return s.From.String()
	}
	return fmt.Sprintf("%s-%d:%d", s.From, s.To.Line, s.To.Column)
}

func SingleCharSpan(p Position) Span {
	return Span{p, p}
}

// Combine returns the span covering both a and b.
func Combine(a, b Span) Span {
	from, to := a.From, b.To
	if b.From.Before(from) {
		from = b.From
	}
	if to.Before(a.To) {
		to = a.To
	}
	return Span{from, to}
}

type Token struct {
	Kind     TokenKind
	Value    string
	Location Span
}

// Is reports whether the token is a keyword or symbol with the given text.
func (t Token) Is(value string) bool {
	return (t.Kind == KEYWORD || t.Kind == SYMBOL) && t.Value == value
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "end of file"
	case STRING:
		return fmt.Sprintf("%q", t.Value)
	}
	return fmt.Sprintf("'%s'", t.Value)
}
