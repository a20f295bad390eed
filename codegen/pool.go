package codegen

import (
	"fmt"
	"strconv"
	"strings"
)

// Pool holds the string literals of a module. A string gets one stable index
// the first time it is added; adding it again returns the same index.
type Pool struct {
	strings []string
	index   map[string]int
}

func NewPool() *Pool {
	return &Pool{index: map[string]int{}}
}

func (p *Pool) Add(s string) int {
	if i, ok := p.index[s]; ok {
		return i
	}
	p.index[s] = len(p.strings)
	p.strings = append(p.strings, s)
	return len(p.strings) - 1
}

func (p *Pool) Len() int {
	return len(p.strings)
}

func Label(i int) string {
	return fmt.Sprintf("str%d", i)
}

// Emit writes one zero terminated db line per string.
func (p *Pool) Emit(w *strings.Builder) {
	for i, s := range p.strings {
		fmt.Fprintf(w, "%s db %s\n", Label(i), Bytes(s))
	}
}

// Bytes renders s as a flat assembler byte list ending in 0. Printable
// characters are quoted, quotes, backslashes and everything else are
// written as numbers.
func Bytes(s string) string {
	var parts []string
	var run strings.Builder

	flush := func() {
		if run.Len() > 0 {
			parts = append(parts, `"`+run.String()+`"`)
			run.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c < 0x7f && c != '"' && c != '\\' {
			run.WriteByte(c)
			continue
		}
		flush()
		parts = append(parts, strconv.Itoa(int(c)))
	}
	flush()

	return strings.Join(append(parts, "0"), ", ")
}
