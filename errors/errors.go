package errors

import (
	"fmt"
	"strings"

	"github.com/pontaoski/kestrel/types"
)

// Located is implemented by every error that points at source code.
type Located interface {
	error
	Span() types.Span
}

type LexicalError struct {
	Message  string
	Location types.Span
}

func (e LexicalError) Error() string    { return e.Message }
func (e LexicalError) Span() types.Span { return e.Location }

type UnexpectedToken struct {
	Expected []string
	Got      types.Token
}

func (e UnexpectedToken) Error() string {
	if len(e.Expected) == 0 {
		return fmt.Sprintf("unexpected %s", e.Got)
	}
	if len(e.Expected) == 1 {
		return fmt.Sprintf("got %s, expected %s", e.Got, e.Expected[0])
	}
	return fmt.Sprintf("got %s, expected one of %s", e.Got, strings.Join(e.Expected, ", "))
}

func (e UnexpectedToken) Span() types.Span { return e.Got.Location }

type UnexpectedEOF struct {
	Expected string
	Location types.Span
}

func (e UnexpectedEOF) Error() string {
	return fmt.Sprintf("unexpected end of file, expected %s", e.Expected)
}

func (e UnexpectedEOF) Span() types.Span { return e.Location }

type UnmatchedBracket struct {
	Bracket  string
	Location types.Span
}

func (e UnmatchedBracket) Error() string {
	return fmt.Sprintf("unmatched '%s'", e.Bracket)
}

func (e UnmatchedBracket) Span() types.Span { return e.Location }

type DuplicateModifier struct {
	Modifier string
	Location types.Span
}

func (e DuplicateModifier) Error() string {
	return fmt.Sprintf("modifier %s specified more than once", e.Modifier)
}

func (e DuplicateModifier) Span() types.Span { return e.Location }

type ModifierNotAllowed struct {
	Modifier  string
	Construct string
	Location  types.Span
}

func (e ModifierNotAllowed) Error() string {
	return fmt.Sprintf("modifier %s is not allowed on %s", e.Modifier, e.Construct)
}

func (e ModifierNotAllowed) Span() types.Span { return e.Location }

type DuplicateName struct {
	Name     string
	Location types.Span
}

func (e DuplicateName) Error() string {
	return fmt.Sprintf("%s is already declared in this scope", e.Name)
}

func (e DuplicateName) Span() types.Span { return e.Location }

type UnresolvedName struct {
	Name     string
	What     string
	Location types.Span
}

func (e UnresolvedName) Error() string {
	what := e.What
	if what == "" {
		what = "name"
	}
	return fmt.Sprintf("unresolved %s %s", what, e.Name)
}

func (e UnresolvedName) Span() types.Span { return e.Location }

type AmbiguousName struct {
	Name     string
	Files    []string
	Location types.Span
}

func (e AmbiguousName) Error() string {
	return fmt.Sprintf("%s is ambiguous, it is declared in %s", e.Name, strings.Join(e.Files, " and "))
}

func (e AmbiguousName) Span() types.Span { return e.Location }

type InvalidOperands struct {
	Operator string
	Left     string
	Right    string
	Location types.Span
}

func (e InvalidOperands) Error() string {
	if e.Right == "" {
		return fmt.Sprintf("invalid operand of type %s for %s", e.Left, e.Operator)
	}
	return fmt.Sprintf("invalid operands of types %s and %s for %s", e.Left, e.Right, e.Operator)
}

func (e InvalidOperands) Span() types.Span { return e.Location }

type InvalidAssignment struct {
	Reason   string
	Location types.Span
}

func (e InvalidAssignment) Error() string {
	return fmt.Sprintf("invalid assignment: %s", e.Reason)
}

func (e InvalidAssignment) Span() types.Span { return e.Location }

type TypeMismatch struct {
	Expected string
	Got      string
	Context  string
	Location types.Span
}

func (e TypeMismatch) Error() string {
	return fmt.Sprintf("%s has type %s, not type %s", e.Context, e.Got, e.Expected)
}

func (e TypeMismatch) Span() types.Span { return e.Location }

type InvalidCast struct {
	From     string
	To       string
	Location types.Span
}

func (e InvalidCast) Error() string {
	return fmt.Sprintf("cannot cast %s to %s", e.From, e.To)
}

func (e InvalidCast) Span() types.Span { return e.Location }

type ArgumentMismatch struct {
	Function string
	Expected int
	Got      int
	Location types.Span
}

func (e ArgumentMismatch) Error() string {
	return fmt.Sprintf("%s takes %d arguments, %d given", e.Function, e.Expected, e.Got)
}

func (e ArgumentMismatch) Span() types.Span { return e.Location }

type ReturnMismatch struct {
	Function string
	Expected string
	Got      string
	Location types.Span
}

func (e ReturnMismatch) Error() string {
	if e.Got == "" {
		return fmt.Sprintf("%s must return %s on every path", e.Function, e.Expected)
	}
	return fmt.Sprintf("%s returns %s, declared to return %s", e.Function, e.Got, e.Expected)
}

func (e ReturnMismatch) Span() types.Span { return e.Location }

type Unsupported struct {
	What     string
	Location types.Span
}

func (e Unsupported) Error() string {
	return e.What
}

func (e Unsupported) Span() types.Span { return e.Location }
