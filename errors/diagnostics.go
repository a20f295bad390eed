package errors

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/pontaoski/kestrel/types"
)

type Severity int

const (
	Error Severity = iota
	Warning
	Note
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Note:
		return "note"
	}
	return "error"
}

type Diagnostic struct {
	Message  string
	Severity Severity
	Location types.Span
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Location, d.Severity, d.Message)
}

// Diagnostics is an ordered, append-only list of reports.
type Diagnostics struct {
	list []Diagnostic
}

func (d *Diagnostics) add(err error, sev Severity) {
	var loc Located
	diag := Diagnostic{Message: err.Error(), Severity: sev}
	if stderrors.As(err, &loc) {
		diag.Location = loc.Span()
	}
	d.list = append(d.list, diag)
}

// Report records err as an error. Errors that carry a location keep it.
func (d *Diagnostics) Report(err error) {
	d.add(err, Error)
}

func (d *Diagnostics) Warn(err error) {
	d.add(err, Warning)
}

func (d *Diagnostics) Errorf(loc types.Span, format string, args ...interface{}) {
	d.list = append(d.list, Diagnostic{
		Message:  fmt.Sprintf(format, args...),
		Severity: Error,
		Location: loc,
	})
}

func (d *Diagnostics) All() []Diagnostic {
	return d.list
}

func (d *Diagnostics) Len() int {
	return len(d.list)
}

func (d *Diagnostics) ErrorCount() (n int) {
	for _, diag := range d.list {
		if diag.Severity == Error {
			n++
		}
	}
	return
}

func (d *Diagnostics) Print(w io.Writer) {
	for _, diag := range d.list {
		fmt.Fprintln(w, diag)
	}
}
