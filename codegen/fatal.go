package codegen

import (
	"fmt"

	"github.com/pontaoski/kestrel/types"
)

// Fatal stops generation. It is raised with panic deep inside the generator
// and turned into an error by Generate.
type Fatal struct {
	Message  string
	Location types.Span
}

func (f Fatal) Error() string {
	if f.Location == (types.Span{}) {
		return f.Message
	}
	return fmt.Sprintf("%s: %s", f.Location, f.Message)
}

func (f Fatal) Span() types.Span {
	return f.Location
}

func fatalf(loc types.Span, format string, args ...interface{}) {
	panic(Fatal{Message: fmt.Sprintf(format, args...), Location: loc})
}
