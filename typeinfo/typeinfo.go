// Package typeinfo describes the exported functions of a compiled module.
// The description is embedded into the module as a zero terminated JSON
// string under Symbol, so tools can recover signatures from a binary.
package typeinfo

import (
	"encoding/json"
	"sort"

	"github.com/pontaoski/kestrel/ast"
)

const Symbol = "__kestrel_types"

type Info struct {
	Functions map[string]string `json:"functions"`
}

// FromFunctions collects the signatures of exported functions.
func FromFunctions(fns []*ast.Function) Info {
	info := Info{Functions: map[string]string{}}
	for _, fn := range fns {
		if !fn.Modifiers.Has(ast.Export) {
			continue
		}
		info.Functions[fn.Symbol()] = fn.Signature().String()
	}
	return info
}

// Names returns the function names in sorted order.
func (i Info) Names() []string {
	var names []string
	for name := range i.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (i Info) Marshal() []byte {
	data, err := json.Marshal(i)
	if err != nil {
		panic(err)
	}
	return data
}

func Unmarshal(data []byte) (i Info, err error) {
	err = json.Unmarshal(data, &i)
	return
}
