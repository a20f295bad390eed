// Package reader extracts the embedded type information from a built
// shared library.
package reader

import (
	"github.com/coreos/pkg/dlopen"
	"github.com/pontaoski/kestrel/typeinfo"
	"github.com/ztrue/tracerr"
)

import "C"

func ReadTypeInfo(from string) (typeinfo.Info, error) {
	handle, err := dlopen.GetHandle([]string{from})
	if err != nil {
		return typeinfo.Info{}, tracerr.Wrap(err)
	}
	defer handle.Close()

	sym, err := handle.GetSymbolPointer(typeinfo.Symbol)
	if err != nil {
		return typeinfo.Info{}, tracerr.Wrap(err)
	}

	info, err := typeinfo.Unmarshal([]byte(C.GoString((*C.char)(sym))))
	if err != nil {
		return typeinfo.Info{}, tracerr.Wrap(err)
	}
	return info, nil
}
