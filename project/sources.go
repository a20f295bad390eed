package project

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"sort"

	"github.com/pontaoski/kestrel/lexer"
	"github.com/pontaoski/kestrel/parser"
	"github.com/pontaoski/kestrel/types"
	"github.com/ztrue/tracerr"
	"golang.org/x/sync/errgroup"
)

// Source is one file, already tokenized.
type Source struct {
	Name   string
	Tokens []types.Token
	Errors []error
}

// Files expands the source globs relative to dir. The result is sorted and
// free of duplicates.
func (p Project) Files(dir string) ([]string, error) {
	seen := map[string]bool{}
	var ret []string
	for _, pattern := range p.Sources {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, tracerr.Wrap(err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				ret = append(ret, m)
			}
		}
	}
	sort.Strings(ret)
	return ret, nil
}

// ReadSources reads and tokenizes every file concurrently. The sources
// come back in the order of paths.
func ReadSources(paths []string) ([]Source, error) {
	sources := make([]Source, len(paths))

	var g errgroup.Group
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			data, err := ioutil.ReadFile(path)
			if err != nil {
				return tracerr.Wrap(err)
			}
			l := lexer.NewLexer(bytes.NewReader(data), path)
			sources[i] = Source{Name: path, Tokens: l.LexToEOF(), Errors: l.Errors}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sources, nil
}

// Parse runs the front end over tokenized sources.
func Parse(sources []Source) *parser.Program {
	prog := parser.NewProgram()
	for _, src := range sources {
		prog.Declare(src.Name, parser.NewTokens(src.Tokens))
		for _, err := range src.Errors {
			prog.Diagnostics.Report(err)
		}
	}
	prog.Resolve()
	prog.ParseBodies()
	return prog
}
