// Package project reads kestrel.yaml and drives a build from sources to a
// linked binary.
package project

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/ztrue/tracerr"
	"gopkg.in/yaml.v2"
)

const FileName = "kestrel.yaml"

type Project struct {
	Package   string   `yaml:"package"`
	Output    string   `yaml:"output,omitempty"`
	Sources   []string `yaml:"sources,omitempty"`
	Assembler string   `yaml:"assembler,omitempty"`
	Linker    string   `yaml:"linker,omitempty"`
	LinkFlags []string `yaml:"linkflags,omitempty"`
}

func New(name string) Project {
	p := Project{Package: name}
	p.defaults()
	return p
}

func (p *Project) defaults() {
	if p.Output == "" {
		p.Output = p.Package
	}
	if len(p.Sources) == 0 {
		p.Sources = []string{"*.ks"}
	}
	if p.Assembler == "" {
		p.Assembler = "fasm"
	}
	if p.Linker == "" {
		p.Linker = "gcc"
	}
	if p.LinkFlags == nil {
		p.LinkFlags = []string{"-no-pie"}
	}
}

// Load reads the project file in dir and fills in defaults for everything
// it leaves out.
func Load(dir string) (Project, error) {
	data, err := ioutil.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return Project{}, tracerr.Wrap(err)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Project{}, tracerr.Wrap(err)
	}
	if p.Package == "" {
		return Project{}, tracerr.Errorf("%s: package name is missing", FileName)
	}
	p.defaults()
	return p, nil
}

// Save writes the project file into dir. It refuses to replace an existing
// one.
func (p Project) Save(dir string) error {
	out, err := yaml.Marshal(p)
	if err != nil {
		return tracerr.Wrap(err)
	}

	fi, err := os.OpenFile(filepath.Join(dir, FileName), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return tracerr.Wrap(err)
	}
	defer fi.Close()

	if _, err := fi.Write(out); err != nil {
		return tracerr.Wrap(err)
	}
	return nil
}
