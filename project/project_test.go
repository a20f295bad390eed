package project

import (
	"errors"
	"io/ioutil"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	p := New("demo")
	assert.Equal(t, Project{
		Package:   "demo",
		Output:    "demo",
		Sources:   []string{"*.ks"},
		Assembler: "fasm",
		Linker:    "gcc",
		LinkFlags: []string{"-no-pie"},
	}, p)

	require.NoError(t, p.Save(dir))
	assert.Error(t, p.Save(dir), "an existing project file is never replaced")

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, p, loaded)
}

func TestLoadFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, FileName, "package: demo\nsources: [\"src/*.ks\"]\nlinker: cc\n")

	p, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "demo", p.Output)
	assert.Equal(t, []string{"src/*.ks"}, p.Sources)
	assert.Equal(t, "cc", p.Linker)
	assert.Equal(t, "fasm", p.Assembler)
}

func TestLoadNeedsPackage(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, FileName, "output: x\n")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "package name is missing")
}

func TestCheckAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.ks", "int32 twice(int32 x) { return x * 2; }\n")
	write(t, dir, "b.ks", "export int32 main() { return twice(21); }\n")
	write(t, dir, "notes.txt", "not a source")

	p := New("demo")
	files, err := p.Files(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.ks"), filepath.Join(dir, "b.ks")}, files)

	prog, err := p.Check(dir)
	require.NoError(t, err)
	assert.False(t, prog.Failed())
	assert.Len(t, prog.Functions, 2)
}

func TestLexicalErrorsAreReported(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.ks", "int32 main() { return 1 @ 2; }\n")

	prog, err := New("demo").Check(dir)
	require.NoError(t, err)
	require.True(t, prog.Failed())

	var found bool
	for _, d := range prog.Diagnostics.All() {
		if d.Message == "unknown character '@'" {
			found = true
		}
	}
	assert.True(t, found, "%v", prog.Diagnostics.All())
}

func TestReadSourcesKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"c.ks", "a.ks", "b.ks"} {
		write(t, dir, name, "int32 "+name[:1]+";")
		paths = append(paths, filepath.Join(dir, name))
	}

	sources, err := ReadSources(paths)
	require.NoError(t, err)
	require.Len(t, sources, 3)
	for i, src := range sources {
		assert.Equal(t, paths[i], src.Name)
		assert.Len(t, src.Tokens, 4)
	}

	_, err = ReadSources([]string{filepath.Join(dir, "missing.ks")})
	assert.Error(t, err)
}

func TestNoSources(t *testing.T) {
	_, err := New("demo").Check(t.TempDir())
	assert.Error(t, err)
}

func TestBuildStopsOnDiagnostics(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.ks", "int32 main() { return missing; }\n")

	prog, err := New("demo").Build(dir, BuildOptions{})
	assert.True(t, errors.Is(err, ErrDiagnostics))
	require.NotNil(t, prog)
	assert.True(t, prog.Failed())
}

func TestLinkFlags(t *testing.T) {
	p := New("demo")
	p.LinkFlags = []string{"-no-pie", "-lm"}
	assert.Equal(t, []string{"-no-pie", "-lm"}, p.linkFlags(false))
	assert.Equal(t, []string{"-lm", "-shared"}, p.linkFlags(true))

	assert.Equal(t, "demo", p.output(BuildOptions{}))
	assert.Equal(t, "libdemo.so", p.output(BuildOptions{Library: true}))
	assert.Equal(t, "x", p.output(BuildOptions{Output: "x"}))
}

func TestBuildAndRun(t *testing.T) {
	for _, tool := range []string{"fasm", "gcc"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s is not installed", tool)
		}
	}

	dir := t.TempDir()
	write(t, dir, "main.ks", `
int add(int a, int b) { return a + b; }
export int main() { return add(2, 3); }
`)

	p := New("demo")
	_, err := p.Build(dir, BuildOptions{Stderr: ioutil.Discard})
	require.NoError(t, err)

	err = exec.Command(filepath.Join(dir, "demo")).Run()
	var exit *exec.ExitError
	require.True(t, errors.As(err, &exit), "%v", err)
	assert.Equal(t, 5, exit.ExitCode())
}
