package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, dir, name string, lines int) string {
	t.Helper()
	var b strings.Builder
	for i := 1; i <= lines; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func TestSnippetExtractor_NodeFrame(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "app.js", 20)

	x := NewSnippetExtractor(5, "")
	got := x.Extract("TypeError: x is undefined\n    at main (" + src + ":10:5)\n")

	assert.Contains(t, got, "--- Code from "+src+":10 ---")
	assert.Contains(t, got, ">   10: line 10")
	assert.Contains(t, got, "     5: line 5")
	assert.Contains(t, got, "    15: line 15")
	assert.NotContains(t, got, "line 4\n")
	assert.NotContains(t, got, "line 16")
}

func TestSnippetExtractor_SkipsDependencies(t *testing.T) {
	dir := t.TempDir()
	dep := writeSource(t, dir, filepath.Join("node_modules", "lib", "index.js"), 5)
	own := writeSource(t, dir, "server.js", 5)

	x := NewSnippetExtractor(1, "")
	got := x.Extract("at f (" + dep + ":2:1)\nat g (file://" + own + ":3:1)")
	assert.Contains(t, got, own+":3")
	assert.NotContains(t, got, dep)
}

func TestSnippetExtractor_PythonFrame(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "tool.py", 8)

	x := NewSnippetExtractor(2, "")
	got := x.Extract("Traceback (most recent call last):\n  File \"" + src + "\", line 1, in <module>\nValueError")
	assert.Contains(t, got, ">    1: line 1")
	assert.Contains(t, got, "     3: line 3")
	assert.NotContains(t, got, "line 4")
}

func TestSnippetExtractor_RelativeGoFrame(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "main.go", 12)

	x := NewSnippetExtractor(1, dir)
	got := x.Extract("# example\n./main.go:12:2: undefined: foo\n")
	assert.Contains(t, got, ">   12: line 12")
	assert.Contains(t, got, "    11: line 11")
}

func TestSnippetExtractor_NoUsableFrame(t *testing.T) {
	x := NewSnippetExtractor(5, t.TempDir())
	assert.Equal(t, "", x.Extract("no frames here at 12:30:45"))
	assert.Equal(t, "", x.Extract("at (/does/not/exist.js:1:1)"))

	dir := t.TempDir()
	src := writeSource(t, dir, "short.js", 3)
	assert.Equal(t, "", x.Extract(src+":99:1"), "line beyond end of file")
}
