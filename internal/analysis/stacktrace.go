package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ValGrace/shelly/internal/logging"
)

const maxSnippetFileSize = 2 << 20

var (
	// path:line[:col], optionally behind "at " or file://
	framePathRe = regexp.MustCompile(`(?:file://)?((?:[A-Za-z]:)?[\w.\-\\/~@+]*[\w\-]\.[A-Za-z0-9]+):(\d+)(?::\d+)?`)
	// File "path", line N
	pythonFrameRe = regexp.MustCompile(`File "([^"]+)", line (\d+)`)

	ignoredFrameDirs = []string{"node_modules", "vendor", "site-packages", "dist-packages"}
)

// SnippetExtractor locates the first readable source frame in a stack trace
// and renders the surrounding lines
type SnippetExtractor struct {
	context  int
	baseDir  string
	readFile func(string) ([]byte, error)
	stat     func(string) (os.FileInfo, error)
}

// NewSnippetExtractor creates an extractor showing context lines on each
// side. Relative frame paths are resolved against baseDir.
func NewSnippetExtractor(context int, baseDir string) *SnippetExtractor {
	if context <= 0 {
		context = DefaultOptions().ContextLines
	}
	return &SnippetExtractor{
		context:  context,
		baseDir:  baseDir,
		readFile: os.ReadFile,
		stat:     os.Stat,
	}
}

type frame struct {
	offset int
	path   string
	line   int
}

// Extract returns the rendered snippet for the first usable frame, or ""
func (x *SnippetExtractor) Extract(output string) string {
	for _, f := range findFrames(output) {
		if ignoredFrame(f.path) {
			continue
		}
		if snippet, ok := x.snippet(f); ok {
			return snippet
		}
	}
	return ""
}

func findFrames(output string) []frame {
	var frames []frame
	collect := func(re *regexp.Regexp) {
		for _, m := range re.FindAllStringSubmatchIndex(output, -1) {
			line, err := strconv.Atoi(output[m[4]:m[5]])
			if err != nil || line <= 0 {
				continue
			}
			frames = append(frames, frame{offset: m[0], path: output[m[2]:m[3]], line: line})
		}
	}
	collect(pythonFrameRe)
	collect(framePathRe)

	sort.SliceStable(frames, func(i, j int) bool { return frames[i].offset < frames[j].offset })
	return frames
}

func ignoredFrame(path string) bool {
	normalized := filepath.ToSlash(path)
	for _, dir := range ignoredFrameDirs {
		if strings.Contains(normalized, "/"+dir+"/") || strings.HasPrefix(normalized, dir+"/") {
			return true
		}
	}
	return false
}

func (x *SnippetExtractor) resolve(path string) string {
	if filepath.IsAbs(path) || x.baseDir == "" {
		return path
	}
	return filepath.Join(x.baseDir, path)
}

func (x *SnippetExtractor) snippet(f frame) (string, bool) {
	path := x.resolve(f.path)

	info, err := x.stat(path)
	if err != nil || info.IsDir() || info.Size() > maxSnippetFileSize {
		return "", false
	}

	data, err := x.readFile(path)
	if err != nil {
		logging.Debug("failed to read frame source %s: %v", path, err)
		return "", false
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if f.line > len(lines) {
		return "", false
	}

	start := f.line - x.context - 1
	if start < 0 {
		start = 0
	}
	end := f.line + x.context
	if end > len(lines) {
		end = len(lines)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n--- Code from %s:%d ---\n", f.path, f.line)
	for i := start; i < end; i++ {
		marker := " "
		if i+1 == f.line {
			marker = ">"
		}
		fmt.Fprintf(&b, "%s %4d: %s\n", marker, i+1, lines[i])
	}
	b.WriteString("--------------------------------------\n")
	return b.String(), true
}
