package diffseg

import (
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/specdrift/source"
)

// commentWindow is the number of lines scanned on each side of a capture
// for nearby comments.
const commentWindow = 5

// defaultTestPatterns exclude test and spec files from segmentation.
var defaultTestPatterns = []string{
	"*_test.go",
	"*_test.py",
	"test_*.py",
	"*.test.*",
	"*.spec.*",
	"*Test.java",
	"*Tests.java",
}

// Segmenter splits unified diffs into per-function change regions.
type Segmenter struct {
	testPatterns []string
	logger       *slog.Logger
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithTestPatterns overrides the test-file exclusion patterns.
func WithTestPatterns(patterns []string) Option {
	return func(s *Segmenter) {
		s.testPatterns = patterns
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Segmenter) {
		s.logger = logger
	}
}

// NewSegmenter creates a segmenter with default filters.
func NewSegmenter(opts ...Option) *Segmenter {
	s := &Segmenter{
		testPatterns: defaultTestPatterns,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Segment splits a unified diff into FunctionChanges for the given changed
// files. Files outside the source allow-list or matching a test pattern are
// skipped. Segment never fails; unparseable regions yield nothing.
func (s *Segmenter) Segment(diff string, files []source.ChangedFile) []FunctionChange {
	lines := strings.Split(diff, "\n")

	var changes []FunctionChange
	for _, file := range files {
		lang := LanguageForPath(file.Path)
		if lang == "" {
			continue
		}
		if s.isTestFile(file.Path) {
			s.logger.Debug("Skipping test file", "path", file.Path)
			continue
		}

		section := fileSection(lines, file.Path, len(files) == 1)
		if len(section) == 0 {
			continue
		}

		changes = append(changes, s.segmentFile(file.Path, lang, section)...)
	}

	return changes
}

// isTestFile reports whether a path matches any test/spec pattern.
func (s *Segmenter) isTestFile(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range s.testPatterns {
		target := base
		if strings.Contains(pattern, "/") {
			target = filepath.ToSlash(path)
		}
		if ok, err := doublestar.Match(pattern, target); err == nil && ok {
			return true
		}
	}
	return false
}

// fileSection isolates the diff lines belonging to one file by scanning for
// file-boundary markers. soleFile marks that the caller's changed-file list
// has exactly one entry.
func fileSection(lines []string, path string, soleFile bool) []string {
	marker := " b/" + filepath.ToSlash(path)

	start := -1
	for i, line := range lines {
		if strings.HasPrefix(line, "diff --git ") && strings.HasSuffix(line, marker) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		// Headerless raw hunks carry no file boundaries, so they can only
		// be attributed when a single file changed.
		if soleFile && len(lines) > 0 && !strings.Contains(strings.Join(lines, "\n"), "diff --git ") {
			return lines
		}
		return nil
	}

	end := len(lines)
	for i := start; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "diff --git ") {
			end = i
			break
		}
	}
	return lines[start:end]
}

// capture tracks one in-progress function region. Several captures can be
// open at once: nested and overlapping function starts each open their own
// capture and are intentionally not deduplicated.
type capture struct {
	name      string
	startIdx  int
	startLine int
	lines     []string
	balance   int
	opened    bool
	indent    int // python only: indentation of the def line
	python    bool
	bodySeen  bool // python only: at least one body line captured
}

// segmentFile scans one file section for function captures.
func (s *Segmenter) segmentFile(path, lang string, section []string) []FunctionChange {
	var open []*capture
	var done []*capture

	newLine := 0
	for idx, raw := range section {
		if skipMetaLine(raw) {
			continue
		}
		if strings.HasPrefix(raw, "@@") {
			newLine = hunkNewStart(raw)
			continue
		}

		marker, content := splitMarker(raw)
		lineNo := newLine
		if marker != '-' {
			newLine++
		}

		// Feed the line to every open capture before considering closes,
		// so the closing brace line is included in the body.
		for _, c := range open {
			if c.python {
				continue // python closes before appending, handled below
			}
			c.lines = append(c.lines, raw)
			c.balance += braceDelta(content)
			if c.balance > 0 {
				c.opened = true
			}
		}

		// Close python captures on a dedent back to the def's level.
		var still []*capture
		for _, c := range open {
			if c.python {
				trimmed := strings.TrimSpace(content)
				if len(c.lines) > 0 && trimmed != "" && !strings.HasPrefix(trimmed, "#") && indentOf(content) <= c.indent && c.bodySeen {
					done = append(done, c)
					continue
				}
				c.lines = append(c.lines, raw)
				if trimmed != "" && indentOf(content) > c.indent {
					c.bodySeen = true
				}
				still = append(still, c)
				continue
			}
			if c.opened && c.balance <= 0 {
				done = append(done, c)
				continue
			}
			still = append(still, c)
		}
		open = still

		// A matching signature opens a new capture, even inside another.
		if name, ok := matchSignature(lang, content); ok {
			c := &capture{
				name:      name,
				startIdx:  idx,
				startLine: lineNo,
				lines:     []string{raw},
				python:    lang == "python",
				indent:    indentOf(content),
				balance:   braceDelta(content),
			}
			if c.balance > 0 {
				c.opened = true
			}
			if c.opened && c.balance <= 0 {
				// Single-line function.
				done = append(done, c)
			} else {
				open = append(open, c)
			}
		}
	}

	// Captures whose body is not fully visible still yield a change.
	done = append(done, open...)

	changes := make([]FunctionChange, 0, len(done))
	for _, c := range done {
		fc := FunctionChange{
			FilePath:     path,
			FunctionName: c.name,
			Language:     lang,
			RawBody:      strings.Join(c.lines, "\n"),
			StartLine:    c.startLine,
			ChangeType:   classifyChange(c.lines),
			Comments:     collectComments(section, c.startIdx, c.startIdx+len(c.lines)-1),
		}
		changes = append(changes, fc)
	}
	return changes
}

// skipMetaLine reports whether a diff line is metadata rather than content.
func skipMetaLine(line string) bool {
	return strings.HasPrefix(line, "--- ") ||
		strings.HasPrefix(line, "+++ ") ||
		strings.HasPrefix(line, "index ") ||
		strings.HasPrefix(line, "new file mode") ||
		strings.HasPrefix(line, "deleted file mode") ||
		strings.HasPrefix(line, "similarity index") ||
		strings.HasPrefix(line, "rename from") ||
		strings.HasPrefix(line, "rename to") ||
		strings.HasPrefix(line, "old mode") ||
		strings.HasPrefix(line, "new mode") ||
		strings.HasPrefix(line, "\\ No newline")
}

// hunkNewStart parses the new-file start line from a @@ hunk header.
func hunkNewStart(header string) int {
	plus := strings.Index(header, "+")
	if plus < 0 {
		return 1
	}
	rest := header[plus+1:]
	end := strings.IndexAny(rest, ", @")
	if end < 0 {
		end = len(rest)
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 1
	}
	return n
}

// splitMarker separates the diff change marker from line content.
func splitMarker(line string) (byte, string) {
	if line == "" {
		return ' ', ""
	}
	switch line[0] {
	case '+', '-', ' ':
		return line[0], line[1:]
	}
	return ' ', line
}

// braceDelta counts the brace balance change of a line, skipping braces
// inside quoted strings and line comments.
func braceDelta(line string) int {
	delta := 0
	var quote byte
	escaped := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if escaped {
			escaped = false
			continue
		}
		if quote != 0 {
			switch ch {
			case '\\':
				escaped = true
			case quote:
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'', '`':
			quote = ch
		case '/':
			if i+1 < len(line) && line[i+1] == '/' {
				return delta
			}
		case '{':
			delta++
		case '}':
			delta--
		}
	}
	return delta
}

// indentOf returns the leading whitespace width of a line (tab = 1).
func indentOf(line string) int {
	n := 0
	for _, ch := range line {
		if ch == ' ' || ch == '\t' {
			n++
			continue
		}
		break
	}
	return n
}

// classifyChange derives the change type from the captured markers.
func classifyChange(lines []string) ChangeType {
	var adds, removes bool
	for _, line := range lines {
		marker, _ := splitMarker(line)
		switch marker {
		case '+':
			adds = true
		case '-':
			removes = true
		}
	}
	switch {
	case adds && !removes:
		return ChangeAdded
	case removes && !adds:
		return ChangeRemoved
	default:
		return ChangeModified
	}
}
