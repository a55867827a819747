package diffseg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/specdrift/source"
)

func TestSegment_SingleLineAddedFunction(t *testing.T) {
	diff := `diff --git a/util.js b/util.js
index 0000000..1111111 100644
--- a/util.js
+++ b/util.js
@@ -0,0 +1,1 @@
+function add(a,b){return a+b;}`

	s := NewSegmenter()
	changes := s.Segment(diff, []source.ChangedFile{
		{Path: "util.js", Status: source.StatusAdded},
	})

	require.Len(t, changes, 1)
	assert.Equal(t, "add", changes[0].FunctionName)
	assert.Equal(t, ChangeAdded, changes[0].ChangeType)
	assert.Equal(t, "javascript", changes[0].Language)
	assert.Equal(t, "util.js:add", changes[0].Key())
}

func TestSegment_GoFunctionModified(t *testing.T) {
	diff := `diff --git a/calc.go b/calc.go
index 2222222..3333333 100644
--- a/calc.go
+++ b/calc.go
@@ -10,8 +10,9 @@ package calc
 func Divide(a, b float64) (float64, error) {
 	if b == 0 {
-		return 0, errors.New("division by zero")
+		return 0, ErrDivisionByZero
 	}
+	// fast path for identity
 	return a / b, nil
 }`

	s := NewSegmenter()
	changes := s.Segment(diff, []source.ChangedFile{
		{Path: "calc.go", Status: source.StatusModified},
	})

	require.Len(t, changes, 1)
	assert.Equal(t, "Divide", changes[0].FunctionName)
	assert.Equal(t, ChangeModified, changes[0].ChangeType)
	assert.Equal(t, "go", changes[0].Language)
	assert.Equal(t, 10, changes[0].StartLine)
	assert.Contains(t, changes[0].RawBody, "return a / b, nil")
}

func TestSegment_RemovedFunction(t *testing.T) {
	diff := `diff --git a/old.go b/old.go
index 4444444..5555555 100644
--- a/old.go
+++ b/old.go
@@ -5,4 +5,0 @@ package old
-func legacy() int {
-	return 42
-}
-`

	s := NewSegmenter()
	changes := s.Segment(diff, []source.ChangedFile{
		{Path: "old.go", Status: source.StatusModified},
	})

	require.Len(t, changes, 1)
	assert.Equal(t, "legacy", changes[0].FunctionName)
	assert.Equal(t, ChangeRemoved, changes[0].ChangeType)
}

func TestSegment_SkipsTestFiles(t *testing.T) {
	diff := `diff --git a/calc_test.go b/calc_test.go
index 6666666..7777777 100644
--- a/calc_test.go
+++ b/calc_test.go
@@ -1,3 +1,3 @@
+func TestDivide(t *testing.T) {
+}`

	s := NewSegmenter()
	changes := s.Segment(diff, []source.ChangedFile{
		{Path: "calc_test.go", Status: source.StatusModified},
	})
	assert.Empty(t, changes)
}

func TestSegment_SkipsUnknownExtensions(t *testing.T) {
	s := NewSegmenter()
	changes := s.Segment("+not code", []source.ChangedFile{
		{Path: "README.md", Status: source.StatusModified},
	})
	assert.Empty(t, changes)
}

func TestSegment_PythonFunction(t *testing.T) {
	diff := `diff --git a/svc.py b/svc.py
index 8888888..9999999 100644
--- a/svc.py
+++ b/svc.py
@@ -1,6 +1,7 @@
 def handler(request):
     if request is None:
-        return None
+        raise ValueError("missing request")
     return process(request)
+
 CONSTANT = 1`

	s := NewSegmenter()
	changes := s.Segment(diff, []source.ChangedFile{
		{Path: "svc.py", Status: source.StatusModified},
	})

	require.Len(t, changes, 1)
	assert.Equal(t, "handler", changes[0].FunctionName)
	assert.Equal(t, "python", changes[0].Language)
	assert.NotContains(t, changes[0].RawBody, "CONSTANT")
}

func TestSegment_NestedFunctionsBothCaptured(t *testing.T) {
	diff := `diff --git a/outer.js b/outer.js
index aaaaaaa..bbbbbbb 100644
--- a/outer.js
+++ b/outer.js
@@ -1,6 +1,6 @@
 function outer(x) {
   function inner(y) {
-    return y;
+    return y + 1;
   }
   return inner(x);
 }`

	s := NewSegmenter()
	changes := s.Segment(diff, []source.ChangedFile{
		{Path: "outer.js", Status: source.StatusModified},
	})

	require.Len(t, changes, 2)
	names := []string{changes[0].FunctionName, changes[1].FunctionName}
	assert.Contains(t, names, "outer")
	assert.Contains(t, names, "inner")
}

func TestSegment_UnterminatedCaptureStillYields(t *testing.T) {
	diff := `diff --git a/big.go b/big.go
index ccccccc..ddddddd 100644
--- a/big.go
+++ b/big.go
@@ -1,4 +1,4 @@
 func Truncated(n int) int {
 	if n < 0 {
-		return 0
+		return -1`

	s := NewSegmenter()
	changes := s.Segment(diff, []source.ChangedFile{
		{Path: "big.go", Status: source.StatusModified},
	})

	require.Len(t, changes, 1)
	assert.Equal(t, "Truncated", changes[0].FunctionName)
}

func TestSegment_RawHunkWithoutGitHeader(t *testing.T) {
	diff := `@@ -0,0 +1,1 @@
+function add(a,b){return a+b;}`

	s := NewSegmenter()
	changes := s.Segment(diff, []source.ChangedFile{
		{Path: "add.js", Status: source.StatusAdded},
	})

	require.Len(t, changes, 1)
	assert.Equal(t, "add", changes[0].FunctionName)
	assert.Equal(t, ChangeAdded, changes[0].ChangeType)
}

func TestSegment_RawHunkMultipleFilesYieldsNothing(t *testing.T) {
	diff := `@@ -0,0 +1,1 @@
+function add(a,b){return a+b;}`

	// Without file-boundary markers the hunk cannot be attributed to any
	// single file, so nothing may be captured for either.
	s := NewSegmenter()
	changes := s.Segment(diff, []source.ChangedFile{
		{Path: "add.js", Status: source.StatusAdded},
		{Path: "other.js", Status: source.StatusModified},
	})

	assert.Empty(t, changes)
}

func TestSegment_MultipleFiles(t *testing.T) {
	diff := `diff --git a/a.go b/a.go
index 1111111..2222222 100644
--- a/a.go
+++ b/a.go
@@ -1,3 +1,3 @@
 func A() {
+	println("a")
 }
diff --git a/b.go b/b.go
index 3333333..4444444 100644
--- a/b.go
+++ b/b.go
@@ -1,3 +1,3 @@
 func B() {
+	println("b")
 }`

	s := NewSegmenter()
	changes := s.Segment(diff, []source.ChangedFile{
		{Path: "a.go", Status: source.StatusModified},
		{Path: "b.go", Status: source.StatusModified},
	})

	require.Len(t, changes, 2)
	assert.Equal(t, "a.go:A", changes[0].Key())
	assert.Equal(t, "b.go:B", changes[1].Key())
}

func TestSegment_NeverPanicsOnGarbage(t *testing.T) {
	s := NewSegmenter()
	inputs := []string{
		"",
		"not a diff at all",
		"@@ garbage @@\n+}}}}}{{{",
		"diff --git a/x.go b/x.go",
	}
	for _, input := range inputs {
		assert.NotPanics(t, func() {
			s.Segment(input, []source.ChangedFile{{Path: "x.go", Status: source.StatusModified}})
		})
	}
}

func TestCustomTestPatterns(t *testing.T) {
	s := NewSegmenter(WithTestPatterns([]string{"integration_*.go"}))
	assert.True(t, s.isTestFile("integration_api.go"))
	assert.False(t, s.isTestFile("calc_test.go"))
}

func TestClassifyChange(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  ChangeType
	}{
		{"only adds", []string{"+a", "+b"}, ChangeAdded},
		{"only removes", []string{"-a", "-b"}, ChangeRemoved},
		{"mixed", []string{"+a", "-b"}, ChangeModified},
		{"context only", []string{" a", " b"}, ChangeModified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyChange(tt.lines))
		})
	}
}

func TestBraceDelta(t *testing.T) {
	tests := []struct {
		line string
		want int
	}{
		{"func f() {", 1},
		{"}", -1},
		{`s := "{not a brace}"`, 0},
		{"x := y // { comment", 0},
		{"if a { b() }", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, braceDelta(tt.line), "line: %s", tt.line)
	}
}
