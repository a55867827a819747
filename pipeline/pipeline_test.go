package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/c360studio/specdrift/flow/golang"

	"github.com/c360studio/specdrift/diffseg"
	"github.com/c360studio/specdrift/drift"
	"github.com/c360studio/specdrift/source"
	"github.com/c360studio/specdrift/spec"
	"github.com/c360studio/specdrift/storage"
)

// stubAccessor serves fixed file contents.
type stubAccessor struct {
	files map[string]string
}

func (a *stubAccessor) FileContents(_ context.Context, path, _ string) (string, error) {
	contents, ok := a.files[path]
	if !ok {
		return "", fmt.Errorf("no such file: %s", path)
	}
	return contents, nil
}

func (a *stubAccessor) Diff(context.Context, string, string) (string, []source.ChangedFile, error) {
	return "", nil, nil
}

const clampSource = `package sample

func Clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
`

const clampDiff = `diff --git a/sample/clamp.go b/sample/clamp.go
index 1111111..2222222 100644
--- a/sample/clamp.go
+++ b/sample/clamp.go
@@ -1,9 +1,9 @@
 func Clamp(value, low, high int) int {
 	if value < low {
-		return 0
+		return low
 	}
 	if value > high {
 		return high
 	}
 	return value
 }`

func testPipeline(store storage.SpecStore) *Pipeline {
	return New(
		spec.NewSynthesizer(),
		WithAccessor(&stubAccessor{files: map[string]string{"sample/clamp.go": clampSource}}),
		WithStore(store),
		WithConcurrency(2),
	)
}

func changedFiles() []source.ChangedFile {
	return []source.ChangedFile{{Path: "sample/clamp.go", Status: source.StatusModified}}
}

func TestProcessDiff_EndToEnd(t *testing.T) {
	p := testPipeline(storage.NewMemoryStore())
	report := p.ProcessDiff(context.Background(), "HEAD", clampDiff, changedFiles())

	require.Len(t, report.Functions, 1)
	fr := report.Functions[0]
	assert.Equal(t, "sample/clamp.go:Clamp", fr.FunctionKey)
	assert.Equal(t, "go", fr.Language)

	require.NotNil(t, fr.Record)
	assert.NoError(t, fr.Record.Validate())
	assert.Equal(t, spec.FallbackName, fr.Record.Provenance)
	// Three typed int parameters yield three preconditions.
	assert.Len(t, fr.Record.Preconditions, 3)

	require.NotNil(t, fr.Drift)
	assert.False(t, fr.Drift.HasDrift)
	assert.Equal(t, []string{drift.ReasonNoBaseline}, fr.Drift.Reasons)

	require.NotNil(t, fr.Theorem)
	assert.Contains(t, fr.Theorem.TheoremStatement, "Clamp_spec")
}

func TestProcessDiff_DriftAgainstStoredBaseline(t *testing.T) {
	store := storage.NewMemoryStore()
	prior := &spec.Record{
		FunctionKey:    "sample/clamp.go:Clamp",
		Preconditions:  []string{},
		Postconditions: []string{},
		Invariants:     []string{},
		EdgeCases:      []string{},
		Fingerprint:    spec.Fingerprint{Complexity: 2, HasValidation: true},
	}
	require.NoError(t, store.Put(context.Background(), prior))

	p := testPipeline(store)
	report := p.ProcessDiff(context.Background(), "HEAD", clampDiff, changedFiles())

	require.Len(t, report.Functions, 1)
	fr := report.Functions[0]
	require.NotNil(t, fr.Drift)
	// Clamp has complexity 5 against a recorded 2.
	assert.True(t, fr.Drift.HasDrift)
	assert.Contains(t, fr.Drift.Reasons, drift.ReasonComplexityGrowth)

	// The new record replaces the baseline.
	updated, err := store.Get(context.Background(), "sample/clamp.go:Clamp")
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Fingerprint.Complexity)
}

func TestProcessDiff_ReanalyzesEditedFunction(t *testing.T) {
	accessor := &stubAccessor{files: map[string]string{"sample/clamp.go": `package sample

func Clamp(value, low, high int) int {
	return value
}
`}}
	store := storage.NewMemoryStore()
	p := New(
		spec.NewSynthesizer(),
		WithAccessor(accessor),
		WithStore(store),
	)

	run1 := p.ProcessDiff(context.Background(), "HEAD", clampDiff, changedFiles())
	require.Len(t, run1.Functions, 1)
	require.NotNil(t, run1.Functions[0].Record)
	assert.Equal(t, 1, run1.Functions[0].Record.Fingerprint.Complexity)

	// The file is edited between runs of the same process, as in watch mode.
	accessor.files["sample/clamp.go"] = clampSource

	run2 := p.ProcessDiff(context.Background(), "HEAD", clampDiff, changedFiles())
	require.Len(t, run2.Functions, 1)
	fr := run2.Functions[0]
	require.NotNil(t, fr.Record)
	assert.Equal(t, 5, fr.Record.Fingerprint.Complexity)

	require.NotNil(t, fr.Drift)
	assert.True(t, fr.Drift.HasDrift)
	assert.Contains(t, fr.Drift.Reasons, drift.ReasonComplexityGrowth)

	// The stored baseline now reflects the edited code, so a further run
	// over unchanged code is quiet.
	updated, err := store.Get(context.Background(), "sample/clamp.go:Clamp")
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Fingerprint.Complexity)

	run3 := p.ProcessDiff(context.Background(), "HEAD", clampDiff, changedFiles())
	require.Len(t, run3.Functions, 1)
	assert.False(t, run3.Functions[0].Drift.HasDrift)
}

func TestProcessDiff_RemovedFunctionSkipped(t *testing.T) {
	diff := `diff --git a/sample/old.go b/sample/old.go
index 3333333..4444444 100644
--- a/sample/old.go
+++ b/sample/old.go
@@ -1,3 +1,0 @@
-func Legacy() int {
-	return 1
-}`

	p := testPipeline(storage.NewMemoryStore())
	report := p.ProcessDiff(context.Background(), "HEAD", diff,
		[]source.ChangedFile{{Path: "sample/old.go", Status: source.StatusModified}})

	require.Len(t, report.Functions, 1)
	assert.Equal(t, diffseg.ChangeRemoved, report.Functions[0].ChangeType)
	assert.NotEmpty(t, report.Functions[0].Skipped)
	assert.Nil(t, report.Functions[0].Record)
}

func TestProcessDiff_MissingFileFallsBackToDiffBody(t *testing.T) {
	p := New(
		spec.NewSynthesizer(),
		WithAccessor(&stubAccessor{files: map[string]string{}}),
		WithStore(storage.NewMemoryStore()),
	)
	report := p.ProcessDiff(context.Background(), "HEAD", clampDiff, changedFiles())

	// The raw diff body does not parse as Go, so extraction degrades and
	// the fallback still produces a valid record.
	require.Len(t, report.Functions, 1)
	require.NotNil(t, report.Functions[0].Record)
	assert.NoError(t, report.Functions[0].Record.Validate())
}

func TestProcessDiff_EmptyDiff(t *testing.T) {
	p := testPipeline(storage.NewMemoryStore())
	report := p.ProcessDiff(context.Background(), "HEAD", "", nil)
	assert.Empty(t, report.Functions)
	assert.False(t, report.StartedAt.IsZero())
}

func TestProcessDiff_ReportOrderIsDeterministic(t *testing.T) {
	diff := `diff --git a/b.go b/b.go
index 1111111..2222222 100644
--- a/b.go
+++ b/b.go
@@ -1,3 +1,3 @@
 func B() int {
+	return 2
 }
diff --git a/a.go b/a.go
index 3333333..4444444 100644
--- a/a.go
+++ b/a.go
@@ -1,3 +1,3 @@
 func A() int {
+	return 1
 }`

	p := New(spec.NewSynthesizer(), WithStore(storage.NewMemoryStore()), WithConcurrency(4))
	files := []source.ChangedFile{
		{Path: "b.go", Status: source.StatusModified},
		{Path: "a.go", Status: source.StatusModified},
	}

	report := p.ProcessDiff(context.Background(), "HEAD", diff, files)
	require.Len(t, report.Functions, 2)
	assert.Equal(t, "a.go:A", report.Functions[0].FunctionKey)
	assert.Equal(t, "b.go:B", report.Functions[1].FunctionKey)
}
