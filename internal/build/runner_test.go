package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"git.home.luguber.info/inful/litbuilder/internal/compiler"
	"git.home.luguber.info/inful/litbuilder/internal/config"
	"git.home.luguber.info/inful/litbuilder/internal/errors"
	"git.home.luguber.info/inful/litbuilder/internal/history"
	"git.home.luguber.info/inful/litbuilder/internal/metrics"
)

// failMarker makes the fake compiler reject a source, so tests can exercise
// compile failures without a real engine.
const failMarker = "@@fail@@"

// countingCompiler copies the source into the artifact directory and counts
// invocations, which lets tests assert whether the incremental skip fired.
func countingCompiler(calls *atomic.Int64) compiler.Func {
	return func(_ context.Context, req compiler.Request) (*compiler.Result, error) {
		calls.Add(1)
		data, err := os.ReadFile(req.SourcePath)
		if err != nil {
			return nil, err
		}
		if strings.Contains(string(data), failMarker) {
			return nil, fmt.Errorf("weave: parse error near line 1")
		}
		artifact := filepath.Join(req.ArtifactDir, req.Base+".md")
		if err := os.WriteFile(artifact, append([]byte("woven\n\n"), data...), 0o600); err != nil {
			return nil, err
		}
		return &compiler.Result{ArtifactPath: artifact}, nil
	}
}

func testConfig(sourceDir string) *config.Config {
	return &config.Config{
		Source:   config.SourceConfig{Dir: sourceDir, Extensions: []string{".md"}},
		Compiler: config.CompilerConfig{Command: "weave", ArtifactExt: ".md"},
	}
}

func writeSource(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func openMemoryStore(t *testing.T) *history.SQLiteStore {
	t.Helper()
	store, err := history.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("open history store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCompileDocument_PlacesOutputBesideSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "docs", "variance.md")
	writeSource(t, src, "# Variance\n\n```haskell\ndata F a\n```\n")

	cfg := testConfig(filepath.Join(dir, "docs"))
	cfg.Compiler.ArtifactDir = filepath.Join(dir, "stage")

	var calls atomic.Int64
	runner := NewRunner(cfg, countingCompiler(&calls))

	report, err := runner.CompileDocument(t.Context(), src)
	if err != nil {
		t.Fatalf("CompileDocument: %v", err)
	}

	want := filepath.Join(dir, "docs", "variance.compiled.md")
	if report.Output != want {
		t.Errorf("report output = %q, want %q", report.Output, want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("output not placed beside source: %v", err)
	}
	if !strings.Contains(string(data), "# Variance") {
		t.Errorf("output lost source content: %q", data)
	}
	if report.Outcome != history.StatusSucceeded {
		t.Errorf("outcome = %q, want %q", report.Outcome, history.StatusSucceeded)
	}
	if len(report.StageDurations) == 0 {
		t.Error("no stage durations recorded")
	}

	// The staged intermediate must be moved out, not copied.
	leftovers := 0
	err = filepath.Walk(cfg.Compiler.ArtifactDir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			leftovers++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk staging dir: %v", err)
	}
	if leftovers != 0 {
		t.Errorf("staging directory still holds %d artifact files", leftovers)
	}
}

func TestCompileDocument_MissingSource(t *testing.T) {
	dir := t.TempDir()

	var calls atomic.Int64
	runner := NewRunner(testConfig(dir), countingCompiler(&calls))

	report, err := runner.CompileDocument(t.Context(), filepath.Join(dir, "absent.md"))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if !errors.IsCategory(err, errors.CategoryValidation) {
		t.Errorf("category = %v, want %v", errors.GetCategory(err), errors.CategoryValidation)
	}
	if report.Outcome != history.StatusFailed {
		t.Errorf("outcome = %q, want %q", report.Outcome, history.StatusFailed)
	}
	if calls.Load() != 0 {
		t.Errorf("compiler ran %d times for a missing source", calls.Load())
	}
}

func TestCompileDocument_CompileFailureRecorded(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.md")
	writeSource(t, src, "# Broken\n"+failMarker+"\n")

	store := openMemoryStore(t)

	var calls atomic.Int64
	runner := NewRunner(testConfig(dir), countingCompiler(&calls)).WithStore(store)

	_, err := runner.CompileDocument(t.Context(), src)
	if err == nil {
		t.Fatal("expected compile failure")
	}
	if !errors.IsCategory(err, errors.CategoryCompiler) {
		t.Errorf("category = %v, want %v", errors.GetCategory(err), errors.CategoryCompiler)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "broken.compiled.md")); statErr == nil {
		t.Error("failed run must not place an output")
	}

	runs, err := store.Recent(t.Context(), src, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("recorded %d runs, want 1", len(runs))
	}
	if runs[0].Status != history.StatusFailed {
		t.Errorf("recorded status = %q, want %q", runs[0].Status, history.StatusFailed)
	}
	if runs[0].Error == "" {
		t.Error("failed run recorded without an error message")
	}
}

func TestCompileDocument_SkipsUnchangedSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.md")
	writeSource(t, src, "# Notes\n")

	store := openMemoryStore(t)

	var calls atomic.Int64
	runner := NewRunner(testConfig(dir), countingCompiler(&calls)).WithStore(store)

	if _, err := runner.CompileDocument(t.Context(), src); err != nil {
		t.Fatalf("first run: %v", err)
	}

	report, err := runner.CompileDocument(t.Context(), src)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Outcome != history.StatusSkipped {
		t.Errorf("outcome = %q, want %q", report.Outcome, history.StatusSkipped)
	}
	if report.SkipReason != "unchanged" {
		t.Errorf("skip reason = %q, want unchanged", report.SkipReason)
	}
	if report.Output == "" {
		t.Error("skipped run should still report the existing output")
	}
	if calls.Load() != 1 {
		t.Errorf("compiler ran %d times, want 1", calls.Load())
	}

	// Editing the source invalidates the signature.
	writeSource(t, src, "# Notes\n\nrevised\n")
	report, err = runner.CompileDocument(t.Context(), src)
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if report.Outcome != history.StatusSucceeded {
		t.Errorf("outcome after edit = %q, want %q", report.Outcome, history.StatusSucceeded)
	}
	if calls.Load() != 2 {
		t.Errorf("compiler ran %d times after edit, want 2", calls.Load())
	}
}

func TestCompileDocument_RecompilesWhenCompilerChanges(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.md")
	writeSource(t, src, "# Notes\n")

	store := openMemoryStore(t)

	var calls atomic.Int64
	if _, err := NewRunner(testConfig(dir), countingCompiler(&calls)).WithStore(store).
		CompileDocument(t.Context(), src); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Same source, different compiler flags: the signature must miss.
	changed := testConfig(dir)
	changed.Compiler.Args = []string{"--strict"}

	report, err := NewRunner(changed, countingCompiler(&calls)).WithStore(store).
		CompileDocument(t.Context(), src)
	if err != nil {
		t.Fatalf("run with changed args: %v", err)
	}
	if report.Outcome != history.StatusSucceeded {
		t.Errorf("outcome = %q, want %q (changed compiler args must recompile)", report.Outcome, history.StatusSucceeded)
	}
	if calls.Load() != 2 {
		t.Errorf("compiler ran %d times, want 2", calls.Load())
	}
}

func TestCompileDocument_ForceRecompiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.md")
	writeSource(t, src, "# Notes\n")

	store := openMemoryStore(t)

	var calls atomic.Int64
	runner := NewRunner(testConfig(dir), countingCompiler(&calls)).WithStore(store)

	if _, err := runner.CompileDocument(t.Context(), src); err != nil {
		t.Fatalf("first run: %v", err)
	}

	report, err := runner.WithForce(true).CompileDocument(t.Context(), src)
	if err != nil {
		t.Fatalf("forced run: %v", err)
	}
	if report.Outcome != history.StatusSucceeded {
		t.Errorf("forced outcome = %q, want %q", report.Outcome, history.StatusSucceeded)
	}
	if calls.Load() != 2 {
		t.Errorf("compiler ran %d times, want 2", calls.Load())
	}
}

func TestCompileDocument_RecompilesWhenOutputRemoved(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.md")
	writeSource(t, src, "# Notes\n")

	store := openMemoryStore(t)

	var calls atomic.Int64
	runner := NewRunner(testConfig(dir), countingCompiler(&calls)).WithStore(store)

	if _, err := runner.CompileDocument(t.Context(), src); err != nil {
		t.Fatalf("first run: %v", err)
	}

	output := filepath.Join(dir, "notes.compiled.md")
	if err := os.Remove(output); err != nil {
		t.Fatalf("remove output: %v", err)
	}

	report, err := runner.CompileDocument(t.Context(), src)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Outcome != history.StatusSucceeded {
		t.Errorf("outcome = %q, want %q (missing output must recompile)", report.Outcome, history.StatusSucceeded)
	}
	if calls.Load() != 2 {
		t.Errorf("compiler ran %d times, want 2", calls.Load())
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("output not restored: %v", err)
	}
}

func TestCompileDocument_BrokenLinksAreAdvisory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "guide.md")
	writeSource(t, src, "# Guide\n")

	comp := compiler.Func(func(_ context.Context, req compiler.Request) (*compiler.Result, error) {
		artifact := filepath.Join(req.ArtifactDir, req.Base+".md")
		content := "# Guide\n\n[missing chapter](./gone.md)\n"
		if err := os.WriteFile(artifact, []byte(content), 0o600); err != nil {
			return nil, err
		}
		return &compiler.Result{ArtifactPath: artifact}, nil
	})

	cfg := testConfig(dir)
	cfg.Build.VerifyLinks = true

	report, err := NewRunner(cfg, comp).CompileDocument(t.Context(), src)
	if err != nil {
		t.Fatalf("CompileDocument: %v", err)
	}
	if report.Outcome != history.StatusSucceeded {
		t.Errorf("outcome = %q, broken links must not fail the run", report.Outcome)
	}
	if report.Findings != 1 {
		t.Errorf("findings = %d, want 1", report.Findings)
	}
}

func TestCompileAll_ContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	writeSource(t, filepath.Join(docs, "good.md"), "# Good\n")
	writeSource(t, filepath.Join(docs, "bad.md"), failMarker+"\n")
	writeSource(t, filepath.Join(docs, "good.compiled.md"), "stale output\n")

	var calls atomic.Int64
	runner := NewRunner(testConfig(docs), countingCompiler(&calls))

	reports, err := runner.CompileAll(t.Context())
	if err == nil {
		t.Fatal("expected sweep error when a document fails")
	}
	if !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("error = %v, want a failure count", err)
	}
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}
	if calls.Load() != 2 {
		t.Errorf("compiler ran %d times, want 2 (outputs must not be rediscovered)", calls.Load())
	}

	// The stale output is replaced, not appended to.
	data, err := os.ReadFile(filepath.Join(docs, "good.compiled.md"))
	if err != nil {
		t.Fatalf("good output missing: %v", err)
	}
	if strings.Contains(string(data), "stale") || !strings.Contains(string(data), "# Good") {
		t.Errorf("stale output not replaced: %q", data)
	}
}

type capturingRecorder struct {
	stages   map[string]int
	results  map[string]metrics.ResultLabel
	outcomes map[metrics.ResultLabel]int
	runs     int
}

func newCapturingRecorder() *capturingRecorder {
	return &capturingRecorder{
		stages:   map[string]int{},
		results:  map[string]metrics.ResultLabel{},
		outcomes: map[metrics.ResultLabel]int{},
	}
}

func (c *capturingRecorder) ObserveStageDuration(stage string, _ time.Duration) { c.stages[stage]++ }
func (c *capturingRecorder) ObserveRunDuration(time.Duration)                   { c.runs++ }
func (c *capturingRecorder) IncStageResult(stage string, r metrics.ResultLabel) { c.results[stage] = r }
func (c *capturingRecorder) IncRunOutcome(o metrics.ResultLabel)                { c.outcomes[o]++ }
func (c *capturingRecorder) IncWatchEvents(int)                                 {}
func (c *capturingRecorder) IncWatchTriggers()                                  {}
func (c *capturingRecorder) SetQueueDepth(int)                                  {}

func TestCompileDocument_RecordsMetrics(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "metered.md")
	writeSource(t, src, "# Metered\n")

	rec := newCapturingRecorder()
	var calls atomic.Int64
	runner := NewRunner(testConfig(dir), countingCompiler(&calls)).WithRecorder(rec)

	if _, err := runner.CompileDocument(t.Context(), src); err != nil {
		t.Fatalf("CompileDocument: %v", err)
	}

	if rec.outcomes[metrics.ResultSuccess] != 1 {
		t.Errorf("success outcomes = %d, want 1", rec.outcomes[metrics.ResultSuccess])
	}
	if rec.stages[string(StageCompile)] != 1 {
		t.Errorf("compile stage observed %d times, want 1", rec.stages[string(StageCompile)])
	}
	if rec.results[string(StagePlace)] != metrics.ResultSuccess {
		t.Errorf("place stage result = %q, want success", rec.results[string(StagePlace)])
	}
	if rec.runs != 1 {
		t.Errorf("run durations observed = %d, want 1", rec.runs)
	}
}
