// Package build orchestrates compile runs: it resolves the source document,
// fingerprints it, invokes the external compiler, places the artifact beside
// the source, and verifies local links in the output.
package build

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/litbuilder/internal/compiler"
	"git.home.luguber.info/inful/litbuilder/internal/config"
	"git.home.luguber.info/inful/litbuilder/internal/document"
	"git.home.luguber.info/inful/litbuilder/internal/errors"
	"git.home.luguber.info/inful/litbuilder/internal/fingerprint"
	"git.home.luguber.info/inful/litbuilder/internal/gitinfo"
	"git.home.luguber.info/inful/litbuilder/internal/history"
	"git.home.luguber.info/inful/litbuilder/internal/linkcheck"
	"git.home.luguber.info/inful/litbuilder/internal/logfields"
	"git.home.luguber.info/inful/litbuilder/internal/metrics"
	"git.home.luguber.info/inful/litbuilder/internal/notify"
	"git.home.luguber.info/inful/litbuilder/internal/observability"
	"git.home.luguber.info/inful/litbuilder/internal/workspace"
)

// Runner executes compile runs for documents.
type Runner struct {
	cfg      *config.Config
	compiler compiler.Compiler
	store    history.Store // nil when history is disabled
	notifier notify.Notifier
	recorder metrics.Recorder
	force    bool
}

// NewRunner creates a Runner with no history, no notifications, and noop
// metrics. Use the With* methods to attach them.
func NewRunner(cfg *config.Config, comp compiler.Compiler) *Runner {
	return &Runner{
		cfg:      cfg,
		compiler: comp,
		notifier: notify.NopNotifier{},
		recorder: metrics.NoopRecorder{},
	}
}

// WithStore attaches a run-history store.
func (r *Runner) WithStore(store history.Store) *Runner {
	if store != nil {
		r.store = store
	}
	return r
}

// WithNotifier attaches a run-event publisher.
func (r *Runner) WithNotifier(n notify.Notifier) *Runner {
	if n != nil {
		r.notifier = n
	}
	return r
}

// WithRecorder attaches a metrics recorder.
func (r *Runner) WithRecorder(rec metrics.Recorder) *Runner {
	if rec != nil {
		r.recorder = rec
	}
	return r
}

// WithForce disables the incremental skip for subsequent runs.
func (r *Runner) WithForce(force bool) *Runner {
	r.force = force
	return r
}

// CompileDocument runs the full pipeline for one source document. The report
// is returned even when the run fails.
func (r *Runner) CompileDocument(ctx context.Context, sourcePath string) (*Report, error) {
	runID := uuid.NewString()
	ctx = observability.WithRunID(ctx, runID)
	ctx = observability.WithDocument(ctx, sourcePath)

	rs := newRunState(runID, sourcePath)
	observability.InfoContext(ctx, "Compile run starting")

	var staging *workspace.Manager
	if dir := r.cfg.Compiler.ArtifactDir; dir != "" {
		staging = workspace.NewPersistentManager(dir)
	} else {
		staging = workspace.NewManager("")
	}
	if err := staging.Create(); err != nil {
		return r.finish(ctx, rs, errors.WorkspaceError("create staging", err))
	}
	defer func() {
		if err := staging.Cleanup(); err != nil {
			observability.WarnContext(ctx, "Staging cleanup failed", logfields.Error(err))
		}
	}()

	artifactDir, err := staging.RunDir(runID)
	if err != nil {
		return r.finish(ctx, rs, errors.WorkspaceError("create run directory", err))
	}
	rs.ArtifactDir = artifactDir

	stages := []StageDef{
		{Name: StageResolve, Fn: r.stageResolve},
		{Name: StageFingerprint, Fn: r.stageFingerprint},
		{Name: StageCompile, Fn: r.stageCompile},
		{Name: StagePlace, Fn: r.stagePlace},
		{Name: StageVerifyLinks, Fn: r.stageVerifyLinks},
	}

	return r.finish(ctx, rs, r.runStages(ctx, rs, stages))
}

// CompileAll compiles every document under the configured source directory.
// Per-document failures do not stop the sweep.
func (r *Runner) CompileAll(ctx context.Context) ([]*Report, error) {
	scanner := document.NewScanner(r.cfg.Source.Extensions)
	docs, err := scanner.Scan(r.cfg.Source.Dir)
	if err != nil {
		return nil, errors.DiscoveryError(err)
	}

	reports := make([]*Report, 0, len(docs))
	failures := 0
	for _, doc := range docs {
		select {
		case <-ctx.Done():
			return reports, ctx.Err()
		default:
		}

		report, err := r.CompileDocument(ctx, doc.Path)
		if report != nil {
			reports = append(reports, report)
		}
		if err != nil {
			failures++
		}
	}

	if failures > 0 {
		return reports, fmt.Errorf("%d of %d documents failed to compile", failures, len(docs))
	}
	return reports, nil
}

// runStages executes stages in order, recording timing and stopping on the
// first error. A stage may mark the run skipped, which ends it successfully.
func (r *Runner) runStages(ctx context.Context, rs *RunState, stages []StageDef) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			r.recorder.IncStageResult(string(st.Name), metrics.ResultFailed)
			return errors.BuildFailed(string(st.Name), ctx.Err())
		default:
		}

		stageCtx := observability.WithStage(ctx, string(st.Name))
		t0 := time.Now()
		err := st.Fn(stageCtx, rs)
		dur := time.Since(t0)
		rs.Report.StageDurations[st.Name] = dur
		r.recorder.ObserveStageDuration(string(st.Name), dur)

		if err != nil {
			r.recorder.IncStageResult(string(st.Name), metrics.ResultFailed)
			observability.ErrorContext(stageCtx, "Stage failed",
				logfields.Error(err),
				logfields.DurationMS(float64(dur.Milliseconds())))
			return err
		}

		r.recorder.IncStageResult(string(st.Name), metrics.ResultSuccess)
		observability.DebugContext(stageCtx, "Stage complete",
			logfields.DurationMS(float64(dur.Milliseconds())))

		if rs.Skipped {
			return nil
		}
	}
	return nil
}

func (r *Runner) stageResolve(ctx context.Context, rs *RunState) error {
	doc, err := document.Resolve(rs.Source)
	if err != nil {
		return errors.SourceNotFound(rs.Source, err)
	}
	rs.Doc = doc

	info, err := gitinfo.Lookup(doc.Path)
	switch {
	case err == nil:
		rs.Provenance = info
	case stderrors.Is(err, gitinfo.ErrNotARepository):
		observability.DebugContext(ctx, "Source outside git repository")
	default:
		observability.WarnContext(ctx, "Git provenance unavailable", logfields.Error(err))
	}
	return nil
}

func (r *Runner) stageFingerprint(ctx context.Context, rs *RunState) error {
	fp, err := fingerprint.Source(rs.Doc.Path)
	if err != nil {
		return errors.BuildFailed(string(StageFingerprint), err)
	}

	sig, err := fingerprint.New(fp, r.cfg.Compiler.Command, r.cfg.Compiler.Args,
		r.cfg.Compiler.ArtifactExt, document.CompiledSuffix)
	if err != nil {
		return errors.BuildFailed(string(StageFingerprint), err)
	}
	rs.Signature = sig

	if r.force || !r.cfg.IncrementalEnabled() || r.store == nil {
		return nil
	}

	last, err := r.store.LastSuccess(ctx, rs.Source)
	if err != nil {
		observability.WarnContext(ctx, "History lookup failed", logfields.Error(err))
		return nil
	}
	if last == nil || last.Signature != sig.Hash {
		return nil
	}

	output := rs.Doc.OutputPath()
	if _, err := os.Stat(output); err != nil {
		observability.DebugContext(ctx, "Signature unchanged but output missing; recompiling")
		return nil
	}

	rs.Skipped = true
	rs.SkipReason = "unchanged"
	rs.OutputPath = output
	observability.InfoContext(ctx, "Source unchanged since last successful run; skipping",
		logfields.Output(output))
	return nil
}

func (r *Runner) stageCompile(ctx context.Context, rs *RunState) error {
	if timeout := r.cfg.CompilerTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := r.compiler.Compile(ctx, compiler.Request{
		SourcePath:  rs.Doc.Path,
		Base:        rs.Doc.Name,
		ArtifactDir: rs.ArtifactDir,
	})
	if err != nil {
		return errors.CompilerFailed(r.cfg.Compiler.Command, err)
	}
	rs.ArtifactPath = res.ArtifactPath
	return nil
}

func (r *Runner) stagePlace(ctx context.Context, rs *RunState) error {
	dest, err := document.PlaceArtifact(rs.ArtifactPath, rs.Doc.Path)
	if err != nil {
		return errors.PlacementFailed(document.OutputPath(rs.Doc.Path), err)
	}
	rs.OutputPath = dest
	observability.InfoContext(ctx, "Output placed", logfields.Output(dest))
	return nil
}

func (r *Runner) stageVerifyLinks(ctx context.Context, rs *RunState) error {
	if !r.cfg.Build.VerifyLinks {
		observability.DebugContext(ctx, "Link verification disabled")
		return nil
	}

	findings, err := linkcheck.CheckFile(rs.OutputPath)
	if err != nil {
		// Advisory stage: an unreadable output is already placed, so only warn.
		observability.WarnContext(ctx, "Link verification could not run", logfields.Error(err))
		return nil
	}
	rs.Findings = findings
	for _, f := range findings {
		observability.WarnContext(ctx, "Broken local link in output",
			logfields.URL(f.Destination),
			logfields.Path(f.Target))
	}
	return nil
}

// finish closes out the run: outcome classification, metrics, history, and
// notifications. History and notify failures are logged, never returned.
func (r *Runner) finish(ctx context.Context, rs *RunState, runErr error) (*Report, error) {
	rs.Report.Duration = time.Since(rs.start)
	rs.Report.Output = rs.OutputPath
	rs.Report.SkipReason = rs.SkipReason
	rs.Report.Findings = len(rs.Findings)
	r.recorder.ObserveRunDuration(rs.Report.Duration)

	switch {
	case runErr != nil:
		rs.Report.Outcome = history.StatusFailed
		rs.Report.Error = runErr.Error()
		r.recorder.IncRunOutcome(metrics.ResultFailed)
	case rs.Skipped:
		rs.Report.Outcome = history.StatusSkipped
		r.recorder.IncRunOutcome(metrics.ResultSkipped)
	default:
		rs.Report.Outcome = history.StatusSucceeded
		r.recorder.IncRunOutcome(metrics.ResultSuccess)
	}

	r.record(ctx, rs)
	r.publish(ctx, rs)

	if runErr != nil {
		observability.ErrorContext(ctx, "Compile run failed", logfields.Error(runErr))
		return rs.Report, runErr
	}
	if rs.Skipped {
		observability.InfoContext(ctx, "Compile run skipped",
			slog.String("reason", rs.SkipReason))
	} else {
		observability.InfoContext(ctx, "Compile run complete",
			logfields.Output(rs.Report.Output),
			logfields.DurationMS(float64(rs.Report.Duration.Milliseconds())))
	}
	return rs.Report, nil
}

func (r *Runner) record(ctx context.Context, rs *RunState) {
	if r.store == nil {
		return
	}

	run := history.Run{
		RunID:     rs.RunID,
		Document:  rs.Source,
		Output:    rs.Report.Output,
		Status:    rs.Report.Outcome,
		Error:     rs.Report.Error,
		Duration:  rs.Report.Duration,
		StartedAt: rs.start,
	}
	if rs.Signature != nil {
		run.Signature = rs.Signature.Hash
	}
	if rs.Provenance != nil {
		run.Commit = rs.Provenance.Commit
		run.Dirty = rs.Provenance.Dirty
	}

	// The record must land even when the run was canceled.
	if err := r.store.Append(context.WithoutCancel(ctx), run); err != nil {
		observability.WarnContext(ctx, "Failed to record run history", logfields.Error(err))
	}
}

func (r *Runner) publish(ctx context.Context, rs *RunState) {
	event := &notify.RunEvent{
		RunID:       rs.RunID,
		Document:    rs.Source,
		Output:      rs.Report.Output,
		Status:      rs.Report.Outcome,
		Error:       rs.Report.Error,
		BrokenLinks: rs.Report.Findings,
		DurationMS:  rs.Report.Duration.Milliseconds(),
	}
	if rs.Provenance != nil {
		event.Commit = rs.Provenance.Commit
	}

	if err := r.notifier.PublishRun(event); err != nil {
		observability.WarnContext(ctx, "Failed to publish run event", logfields.Error(err))
	}
}
