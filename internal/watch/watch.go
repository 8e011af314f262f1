// Package watch keeps compiled outputs current while sources change: it
// monitors the source tree with fsnotify, debounces bursts of events per
// document, and feeds a single build worker so the same document is never
// compiled concurrently with itself.
package watch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/litbuilder/internal/build"
	"git.home.luguber.info/inful/litbuilder/internal/config"
	"git.home.luguber.info/inful/litbuilder/internal/document"
	"git.home.luguber.info/inful/litbuilder/internal/errors"
	"git.home.luguber.info/inful/litbuilder/internal/logfields"
	"git.home.luguber.info/inful/litbuilder/internal/metrics"
	"git.home.luguber.info/inful/litbuilder/internal/util/sets"
)

// Builder runs compile jobs on behalf of the watcher.
type Builder interface {
	CompileDocument(ctx context.Context, sourcePath string) (*build.Report, error)
	CompileAll(ctx context.Context) ([]*build.Report, error)
}

// Service is the watch-mode loop. Create it with NewService and drive it
// with Run, which blocks until the context is canceled.
type Service struct {
	cfg      *config.Config
	builder  Builder
	scanner  *document.Scanner
	recorder metrics.Recorder
	registry *prometheus.Registry

	watcher   *fsnotify.Watcher
	scheduler gocron.Scheduler

	mu      sync.Mutex
	pending map[string]*time.Timer // per-document debounce timers
	queued  sets.Set[string]       // documents waiting in the queue
	queue   chan string
}

// NewService creates a watch service over the configured source tree.
func NewService(cfg *config.Config, builder Builder) (*Service, error) {
	if builder == nil {
		return nil, errors.ValidationFailed("builder", "a build runner is required")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WatchFailed("create file watcher", err)
	}

	return &Service{
		cfg:      cfg,
		builder:  builder,
		scanner:  document.NewScanner(cfg.Source.Extensions),
		recorder: metrics.NoopRecorder{},
		watcher:  watcher,
		pending:  make(map[string]*time.Timer),
		queued:   sets.New[string](),
		queue:    make(chan string, 64),
	}, nil
}

// WithRecorder attaches a metrics recorder.
func (s *Service) WithRecorder(rec metrics.Recorder) *Service {
	if rec != nil {
		s.recorder = rec
	}
	return s
}

// WithRegistry attaches the Prometheus registry served on /metrics.
func (s *Service) WithRegistry(reg *prometheus.Registry) *Service {
	s.registry = reg
	return s
}

// Run watches the source tree until ctx is canceled, then shuts everything
// down in order: timers, watcher, sweep scheduler, HTTP server.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := s.addTree(s.cfg.Source.Dir); err != nil {
		_ = s.watcher.Close()
		return errors.WatchFailed("watch source tree", err)
	}

	if err := s.startSweep(ctx); err != nil {
		_ = s.watcher.Close()
		return err
	}

	srv := s.startHTTP()

	slog.Info("Watching for changes",
		logfields.Path(s.cfg.Source.Dir),
		slog.Duration("debounce", s.cfg.WatchDebounce()))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.eventLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.worker(ctx)
	}()

	<-ctx.Done()
	s.shutdown(srv)
	wg.Wait()

	slog.Info("Watch mode stopped")
	return nil
}

func (s *Service) shutdown(srv *httpServer) {
	slog.Info("Watch mode stopping")

	s.mu.Lock()
	for path, timer := range s.pending {
		timer.Stop()
		delete(s.pending, path)
	}
	s.mu.Unlock()

	if err := s.watcher.Close(); err != nil {
		slog.Error("Error closing file watcher", logfields.Error(err))
	}

	if s.scheduler != nil {
		if err := s.scheduler.Shutdown(); err != nil {
			slog.Error("Error stopping sweep scheduler", logfields.Error(err))
		}
	}

	srv.stop()
}

// startSweep schedules the periodic full sweep when an interval is
// configured. The sweep recompiles every document whose signature changed
// while the watcher was not looking (editor saves over NFS, branch flips).
func (s *Service) startSweep(ctx context.Context) error {
	interval := s.cfg.SweepInterval()
	if interval <= 0 {
		return nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return errors.WatchFailed("create sweep scheduler", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.sweep, ctx),
		gocron.WithName("full-sweep"),
	)
	if err != nil {
		return errors.WatchFailed("schedule full sweep", err)
	}

	s.scheduler = scheduler
	scheduler.Start()
	slog.Info("Periodic sweep scheduled", slog.Duration("interval", interval))
	return nil
}

// sweep is invoked by gocron on the configured interval.
func (s *Service) sweep(ctx context.Context) {
	slog.Info("Running full sweep")
	if _, err := s.builder.CompileAll(ctx); err != nil {
		slog.Warn("Sweep completed with failures", logfields.Error(err))
	}
}
