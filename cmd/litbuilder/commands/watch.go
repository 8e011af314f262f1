package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/litbuilder/internal/config"
	"git.home.luguber.info/inful/litbuilder/internal/metrics"
	"git.home.luguber.info/inful/litbuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct{}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return RunWatch(cfg)
}

func RunWatch(cfg *config.Config) error {
	fmt.Println("Starting watch mode (ctrl-c to stop)")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	runner, cleanup, err := newRunner(ctx, cfg, false, recorder)
	if err != nil {
		return err
	}
	defer cleanup()

	svc, err := watch.NewService(cfg, runner)
	if err != nil {
		return err
	}
	svc.WithRecorder(recorder).WithRegistry(registry)

	return svc.Run(ctx)
}
