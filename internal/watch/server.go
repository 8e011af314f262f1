package watch

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/litbuilder/internal/logfields"
	"git.home.luguber.info/inful/litbuilder/internal/metrics"
)

// httpServer wraps the optional health/metrics listener.
type httpServer struct {
	srv *http.Server
}

// startHTTP starts the health and metrics server when an address is
// configured, and returns nil otherwise. stop is safe on a nil receiver.
func (s *Service) startHTTP() *httpServer {
	addr := s.cfg.Watch.HTTPAddr
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", metrics.HTTPHandler(s.registry))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Watch HTTP server listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			slog.Error("Watch HTTP server failed", logfields.Error(err))
		}
	}()

	return &httpServer{srv: srv}
}

func (h *httpServer) stop() {
	if h == nil || h.srv == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.srv.Shutdown(ctx); err != nil {
		slog.Error("Error stopping watch HTTP server", logfields.Error(err))
	}
}
