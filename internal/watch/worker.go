package watch

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/litbuilder/internal/logfields"
)

// enqueue puts a document on the build queue unless it is already waiting.
func (s *Service) enqueue(path string) {
	s.mu.Lock()
	if s.queued.Has(path) {
		s.mu.Unlock()
		return
	}
	s.queued.Add(path)
	depth := s.queued.Len()
	s.mu.Unlock()

	s.recorder.SetQueueDepth(depth)

	select {
	case s.queue <- path:
	default:
		// Queue full; drop the marker so a later event can try again.
		s.mu.Lock()
		s.queued.Delete(path)
		s.mu.Unlock()
		slog.Warn("Watch queue full, dropping trigger", logfields.Document(path))
	}
}

// worker drains the queue one document at a time. A document that changes
// while its build is running gets re-queued by the next event rather than
// compiled concurrently.
func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-s.queue:
			s.mu.Lock()
			s.queued.Delete(path)
			depth := s.queued.Len()
			s.mu.Unlock()
			s.recorder.SetQueueDepth(depth)

			s.recorder.IncWatchTriggers()
			if _, err := s.builder.CompileDocument(ctx, path); err != nil {
				// The runner already logged details; watch mode keeps going.
				slog.Warn("Watched document failed to compile",
					logfields.Document(path),
					logfields.Error(err))
			}
		}
	}
}
