package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/litbuilder/internal/logfields"
)

// addTree registers the watcher on root and every non-hidden subdirectory.
func (s *Service) addTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}
		if err := s.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		slog.Debug("Watching directory", logfields.Path(path))
		return nil
	})
}

// eventLoop dispatches filesystem events until the watcher closes.
func (s *Service) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(event)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

func (s *Service) handleEvent(event fsnotify.Event) {
	s.recorder.IncWatchEvents(1)

	// New directories join the watch so sources created inside them are seen.
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				return
			}
			if err := s.addTree(event.Name); err != nil {
				slog.Warn("Failed to watch new directory",
					logfields.Path(event.Name),
					logfields.Error(err))
			}
			return
		}
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	if !s.scanner.Matches(event.Name) {
		return
	}
	// A rename reports the old path; only compile it if something still
	// lives there (editors that save via rename emit Create on the target).
	if event.Op&fsnotify.Rename == fsnotify.Rename {
		if _, err := os.Stat(event.Name); err != nil {
			return
		}
	}

	slog.Debug("Source change detected",
		logfields.File(event.Name),
		slog.String("op", event.Op.String()))
	s.trigger(event.Name)
}

// trigger restarts the per-document debounce timer; the document is queued
// once events stop arriving for a full quiet window.
func (s *Service) trigger(path string) {
	quiet := s.cfg.WatchDebounce()

	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.pending[path]; ok {
		timer.Stop()
	}
	s.pending[path] = time.AfterFunc(quiet, func() {
		s.mu.Lock()
		delete(s.pending, path)
		s.mu.Unlock()
		s.enqueue(path)
	})
}
