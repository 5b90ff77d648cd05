package store

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ChangeFunc is called with the trajectory file name that changed.
type ChangeFunc func(name string)

// watchDebounce absorbs the bursts of write events editors and harnesses
// produce while a file is being flushed.
const watchDebounce = 250 * time.Millisecond

// Watch starts watching the store directory and invokes onChange for every
// created, written or removed trajectory file. It is non-blocking; Close
// stops the watcher.
func (s *Store) Watch(onChange ChangeFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return err
	}

	s.watcher = watcher
	s.done = make(chan struct{})
	go s.watchLoop(watcher, s.done, onChange)
	return nil
}

func (s *Store) watchLoop(watcher *fsnotify.Watcher, done chan struct{}, onChange ChangeFunc) {
	var (
		mu   sync.Mutex
		last = make(map[string]time.Time)
	)

	for {
		select {
		case <-done:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) {
				continue
			}
			name := filepath.Base(event.Name)
			if !IsTrajectoryName(name) {
				continue
			}

			mu.Lock()
			now := time.Now()
			if now.Sub(last[name]) < watchDebounce {
				mu.Unlock()
				continue
			}
			last[name] = now
			mu.Unlock()

			s.logger.Debug("trajectory changed",
				zap.String("name", name), zap.String("op", event.Op.String()))
			onChange(name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("trajectory watcher error", zap.Error(err))
		}
	}
}

// Close stops the change watcher if one is running.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher == nil {
		return nil
	}
	close(s.done)
	err := s.watcher.Close()
	s.watcher = nil
	return err
}
