package services

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync/atomic"
	"time"

	"mentor/internal/config"

	"github.com/fsnotify/fsnotify"
)

// PersonaStore holds the active persona. Readers always see a complete persona;
// reloads swap it atomically.
type PersonaStore struct {
	current atomic.Pointer[config.Persona]
	path    string
}

// NewPersonaStore loads the persona from path, or the built-in default when path is empty.
func NewPersonaStore(path string) (*PersonaStore, error) {
	s := &PersonaStore{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the active persona
func (s *PersonaStore) Get() *config.Persona {
	return s.current.Load()
}

// Set replaces the active persona
func (s *PersonaStore) Set(p *config.Persona) {
	if p == nil {
		p = config.DefaultPersona()
	}
	s.current.Store(p)
}

// Reload re-reads the persona file. On error the previous persona stays active.
func (s *PersonaStore) Reload() error {
	if s.path == "" {
		s.Set(config.DefaultPersona())
		return nil
	}
	p, err := config.LoadPersona(s.path)
	if err != nil {
		return fmt.Errorf("failed to load persona: %w", err)
	}
	s.Set(p)
	return nil
}

// Watch reloads the persona whenever its file changes, until ctx is cancelled.
func (s *PersonaStore) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	absPath, err := filepath.Abs(s.path)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("failed to get absolute path for %s: %w", s.path, err)
	}

	// Editors replace files on save, so watch the directory.
	dir := filepath.Dir(absPath)
	filename := filepath.Base(absPath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	log.Printf("👁️  Watching %s for persona changes", s.path)

	go func() {
		defer watcher.Close()

		var debounceTimer *time.Timer
		debounceDuration := 500 * time.Millisecond

		for {
			select {
			case <-ctx.Done():
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != filename {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					if err := s.Reload(); err != nil {
						log.Printf("❌ Persona reload failed, keeping previous: %v", err)
						return
					}
					log.Printf("✅ Persona reloaded from %s", s.path)
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("⚠️  Persona watcher error: %v", err)
			}
		}
	}()

	return nil
}
