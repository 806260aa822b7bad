// Package prompts holds the system prompt templates sent to the completion
// service. The templates define the response format that clients parse
// (the Result, Duration and Insights sections), so they are kept as data
// and validated on every load.
package prompts

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Version identifies the embedded template set.
const Version = "dva2005-v1"

const (
	RAGFile   = "rag_system.md"
	PlainFile = "plain_system.md"
)

// Markers must appear in every template.
var Markers = []string{"**Result:**", "**Duration:**", "**Insights:**"}

//go:embed templates/*.md
var embedded embed.FS

// Store serves the current templates. Reads are safe concurrently with Reload.
type Store struct {
	mu    sync.RWMutex
	rag   string
	plain string

	dir    string
	logger *zap.Logger
}

// Default returns a store holding the embedded templates.
func Default() *Store {
	rag, err := embedded.ReadFile("templates/" + RAGFile)
	if err != nil {
		panic(fmt.Sprintf("prompts: embedded %s: %v", RAGFile, err))
	}
	plain, err := embedded.ReadFile("templates/" + PlainFile)
	if err != nil {
		panic(fmt.Sprintf("prompts: embedded %s: %v", PlainFile, err))
	}
	return &Store{rag: string(rag), plain: string(plain), logger: zap.NewNop()}
}

// Load returns a store whose templates are read from dir, falling back to the
// embedded version for any file dir does not contain. An empty dir yields Default().
func Load(dir string, logger *zap.Logger) (*Store, error) {
	s := Default()
	if logger != nil {
		s.logger = logger
	}
	if dir == "" {
		return s, nil
	}
	s.dir = dir
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// RAG returns the template used when retrieved cases are appended.
func (s *Store) RAG() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rag
}

// Plain returns the template used without retrieval.
func (s *Store) Plain() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plain
}

// Reload re-reads the override directory. On error the current templates stay in place.
func (s *Store) Reload() error {
	if s.dir == "" {
		return nil
	}

	rag, err := s.readOverride(RAGFile)
	if err != nil {
		return err
	}
	plain, err := s.readOverride(PlainFile)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if rag != "" {
		s.rag = rag
	}
	if plain != "" {
		s.plain = plain
	}
	s.mu.Unlock()

	s.logger.Info("prompt templates loaded", zap.String("dir", s.dir))
	return nil
}

func (s *Store) readOverride(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	text := string(data)
	if err := Validate(text); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return text, nil
}

// Validate reports whether a template carries every response format marker.
func Validate(text string) error {
	var missing []string
	for _, m := range Markers {
		if !strings.Contains(text, m) {
			missing = append(missing, m)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("template missing format markers %s", strings.Join(missing, ", "))
	}
	return nil
}

// Watch reloads the templates whenever a file in the override directory changes,
// until ctx is done. It returns once the watcher is running.
func (s *Store) Watch(ctx context.Context) error {
	if s.dir == "" {
		return errors.New("prompts: no override directory to watch")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(s.dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				base := filepath.Base(ev.Name)
				if base != RAGFile && base != PlainFile {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if err := s.Reload(); err != nil {
					s.logger.Warn("prompt reload rejected", zap.String("file", base), zap.Error(err))
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn("prompt watcher error", zap.Error(err))
			}
		}
	}()

	return nil
}
