package curriculum

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Loader loads and caches every curriculum sheet found under a directory.
type Loader struct {
	rootDir string
	sheets  map[string][]Row
	mu      sync.RWMutex
}

// NewLoader creates a new curriculum loader and loads all sheets.
// A missing directory yields an empty loader.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{
		rootDir: rootDir,
		sheets:  make(map[string][]Row),
	}

	if err := l.Reload(); err != nil {
		return nil, fmt.Errorf("loading curriculum: %w", err)
	}

	slog.Info("curriculum loaded", "sheets", len(l.sheets), "rows", len(l.Rows()))
	return l, nil
}

// Rows returns all loaded rows, ordered by sheet path and then sheet order.
func (l *Loader) Rows() []Row {
	l.mu.RLock()
	defer l.mu.RUnlock()

	paths := make([]string, 0, len(l.sheets))
	for p := range l.sheets {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var rows []Row
	for _, p := range paths {
		rows = append(rows, l.sheets[p]...)
	}
	return rows
}

// ForWeek returns the rows for one week.
func (l *Loader) ForWeek(weekNo int) []Row {
	var rows []Row
	for _, r := range l.Rows() {
		if r.Week() == weekNo {
			rows = append(rows, r)
		}
	}
	return rows
}

// Reload re-reads every sheet under the root directory.
func (l *Loader) Reload() error {
	sheets := make(map[string][]Row)
	err := filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !isSheet(path) {
			return nil
		}
		rows, err := ParseFile(path)
		if err != nil {
			slog.Warn("skipping invalid curriculum sheet", "path", path, "error", err)
			return nil
		}
		sheets[path] = rows
		return nil
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	l.mu.Lock()
	l.sheets = sheets
	l.mu.Unlock()
	return nil
}

// Watch reloads the sheets whenever a file under the root directory changes.
// It blocks until ctx is cancelled.
func (l *Loader) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(l.rootDir); err != nil {
		return fmt.Errorf("watching %s: %w", l.rootDir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isSheet(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			if err := l.Reload(); err != nil {
				slog.Warn("curriculum reload failed", "error", err)
				continue
			}
			slog.Info("curriculum reloaded", "trigger", ev.Name, "rows", len(l.Rows()))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("curriculum watcher error", "error", err)
		}
	}
}

func isSheet(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx", ".yaml", ".yml":
		return !strings.HasPrefix(filepath.Base(path), "~$")
	}
	return false
}
