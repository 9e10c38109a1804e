// Package planner ties the syllabus parser, the library store and the lesson
// plan builders together into the operations exposed by the HTTP API, the
// Telegram bot and the CLI.
package planner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yko79135/lessonplangenerator/internal/extract"
	"github.com/yko79135/lessonplangenerator/internal/platform/cache"
	"github.com/yko79135/lessonplangenerator/internal/store"
	"github.com/yko79135/lessonplangenerator/internal/syllabus"
)

const (
	defaultCacheTTL = 24 * time.Hour
	defaultName     = "syllabus.pdf"
)

// LibraryConfig holds dependencies for the syllabus library.
type LibraryConfig struct {
	Dir       string // where uploaded PDFs are written (required)
	Store     store.Store
	Extractor extract.Extractor
	Cache     cache.Cache
	CacheTTL  time.Duration
	Events    EventLogger
}

// Library manages uploaded syllabi: the stored PDF files and their parsed weeks.
type Library struct {
	dir       string
	store     store.Store
	extractor extract.Extractor
	cache     cache.Cache
	cacheTTL  time.Duration
	events    EventLogger
}

// NewLibrary creates a library, filling unset dependencies with in-memory defaults.
func NewLibrary(cfg LibraryConfig) (*Library, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("library directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating library directory: %w", err)
	}

	l := &Library{
		dir:       cfg.Dir,
		store:     cfg.Store,
		extractor: cfg.Extractor,
		cache:     cfg.Cache,
		cacheTTL:  cfg.CacheTTL,
		events:    cfg.Events,
	}
	if l.store == nil {
		l.store = store.NewMemoryStore()
	}
	if l.extractor == nil {
		l.extractor = extract.NewPDFExtractor()
	}
	if l.cache == nil {
		l.cache = cache.NewMemory()
	}
	if l.cacheTTL == 0 {
		l.cacheTTL = defaultCacheTTL
	}
	if l.events == nil {
		l.events = NopEventLogger{}
	}
	return l, nil
}

// Store exposes the underlying record store.
func (l *Library) Store() store.Store {
	return l.store
}

// SanitizeName makes an uploaded file name safe to use as a path component.
func SanitizeName(name string) string {
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		return defaultName
	}
	return name
}

// Parse extracts and parses PDF content. Results are cached by content hash.
// A PDF without a text layer fails with extract.ErrNoExtractableText.
func (l *Library) Parse(ctx context.Context, content []byte) (syllabus.Document, error) {
	sum := sha256.Sum256(content)
	key := "parsed:" + hex.EncodeToString(sum[:])

	var doc syllabus.Document
	err := cache.GetJSON(ctx, l.cache, key, &doc)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		slog.Warn("parse cache read failed", "error", err)
	}

	text, err := l.extractor.Extract(ctx, content)
	if err != nil {
		return syllabus.Document{}, fmt.Errorf("extracting text: %w", err)
	}

	doc = syllabus.Parse(text)
	if err := cache.SetJSON(ctx, l.cache, key, doc, l.cacheTTL); err != nil {
		slog.Warn("parse cache write failed", "error", err)
	}
	return doc, nil
}

// Add stores an uploaded PDF, parses it and appends a record to the library.
// The record keeps the name as uploaded; only the stored file name is sanitized.
func (l *Library) Add(ctx context.Context, name string, content []byte) (store.Record, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultName
	}

	doc, err := l.Parse(ctx, content)
	if err != nil {
		return store.Record{}, err
	}

	id := uuid.NewString()
	path := filepath.Join(l.dir, id+"_"+SanitizeName(name))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return store.Record{}, fmt.Errorf("writing syllabus file: %w", err)
	}

	rec, err := l.store.Add(ctx, store.Record{
		ID:         id,
		Name:       name,
		Path:       path,
		Weeks:      doc.Weeks,
		OutlineMap: doc.OutlineMap,
	})
	if err != nil {
		_ = os.Remove(path)
		return store.Record{}, fmt.Errorf("saving syllabus record: %w", err)
	}

	slog.Info("syllabus added",
		"syllabus_id", rec.ID,
		"name", rec.Name,
		"weeks", len(rec.Weeks),
		"outline_codes", len(rec.OutlineMap),
	)
	logEvent(l.events, Event{
		SyllabusID: rec.ID,
		EventType:  EventSyllabusAdded,
		Data:       map[string]any{"name": rec.Name, "weeks": len(rec.Weeks)},
	})
	return rec, nil
}

// List returns every record in upload order.
func (l *Library) List(ctx context.Context) ([]store.Record, error) {
	return l.store.List(ctx)
}

// Get returns one record, back-filling its outline map if it predates outlines.
func (l *Library) Get(ctx context.Context, id string) (*store.Record, error) {
	rec, err := l.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	l.EnsureOutline(ctx, rec)
	return rec, nil
}

// EnsureOutline re-parses the stored PDF of a record saved without an outline
// map. Any failure leaves the record with an empty map.
func (l *Library) EnsureOutline(ctx context.Context, rec *store.Record) {
	if rec.OutlineMap != nil {
		return
	}
	rec.OutlineMap = syllabus.OutlineMap{}

	content, err := os.ReadFile(rec.Path)
	if err != nil {
		slog.Warn("outline backfill: reading pdf failed", "syllabus_id", rec.ID, "error", err)
	} else if doc, err := l.Parse(ctx, content); err != nil {
		slog.Warn("outline backfill: parsing failed", "syllabus_id", rec.ID, "error", err)
	} else {
		rec.OutlineMap = doc.OutlineMap
	}

	if err := l.store.Update(ctx, *rec); err != nil {
		slog.Warn("outline backfill: saving record failed", "syllabus_id", rec.ID, "error", err)
	}
}

// Delete removes a record and its stored PDF. A PDF already gone from disk is ignored.
func (l *Library) Delete(ctx context.Context, id string) error {
	rec, err := l.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if err := os.Remove(rec.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("removing syllabus file failed", "path", rec.Path, "error", err)
	}

	slog.Info("syllabus deleted", "syllabus_id", id)
	logEvent(l.events, Event{SyllabusID: id, EventType: EventSyllabusDeleted})
	return nil
}
