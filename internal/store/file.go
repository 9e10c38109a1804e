package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ErrCorruptIndex is returned when the index file is not valid JSON or does
// not match the index schema.
var ErrCorruptIndex = errors.New("syllabus index is corrupt")

//go:embed index.schema.json
var indexSchema string

var indexSchemaLoader = gojsonschema.NewStringLoader(indexSchema)

// FileStore keeps the library in a single pretty-printed JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by the index file at path. The parent
// directory is created if needed; a missing file is an empty library.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the index file location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) List(_ context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range recs {
		if recs[i].ID == id {
			return &recs[i], nil
		}
	}
	return nil, notFound(id)
}

func (s *FileStore) Add(_ context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.load()
	if err != nil {
		return Record{}, err
	}
	rec = prepare(rec)
	for _, r := range recs {
		if r.ID == rec.ID {
			return Record{}, fmt.Errorf("syllabus already exists: %s", rec.ID)
		}
	}
	if err := s.save(append(recs, rec)); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *FileStore) Update(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.load()
	if err != nil {
		return err
	}
	for i := range recs {
		if recs[i].ID == rec.ID {
			recs[i] = prepare(rec)
			return s.save(recs)
		}
	}
	return notFound(rec.ID)
}

func (s *FileStore) Delete(_ context.Context, id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range recs {
		if recs[i].ID == id {
			deleted := recs[i]
			if err := s.save(append(recs[:i:i], recs[i+1:]...)); err != nil {
				return nil, err
			}
			return &deleted, nil
		}
	}
	return nil, notFound(id)
}

func (s *FileStore) load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return []Record{}, nil
	}

	result, err := gojsonschema.Validate(indexSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrCorruptIndex, strings.Join(msgs, "; "))
	}

	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	return recs, nil
}

// save writes the index through a temp file and rename so readers never see
// a partial file.
func (s *FileStore) save(recs []Record) error {
	if recs == nil {
		recs = []Record{}
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "index-*.json")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(recs); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("encode index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp index: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename temp index: %w", err)
	}
	return nil
}
