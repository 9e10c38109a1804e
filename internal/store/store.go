// Package store persists the syllabus library: uploaded PDFs and their parsed weeks.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yko79135/lessonplangenerator/internal/syllabus"
)

// ErrNotFound is returned when a syllabus id is unknown.
var ErrNotFound = errors.New("syllabus not found")

// Record is one uploaded syllabus.
type Record struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Path       string              `json:"path"`
	UploadedAt time.Time           `json:"uploaded_at"`
	Weeks      []syllabus.WeekInfo `json:"weeks"`
	OutlineMap syllabus.OutlineMap `json:"outline_map"`
}

// UnmarshalJSON accepts uploaded_at with or without a UTC offset. Indexes
// written by the earlier web app store local time as 2006-01-02T15:04:05.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	aux := struct {
		*plain
		UploadedAt string `json:"uploaded_at"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t, err := ParseTimestamp(aux.UploadedAt)
	if err != nil {
		return err
	}
	r.UploadedAt = t
	return nil
}

// ParseTimestamp parses an RFC 3339 time, or a local time without an offset.
// An empty string gives the zero time.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing uploaded_at %q: %w", s, err)
	}
	return t, nil
}

// Label identifies the record in selection lists.
func (r Record) Label() string {
	return fmt.Sprintf("%s (%s)", r.Name, r.UploadedAt.Format("2006-01-02T15:04:05"))
}

// Store persists syllabus records. List returns records in upload order.
type Store interface {
	List(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	Add(ctx context.Context, rec Record) (Record, error)
	Update(ctx context.Context, rec Record) error
	Delete(ctx context.Context, id string) (*Record, error)
}

// prepare assigns an id and upload time when missing and replaces nil
// collections so the record serialises as arrays/objects.
func prepare(rec Record) Record {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.UploadedAt.IsZero() {
		rec.UploadedAt = time.Now()
	}
	rec.UploadedAt = rec.UploadedAt.Truncate(time.Second)
	if rec.Weeks == nil {
		rec.Weeks = []syllabus.WeekInfo{}
	}
	for i := range rec.Weeks {
		if rec.Weeks[i].Events == nil {
			rec.Weeks[i].Events = []string{}
		}
	}
	if rec.OutlineMap == nil {
		rec.OutlineMap = syllabus.OutlineMap{}
	}
	return rec
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	records map[string]Record
	order   []string
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory syllabus store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
	}
}

func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, notFound(id)
	}
	return &rec, nil
}

func (s *MemoryStore) Add(_ context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec = prepare(rec)
	if _, ok := s.records[rec.ID]; ok {
		return Record{}, fmt.Errorf("syllabus already exists: %s", rec.ID)
	}
	s.records[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return rec, nil
}

func (s *MemoryStore) Update(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; !ok {
		return notFound(rec.ID)
	}
	s.records[rec.ID] = prepare(rec)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, notFound(id)
	}
	delete(s.records, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return &rec, nil
}
