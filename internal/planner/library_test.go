package planner_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/yko79135/lessonplangenerator/internal/curriculum"
	"github.com/yko79135/lessonplangenerator/internal/extract"
	"github.com/yko79135/lessonplangenerator/internal/lessonplan"
	"github.com/yko79135/lessonplangenerator/internal/planner"
	"github.com/yko79135/lessonplangenerator/internal/store"
)

const sampleText = `2026학년도 과학 강의계획서
목차
3A 광합성
1주 2.23-2.27 화/목 G6 오리엔테이션
2주 3.2-3.6 G6 3A 실험`

type fakeExtractor struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.text, f.err
}

func (f *fakeExtractor) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestLibrary(t *testing.T, ext extract.Extractor, events planner.EventLogger) (*planner.Library, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "syllabi")
	lib, err := planner.NewLibrary(planner.LibraryConfig{
		Dir:       dir,
		Extractor: ext,
		Events:    events,
	})
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}
	return lib, dir
}

func TestNewLibrary_RequiresDir(t *testing.T) {
	if _, err := planner.NewLibrary(planner.LibraryConfig{}); err == nil {
		t.Fatal("NewLibrary() without Dir should return error")
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"science.pdf", "science.pdf"},
		{"2026/1학기/science.pdf", "2026_1학기_science.pdf"},
		{`C:\docs\plan.pdf`, "C:_docs_plan.pdf"},
		{"  ", "syllabus.pdf"},
		{"..", "syllabus.pdf"},
	}
	for _, tt := range tests {
		if got := planner.SanitizeName(tt.in); got != tt.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLibrary_AddGetDelete(t *testing.T) {
	ctx := context.Background()
	events := planner.NewMemoryEventLogger()
	lib, dir := newTestLibrary(t, &fakeExtractor{text: sampleText}, events)

	rec, err := lib.Add(ctx, "science/2026.pdf", []byte("%PDF-1.4 one"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if rec.Name != "science/2026.pdf" {
		t.Errorf("Name = %q, want science/2026.pdf", rec.Name)
	}
	if want := filepath.Join(dir, rec.ID+"_science_2026.pdf"); rec.Path != want {
		t.Errorf("Path = %q, want %q", rec.Path, want)
	}
	if data, err := os.ReadFile(rec.Path); err != nil || string(data) != "%PDF-1.4 one" {
		t.Errorf("stored file = %q, %v", data, err)
	}
	if len(rec.Weeks) != 2 {
		t.Fatalf("len(Weeks) = %d, want 2", len(rec.Weeks))
	}
	if title, _ := rec.OutlineMap.Title("3a"); title != "광합성" {
		t.Errorf("OutlineMap[3A] = %q, want 광합성", title)
	}

	got, err := lib.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != rec.Name {
		t.Errorf("Get().Name = %q, want %q", got.Name, rec.Name)
	}

	if err := lib.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(rec.Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("stored file still exists after Delete: %v", err)
	}
	if _, err := lib.Get(ctx, rec.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrNotFound", err)
	}

	if n := len(events.OfType(planner.EventSyllabusAdded)); n != 1 {
		t.Errorf("syllabus_added events = %d, want 1", n)
	}
	if n := len(events.OfType(planner.EventSyllabusDeleted)); n != 1 {
		t.Errorf("syllabus_deleted events = %d, want 1", n)
	}
}

func TestLibrary_DeleteMissingFile(t *testing.T) {
	ctx := context.Background()
	lib, _ := newTestLibrary(t, &fakeExtractor{text: sampleText}, nil)

	rec, err := lib.Add(ctx, "a.pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	_ = os.Remove(rec.Path)

	if err := lib.Delete(ctx, rec.ID); err != nil {
		t.Errorf("Delete() with file already gone error = %v", err)
	}
	if err := lib.Delete(ctx, rec.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestLibrary_ParseCachesByContent(t *testing.T) {
	ctx := context.Background()
	ext := &fakeExtractor{text: sampleText}
	lib, _ := newTestLibrary(t, ext, nil)

	for i := 0; i < 3; i++ {
		if _, err := lib.Add(ctx, "same.pdf", []byte("%PDF-1.4 same")); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	if ext.Calls() != 1 {
		t.Errorf("extractor calls = %d, want 1", ext.Calls())
	}

	if _, err := lib.Add(ctx, "other.pdf", []byte("%PDF-1.4 other")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if ext.Calls() != 2 {
		t.Errorf("extractor calls = %d, want 2", ext.Calls())
	}

	recs, _ := lib.List(ctx)
	if len(recs) != 4 {
		t.Errorf("List() = %d records, want 4", len(recs))
	}
}

func TestLibrary_AddWithoutTextLayer(t *testing.T) {
	lib, dir := newTestLibrary(t, &fakeExtractor{err: extract.ErrNoExtractableText}, nil)

	_, err := lib.Add(context.Background(), "scan.pdf", []byte("%PDF-1.4 scan"))
	if !errors.Is(err, extract.ErrNoExtractableText) {
		t.Fatalf("Add() error = %v, want ErrNoExtractableText", err)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("stored files = %d, want none for a scan without text", len(entries))
	}
}

func TestLibrary_AddRejectsUnreadable(t *testing.T) {
	lib, dir := newTestLibrary(t, &fakeExtractor{err: extract.ErrNotPDF}, nil)

	if _, err := lib.Add(context.Background(), "notes.txt", []byte("hello")); !errors.Is(err, extract.ErrNotPDF) {
		t.Fatalf("Add() error = %v, want ErrNotPDF", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("library dir has %d files after failed Add, want 0", len(entries))
	}
}

func TestLibrary_ZeroWeekSurvivesFileStore(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()
	indexPath := filepath.Join(tmp, "syllabi_index.json")
	fs, err := store.NewFileStore(indexPath)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	lib, err := planner.NewLibrary(planner.LibraryConfig{
		Dir:       filepath.Join(tmp, "syllabi"),
		Store:     fs,
		Extractor: &fakeExtractor{text: "0주 2.23-2.27 오리엔테이션\n1주 3.2-3.6 G6 실험\n2주 3.9-3.13 G6 정리"},
	})
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}

	rec, err := lib.Add(ctx, "science.pdf", []byte("%PDF-1.4 science"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	for _, w := range rec.Weeks {
		if w.WeekNo < 1 {
			t.Errorf("week_no = %d, want a positive week number", w.WeekNo)
		}
	}

	reopened, err := store.NewFileStore(indexPath)
	if err != nil {
		t.Fatalf("NewFileStore() reopen error = %v", err)
	}
	recs, err := reopened.List(ctx)
	if err != nil {
		t.Fatalf("List() after Add error = %v", err)
	}
	if len(recs) != 1 || len(recs[0].Weeks) != 2 {
		t.Fatalf("List() = %+v, want one record with 2 weeks", recs)
	}
	if _, err := lib.Add(ctx, "science2.pdf", []byte("%PDF-1.4 science 2")); err != nil {
		t.Errorf("second Add() error = %v", err)
	}
}

func TestLibrary_EnsureOutlineBackfillsLegacyRecord(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()
	pdfPath := filepath.Join(tmp, "legacy.pdf")
	os.WriteFile(pdfPath, []byte("%PDF-1.4 legacy"), 0o644)

	indexPath := filepath.Join(tmp, "syllabi_index.json")
	os.WriteFile(indexPath, []byte(`[{"id": "legacy", "name": "legacy.pdf", "path": "`+filepath.ToSlash(pdfPath)+`",
		"uploaded_at": "2026-01-01T09:30:00",
		"weeks": [{"week_no": 2, "date_range": "3.2-3.6", "events": ["G6"], "details": "2주 3.2-3.6 G6 3A 실험", "raw_text": "2주 3.2-3.6 G6 3A 실험", "year": 2026}]}]`), 0o644)

	fs, err := store.NewFileStore(indexPath)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	lib, err := planner.NewLibrary(planner.LibraryConfig{
		Dir:       filepath.Join(tmp, "syllabi"),
		Store:     fs,
		Extractor: &fakeExtractor{text: sampleText},
	})
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}

	rec, err := lib.Get(ctx, "legacy")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.OutlineMap["3A"] != "광합성" {
		t.Errorf("OutlineMap = %v, want 3A backfilled", rec.OutlineMap)
	}

	data, _ := os.ReadFile(indexPath)
	if !strings.Contains(string(data), "광합성") {
		t.Error("backfilled outline map was not persisted")
	}
}

func TestLibrary_EnsureOutlineMissingFile(t *testing.T) {
	lib, _ := newTestLibrary(t, &fakeExtractor{text: sampleText}, nil)

	rec := &store.Record{ID: "gone", Path: filepath.Join(t.TempDir(), "gone.pdf")}
	lib.EnsureOutline(context.Background(), rec)
	if rec.OutlineMap == nil || len(rec.OutlineMap) != 0 {
		t.Errorf("OutlineMap = %v, want empty non-nil map", rec.OutlineMap)
	}
}

func TestLibrary_Draft(t *testing.T) {
	ctx := context.Background()
	events := planner.NewMemoryEventLogger()
	lib, _ := newTestLibrary(t, &fakeExtractor{text: sampleText}, events)

	rec, err := lib.Add(ctx, "life_science_2026.pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	week := 1
	rows := []curriculum.Row{{WeekNo: &week, ClassName: "G6", Topic: "세포의 구조", Objective: "세포 소기관을 설명한다."}}
	d, err := lib.Draft(ctx, rec.ID, rows, planner.DraftOptions{WeekNo: 1, ClassName: "g6", UserID: "u1"})
	if err != nil {
		t.Fatalf("Draft() error = %v", err)
	}
	if d.Suggestion.Source != lessonplan.SourceCurriculum {
		t.Errorf("Source = %q, want curriculum", d.Suggestion.Source)
	}
	if d.Fields.LessonTopic != "세포의 구조" {
		t.Errorf("LessonTopic = %q", d.Fields.LessonTopic)
	}

	got := events.OfType(planner.EventDraftGenerated)
	if len(got) != 1 || got[0].UserID != "u1" || got[0].SyllabusID != rec.ID {
		t.Errorf("draft_generated events = %+v", got)
	}

	if _, err := lib.Draft(ctx, "missing", nil, planner.DraftOptions{WeekNo: 1}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Draft(missing) error = %v, want ErrNotFound", err)
	}
}
