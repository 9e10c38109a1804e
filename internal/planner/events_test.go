package planner_test

import (
	"testing"

	"github.com/yko79135/lessonplangenerator/internal/planner"
)

func TestMemoryEventLogger_LogEvent(t *testing.T) {
	logger := planner.NewMemoryEventLogger()

	err := logger.LogEvent(planner.Event{
		SyllabusID: "syl-1",
		UserID:     "user-1",
		EventType:  planner.EventDraftGenerated,
		Data: map[string]any{
			"week_no": 3,
		},
	})
	if err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}

	events := logger.Events()
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].EventType != planner.EventDraftGenerated {
		t.Errorf("EventType = %q, want %q", events[0].EventType, planner.EventDraftGenerated)
	}
	if events[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestMemoryEventLogger_RequiresType(t *testing.T) {
	logger := planner.NewMemoryEventLogger()
	if err := logger.LogEvent(planner.Event{SyllabusID: "x"}); err == nil {
		t.Fatal("expected error for missing event type")
	}
	if len(logger.Events()) != 0 {
		t.Error("invalid event should not be recorded")
	}
}

func TestPostgresEventLogger_NilPool(t *testing.T) {
	logger := planner.NewPostgresEventLogger(nil)

	err := logger.LogEvent(planner.Event{
		SyllabusID: "syl-1",
		EventType:  planner.EventSyllabusAdded,
	})
	if err == nil {
		t.Fatal("expected error for nil pool")
	}
	if err := logger.Migrate(t.Context()); err == nil {
		t.Fatal("expected Migrate error for nil pool")
	}
}

func TestNopEventLogger(t *testing.T) {
	if err := (planner.NopEventLogger{}).LogEvent(planner.Event{}); err != nil {
		t.Errorf("LogEvent() error = %v", err)
	}
}
