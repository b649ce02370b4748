package auditlog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/opsenary/apptracker/internal/core/domain"
)

func sampleEvent() domain.AuditEvent {
	uid := int64(7)
	return domain.AuditEvent{
		Timestamp: "2026-08-30 10:15:00",
		Action:    domain.ActionUpdate,
		Model:     "inventory.Application",
		ObjectID:  "a1b2",
		ObjectStr: "billing (Testing)",
		User:      "alice",
		UserID:    &uid,
		Changes: map[string]domain.FieldChange{
			"lifecycle_stage": {Old: "development (Development)", New: "testing (Testing)"},
			"criticality":     {Old: "medium (Medium)", New: "high (High)"},
		},
		AdditionalInfo: map[string]string{"reason": "release"},
	}
}

func TestFormatLine(t *testing.T) {
	line, err := FormatLine(sampleEvent())
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if !strings.HasPrefix(line, "[2026-08-30 10:15:00] UPDATE inventory.Application#a1b2 by alice: billing (Testing)") {
		t.Fatalf("unexpected prefix: %q", line)
	}
	// changes render sorted by field name
	if !strings.Contains(line, " | Changes: criticality: medium (Medium) -> high (High); lifecycle_stage: development (Development) -> testing (Testing)") {
		t.Fatalf("missing changes segment: %q", line)
	}
	if !strings.Contains(line, " | Info: reason: release") {
		t.Fatalf("missing info segment: %q", line)
	}
	if !strings.Contains(line, " "+Marker) {
		t.Fatalf("missing json marker: %q", line)
	}
	if strings.Contains(line, "\n") {
		t.Fatalf("line must be single-line: %q", line)
	}
}

func TestFormatLineNoChanges(t *testing.T) {
	event := sampleEvent()
	event.Changes = nil
	event.AdditionalInfo = nil
	line, err := FormatLine(event)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if strings.Contains(line, "| Changes:") || strings.Contains(line, "| Info:") {
		t.Fatalf("empty segments must be omitted: %q", line)
	}
}

func TestFileSinkAppendRoundTrip(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	defer sink.Close()

	want := sampleEvent()
	if err := sink.Append(want); err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := ReadEntries(sink.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if got.Action != want.Action || got.Model != want.Model || got.User != want.User {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.UserID == nil || *got.UserID != 7 {
		t.Fatalf("user id lost: %+v", got.UserID)
	}
	if got.Changes["lifecycle_stage"].New != "testing (Testing)" {
		t.Fatalf("changes lost: %+v", got.Changes)
	}
}

func TestFileSinkCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	sink, err := NewFileSink(dir)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	defer sink.Close()
	if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
		t.Fatalf("log file not created: %v", err)
	}
}

func TestFileSinkAppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	first, err := NewFileSink(dir)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := first.Append(sampleEvent()); err != nil {
		t.Fatalf("append: %v", err)
	}
	first.Close()

	second, err := NewFileSink(dir)
	if err != nil {
		t.Fatalf("reopen sink: %v", err)
	}
	defer second.Close()
	if err := second.Append(sampleEvent()); err != nil {
		t.Fatalf("append after reopen: %v", err)
	}

	events, err := ReadEntries(second.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events after reopen, got %d", len(events))
	}
}

func TestFileSinkConcurrentAppends(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	defer sink.Close()

	const writers = 8
	const perWriter = 25
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				if err := sink.Append(sampleEvent()); err != nil {
					t.Errorf("append: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	events, err := ReadEntries(sink.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(events) != writers*perWriter {
		t.Fatalf("expected %d intact lines, got %d", writers*perWriter, len(events))
	}
}
