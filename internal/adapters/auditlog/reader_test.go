package auditlog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opsenary/apptracker/internal/core/domain"
	"github.com/opsenary/apptracker/internal/core/ports"
)

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func formatted(t *testing.T, event domain.AuditEvent) string {
	t.Helper()
	line, err := FormatLine(event)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	return line
}

func event(ts, action, model, user string) domain.AuditEvent {
	return domain.AuditEvent{
		Timestamp: ts,
		Action:    action,
		Model:     model,
		ObjectID:  "1",
		ObjectStr: "obj",
		User:      user,
	}
}

func TestParseLineSkipsGarbage(t *testing.T) {
	if _, ok := ParseLine("not an audit line"); ok {
		t.Fatal("expected parse failure for plain text")
	}
	if _, ok := ParseLine("[ts] CREATE m#1 by u: s | JSON: {broken"); ok {
		t.Fatal("expected parse failure for invalid json")
	}
}

func TestQueryFilters(t *testing.T) {
	path := writeLog(t,
		formatted(t, event("2026-08-30 09:00:00", domain.ActionCreate, "inventory.Server", "alice")),
		formatted(t, event("2026-08-30 10:00:00", domain.ActionUpdate, "inventory.Application", "Bob")),
		"corrupted line without marker",
		formatted(t, event("2026-08-30 11:00:00", domain.ActionDelete, "accounts.User", domain.SystemActor)),
	)

	all, err := ReadEntries(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected corrupted line skipped, got %d events", len(all))
	}

	byUser, err := Query(path, Filter{User: "bob"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(byUser) != 1 || byUser[0].User != "Bob" {
		t.Fatalf("user filter mismatch: %+v", byUser)
	}

	byAction, err := Query(path, Filter{Action: "delete"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(byAction) != 1 || byAction[0].Action != domain.ActionDelete {
		t.Fatalf("action filter mismatch: %+v", byAction)
	}

	byModel, err := Query(path, Filter{Model: "inventory"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(byModel) != 2 {
		t.Fatalf("model substring filter mismatch: %+v", byModel)
	}
}

func TestQuerySinceInclusive(t *testing.T) {
	path := writeLog(t,
		formatted(t, event("2026-08-30 09:00:00", domain.ActionCreate, "inventory.Server", "alice")),
		formatted(t, event("2026-08-30 10:00:00", domain.ActionUpdate, "inventory.Server", "alice")),
	)
	since, _ := time.ParseInLocation(domain.AuditTimeFormat, "2026-08-30 10:00:00", time.Local)
	events, err := Query(path, Filter{Since: since})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 1 || events[0].Timestamp != "2026-08-30 10:00:00" {
		t.Fatalf("since must be inclusive: %+v", events)
	}
}

func TestQuerySinceKeepsUnparsableTimestamps(t *testing.T) {
	bad := event("not-a-time", domain.ActionCreate, "inventory.Server", "alice")
	path := writeLog(t, formatted(t, bad))
	since, _ := time.ParseInLocation(domain.AuditTimeFormat, "2026-08-30 10:00:00", time.Local)
	events, err := Query(path, Filter{Since: since})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("unparsable timestamps must not be dropped by the time bound: %+v", events)
	}
}

func TestQueryTailTakesLastLines(t *testing.T) {
	path := writeLog(t,
		formatted(t, event("2026-08-30 09:00:00", domain.ActionCreate, "inventory.Server", "a")),
		formatted(t, event("2026-08-30 10:00:00", domain.ActionCreate, "inventory.Server", "b")),
		formatted(t, event("2026-08-30 11:00:00", domain.ActionCreate, "inventory.Server", "c")),
	)
	events, err := Query(path, Filter{Tail: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 || events[0].User != "b" || events[1].User != "c" {
		t.Fatalf("tail mismatch: %+v", events)
	}
}

func TestQueryIsIdempotent(t *testing.T) {
	path := writeLog(t,
		formatted(t, event("2026-08-30 09:00:00", domain.ActionCreate, "inventory.Server", "a")),
	)
	for i := 0; i < 3; i++ {
		events, err := ReadEntries(path)
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if len(events) != 1 {
			t.Fatalf("read %d: expected 1 event, got %d", i, len(events))
		}
	}
}

func TestTrailReader(t *testing.T) {
	path := writeLog(t,
		formatted(t, event("2026-08-30 09:00:00", domain.ActionCreate, "inventory.Server", "alice")),
		formatted(t, event("2026-08-30 10:00:00", domain.ActionUpdate, "inventory.Server", "bob")),
	)
	reader := NewTrailReader(path)
	events, err := reader.Read(context.Background(), ports.AuditTrailFilter{User: "alice"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(events) != 1 || events[0].User != "alice" {
		t.Fatalf("trail filter mismatch: %+v", events)
	}

	if _, err := reader.Read(context.Background(), ports.AuditTrailFilter{Since: "bogus"}); err == nil {
		t.Fatal("expected error for malformed since value")
	}
}
