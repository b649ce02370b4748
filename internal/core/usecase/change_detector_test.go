package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/opsenary/apptracker/internal/core/domain"
)

type stubResolver struct {
	displays map[string]string // "kind/key" -> display
}

func (r *stubResolver) Display(_ context.Context, kind, key string) (string, error) {
	if display, ok := r.displays[kind+"/"+key]; ok {
		return display, nil
	}
	return "", domain.ErrNotFound
}

func TestComputeChangesSkipsEqualFields(t *testing.T) {
	prev := domain.CaptureSnapshot(map[string]any{"name": "web01", "notes": "x"})
	current := map[string]any{"name": "web01", "notes": "y"}
	meta := map[string]domain.FieldMeta{
		"name":  {Kind: domain.FieldText},
		"notes": {Kind: domain.FieldText},
	}

	changes := ComputeChanges(context.Background(), prev, current, meta, nil)
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d: %+v", len(changes), changes)
	}
	if got := changes["notes"]; got.Old != "x" || got.New != "y" {
		t.Fatalf("unexpected change: %+v", got)
	}
}

func TestComputeChangesNilRendersNULL(t *testing.T) {
	prev := domain.Snapshot{}
	current := map[string]any{"notes": "filled in"}
	meta := map[string]domain.FieldMeta{"notes": {Kind: domain.FieldText}}

	changes := ComputeChanges(context.Background(), prev, current, meta, nil)
	if got := changes["notes"]; got.Old != "NULL" || got.New != "filled in" {
		t.Fatalf("absent snapshot field must read NULL: %+v", got)
	}
}

func TestComputeChangesBoolFormatting(t *testing.T) {
	prev := domain.CaptureSnapshot(map[string]any{"is_active": true})
	current := map[string]any{"is_active": false}
	meta := map[string]domain.FieldMeta{"is_active": {Kind: domain.FieldBool}}

	changes := ComputeChanges(context.Background(), prev, current, meta, nil)
	if got := changes["is_active"]; got.Old != "True" || got.New != "False" {
		t.Fatalf("bool formatting mismatch: %+v", got)
	}
}

func TestComputeChangesChoiceFormatting(t *testing.T) {
	meta := map[string]domain.FieldMeta{
		"lifecycle_stage": {Kind: domain.FieldChoice, Choices: domain.LifecycleStages},
	}
	prev := domain.CaptureSnapshot(map[string]any{"lifecycle_stage": "development"})
	current := map[string]any{"lifecycle_stage": "testing"}

	changes := ComputeChanges(context.Background(), prev, current, meta, nil)
	got := changes["lifecycle_stage"]
	if got.Old != "development (Development)" || got.New != "testing (Testing)" {
		t.Fatalf("choice formatting mismatch: %+v", got)
	}
}

func TestComputeChangesUnknownChoice(t *testing.T) {
	meta := map[string]domain.FieldMeta{
		"lifecycle_stage": {Kind: domain.FieldChoice, Choices: domain.LifecycleStages},
	}
	prev := domain.CaptureSnapshot(map[string]any{"lifecycle_stage": "imported"})
	current := map[string]any{"lifecycle_stage": "testing"}

	changes := ComputeChanges(context.Background(), prev, current, meta, nil)
	if got := changes["lifecycle_stage"]; got.Old != "imported (Unknown)" {
		t.Fatalf("unknown choice must fall back to Unknown: %+v", got)
	}
}

func TestComputeChangesRelationDisplay(t *testing.T) {
	resolver := &stubResolver{displays: map[string]string{
		"inventory.Server/2": "web02 (10.0.0.2)",
	}}
	meta := map[string]domain.FieldMeta{
		"primary_server": {Kind: domain.FieldRelation, Relation: "inventory.Server"},
	}
	prev := domain.CaptureSnapshot(map[string]any{"primary_server": int64(1)})
	current := map[string]any{"primary_server": int64(2)}

	changes := ComputeChanges(context.Background(), prev, current, meta, resolver)
	got := changes["primary_server"]
	if got.New != "2 (web02 (10.0.0.2))" {
		t.Fatalf("relation display mismatch: %q", got.New)
	}
	// server 1 is gone; render the raw key
	if got.Old != "1" {
		t.Fatalf("missing relation must fall back to raw key: %q", got.Old)
	}
}

func TestComputeChangesTruncation(t *testing.T) {
	exactly100 := strings.Repeat("a", 100)
	over := strings.Repeat("b", 101)

	prev := domain.Snapshot{}
	current := map[string]any{"short": exactly100, "long": over}
	meta := map[string]domain.FieldMeta{
		"short": {Kind: domain.FieldText},
		"long":  {Kind: domain.FieldText},
	}

	changes := ComputeChanges(context.Background(), prev, current, meta, nil)
	if got := changes["short"].New; got != exactly100 {
		t.Fatalf("100-char value must pass untruncated, got %d chars", len(got))
	}
	long := changes["long"].New
	if len([]rune(long)) != 100 || !strings.HasSuffix(long, "...") {
		t.Fatalf("101-char value must truncate to 97+ellipsis, got %d chars %q", len(long), long)
	}
	if want := strings.Repeat("b", 97) + "..."; long != want {
		t.Fatalf("truncation mismatch: %q", long)
	}
}

func TestComputeChangesNormalizedComparison(t *testing.T) {
	// int64 against its snapshot form must not produce a spurious diff
	prev := domain.CaptureSnapshot(map[string]any{"installation": int64(5)})
	current := map[string]any{"installation": int64(5)}
	meta := map[string]domain.FieldMeta{
		"installation": {Kind: domain.FieldRelation, Relation: "inventory.LanguageInstallation"},
	}
	changes := ComputeChanges(context.Background(), prev, current, meta, nil)
	if len(changes) != 0 {
		t.Fatalf("expected no changes, got %+v", changes)
	}
}

func TestComputeChangesEmptyDiff(t *testing.T) {
	app := domain.Application{Name: "billing", LifecycleStage: "testing", Criticality: "high", PrimaryServerID: 1, Active: true}
	prev := domain.CaptureSnapshot(app.AuditFields())
	changes := ComputeChanges(context.Background(), prev, app.AuditFields(), app.AuditMeta(), nil)
	if len(changes) != 0 {
		t.Fatalf("identical fields must yield an empty diff, got %+v", changes)
	}
}

func TestFormatFieldValueStringifiesScalars(t *testing.T) {
	got := formatFieldValue(context.Background(), domain.FieldMeta{Kind: domain.FieldText}, int64(42), nil)
	if got != fmt.Sprintf("%v", 42) {
		t.Fatalf("scalar formatting mismatch: %q", got)
	}
}
