package usecase

import (
	"context"
	"fmt"

	"github.com/opsenary/apptracker/internal/core/domain"
	"github.com/opsenary/apptracker/internal/core/ports"
)

// maxDisplayLen caps formatted field values in the change log; longer values
// are cut to 97 characters plus an ellipsis.
const maxDisplayLen = 100

// ComputeChanges diffs an entity's current field values against the snapshot
// taken before the write. A field appears in the result only when its
// normalized old and new values differ. Fields absent from the snapshot
// (newly added, or entity not yet persisted) are treated as previously nil.
func ComputeChanges(ctx context.Context, prev domain.Snapshot, current map[string]any, meta map[string]domain.FieldMeta, resolver ports.RelationResolver) map[string]domain.FieldChange {
	changes := make(map[string]domain.FieldChange)
	for name, rawCur := range current {
		cur := domain.NormalizeFieldValue(rawCur)
		old := prev[name]
		if cur == old {
			continue
		}
		fm := meta[name]
		changes[name] = domain.FieldChange{
			Old: formatFieldValue(ctx, fm, old, resolver),
			New: formatFieldValue(ctx, fm, cur, resolver),
		}
	}
	return changes
}

// formatFieldValue renders a normalized value for display. Relations become
// "key (label)" and fall back to the raw key when the related entity no
// longer exists; booleans render True/False; choices render "value (Label)"
// with an Unknown fallback; nil renders NULL; everything else is stringified
// and truncated.
func formatFieldValue(ctx context.Context, meta domain.FieldMeta, value any, resolver ports.RelationResolver) string {
	if value == nil {
		return "NULL"
	}

	switch meta.Kind {
	case domain.FieldRelation:
		key := stringify(value)
		if resolver != nil {
			if display, err := resolver.Display(ctx, meta.Relation, key); err == nil {
				return fmt.Sprintf("%s (%s)", key, display)
			}
		}
		return key

	case domain.FieldBool:
		if b, ok := value.(bool); ok {
			if b {
				return "True"
			}
			return "False"
		}

	case domain.FieldChoice:
		stored := stringify(value)
		label, ok := domain.ChoiceLabel(meta.Choices, stored)
		if !ok {
			label = "Unknown"
		}
		return fmt.Sprintf("%s (%s)", stored, label)
	}

	return truncateDisplay(stringify(value))
}

func truncateDisplay(s string) string {
	runes := []rune(s)
	if len(runes) <= maxDisplayLen {
		return s
	}
	return string(runes[:maxDisplayLen-3]) + "..."
}

func stringify(v any) string {
	return fmt.Sprintf("%v", v)
}
