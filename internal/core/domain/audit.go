package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// SystemActor is attributed when no authenticated identity is available.
const SystemActor = "SYSTEM"

// AuditTimeFormat is the second-precision timestamp layout used in log entries.
const AuditTimeFormat = "2006-01-02 15:04:05"

// FieldChange holds the display-formatted before/after values of one field.
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// AuditEvent is the persisted unit of the change log. It is constructed once
// per intercepted write and never mutated afterwards.
type AuditEvent struct {
	Timestamp      string                 `json:"timestamp"`
	Action         string                 `json:"action"`
	Model          string                 `json:"model"`
	ObjectID       string                 `json:"object_id"`
	ObjectStr      string                 `json:"object_str"`
	User           string                 `json:"user"`
	UserID         *int64                 `json:"user_id"`
	Changes        map[string]FieldChange `json:"changes"`
	AdditionalInfo map[string]string      `json:"additional_info"`
}

// Time parses the event timestamp in the log's local clock.
func (e AuditEvent) Time() (time.Time, error) {
	return time.ParseInLocation(AuditTimeFormat, e.Timestamp, time.Local)
}

type FieldKind int

const (
	FieldText FieldKind = iota
	FieldBool
	FieldChoice
	FieldRelation
)

// Choice pairs a stored value with its human label.
type Choice struct {
	Value string
	Label string
}

// ChoiceLabel resolves the label for a stored value.
func ChoiceLabel(choices []Choice, value string) (string, bool) {
	for _, c := range choices {
		if c.Value == value {
			return c.Label, true
		}
	}
	return "", false
}

// FieldMeta describes how a tracked field is compared and displayed.
type FieldMeta struct {
	Kind     FieldKind
	Choices  []Choice
	Relation string // audited kind of the related entity, for display lookups
}

// Audited is implemented by every entity kind tracked by the change log.
type Audited interface {
	AuditKind() string
	AuditID() string
	AuditLabel() string
	AuditFields() map[string]any
	AuditMeta() map[string]FieldMeta
}

// Snapshot holds the comparison-normalized field values of one entity
// instance, captured before a write so the next diff has a baseline.
type Snapshot map[string]any

// CaptureSnapshot normalizes raw field values into a Snapshot. Relation
// fields must already be reduced to their key by AuditFields.
func CaptureSnapshot(fields map[string]any) Snapshot {
	snap := make(Snapshot, len(fields))
	for name, value := range fields {
		snap[name] = NormalizeFieldValue(value)
	}
	return snap
}

// NormalizeFieldValue reduces a field value to a comparable scalar: datetimes
// become a canonical string, raw JSON becomes its compact text, nil pointers
// become nil. The result is always comparable with ==.
func NormalizeFieldValue(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		if v.IsZero() {
			return nil
		}
		return v.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if v == nil || v.IsZero() {
			return nil
		}
		return v.UTC().Format(time.RFC3339Nano)
	case *int64:
		if v == nil {
			return nil
		}
		return *v
	case *string:
		if v == nil {
			return nil
		}
		return *v
	case json.RawMessage:
		if len(v) == 0 {
			return nil
		}
		return string(v)
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return string(v)
	case bool, string, int, int32, int64, uint, uint32, uint64, float32, float64:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
