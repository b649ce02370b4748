// Package auditlog persists change events to an append-only log file and
// reads them back. Each event occupies exactly one line holding a
// human-readable rendering followed by the canonical compact-JSON form,
// separated by the "| JSON: " marker, so line-oriented tooling can recover
// either representation.
package auditlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/opsenary/apptracker/internal/core/domain"
)

// Marker separates the human rendering from the machine-encoded segment.
const Marker = "| JSON: "

const FileName = "audit.log"

// FileSink appends audit events to a single log file. The directory is
// created on open. Appends are serialized under a mutex and issued as one
// Write call each, so concurrent writers never interleave partial lines.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
	path string
}

func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit log dir: %w", err)
	}
	path := filepath.Join(dir, FileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &FileSink{file: file, path: path}, nil
}

// Path returns the log file this sink writes.
func (s *FileSink) Path() string {
	return s.path
}

func (s *FileSink) Append(event domain.AuditEvent) error {
	line, err := FormatLine(event)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.file.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// FormatLine renders one event as its log line:
//
//	[ts] ACTION model#id by user: label | Changes: f: old -> new; ... | Info: k: v; ... | JSON: {...}
//
// The Changes and Info segments appear only when non-empty. Fields and keys
// are emitted in sorted order so rendering is deterministic.
func FormatLine(event domain.AuditEvent) (string, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("encode audit event: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s %s#%s by %s: %s",
		event.Timestamp, event.Action, event.Model, event.ObjectID, event.User, event.ObjectStr)

	if len(event.Changes) > 0 {
		fields := make([]string, 0, len(event.Changes))
		for name := range event.Changes {
			fields = append(fields, name)
		}
		sort.Strings(fields)

		parts := make([]string, 0, len(fields))
		for _, name := range fields {
			change := event.Changes[name]
			parts = append(parts, fmt.Sprintf("%s: %s -> %s", name, change.Old, change.New))
		}
		b.WriteString(" | Changes: ")
		b.WriteString(strings.Join(parts, "; "))
	}

	if len(event.AdditionalInfo) > 0 {
		keys := make([]string, 0, len(event.AdditionalInfo))
		for key := range event.AdditionalInfo {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", key, event.AdditionalInfo[key]))
		}
		b.WriteString(" | Info: ")
		b.WriteString(strings.Join(parts, "; "))
	}

	b.WriteString(" ")
	b.WriteString(Marker)
	b.Write(payload)
	return b.String(), nil
}
