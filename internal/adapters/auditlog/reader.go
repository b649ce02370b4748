package auditlog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/opsenary/apptracker/internal/core/domain"
	"github.com/opsenary/apptracker/internal/core/ports"
)

// ParseLine recovers the machine-encoded event from one log line. Lines
// without a decodable JSON segment report ok=false; the caller skips them.
func ParseLine(line string) (domain.AuditEvent, bool) {
	idx := strings.LastIndex(line, Marker)
	if idx < 0 {
		return domain.AuditEvent{}, false
	}
	var event domain.AuditEvent
	if err := json.Unmarshal([]byte(strings.TrimSpace(line[idx+len(Marker):])), &event); err != nil {
		return domain.AuditEvent{}, false
	}
	return event, true
}

// Filter narrows a read of the log. All conditions are conjunctive.
type Filter struct {
	User   string    // case-insensitive exact match
	Action string    // case-insensitive exact match
	Model  string    // case-insensitive substring match
	Since  time.Time // inclusive lower bound; zero means unbounded
	Tail   int       // keep only the last N raw lines before parsing
}

// Match reports whether the event passes the filter. Events whose timestamp
// fails to parse are not excluded by the time bound.
func (f Filter) Match(event domain.AuditEvent) bool {
	if f.User != "" && !strings.EqualFold(event.User, f.User) {
		return false
	}
	if f.Action != "" && !strings.EqualFold(event.Action, f.Action) {
		return false
	}
	if f.Model != "" && !strings.Contains(strings.ToLower(event.Model), strings.ToLower(f.Model)) {
		return false
	}
	if !f.Since.IsZero() {
		at, err := event.Time()
		if err == nil && at.Before(f.Since) {
			return false
		}
	}
	return true
}

// ReadLines loads the raw lines of the log file. The read takes no lock
// against concurrent writers; a torn final line is tolerated because parsing
// is per-line and skips what it cannot decode.
func ReadLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return lines, nil
}

// Query re-reads the log from the start and returns the events matching the
// filter, in file order. Undecodable lines are skipped, never fatal.
func Query(path string, filter Filter) ([]domain.AuditEvent, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	if filter.Tail > 0 && len(lines) > filter.Tail {
		lines = lines[len(lines)-filter.Tail:]
	}

	events := make([]domain.AuditEvent, 0, len(lines))
	for _, line := range lines {
		event, ok := ParseLine(line)
		if !ok {
			continue
		}
		if filter.Match(event) {
			events = append(events, event)
		}
	}
	return events, nil
}

// ReadEntries returns every decodable event in the log, in file order.
func ReadEntries(path string) ([]domain.AuditEvent, error) {
	return Query(path, Filter{})
}

// TrailReader adapts the file reader to the query port used by the API.
type TrailReader struct {
	path string
}

func NewTrailReader(path string) *TrailReader {
	return &TrailReader{path: path}
}

func (r *TrailReader) Read(_ context.Context, filter ports.AuditTrailFilter) ([]domain.AuditEvent, error) {
	f := Filter{
		User:   filter.User,
		Action: filter.Action,
		Model:  filter.Model,
		Tail:   filter.Tail,
	}
	if filter.Since != "" {
		since, err := time.ParseInLocation(domain.AuditTimeFormat, filter.Since, time.Local)
		if err != nil {
			return nil, fmt.Errorf("%w: since", domain.ErrInvalidField)
		}
		f.Since = since
	}
	return Query(r.path, f)
}
