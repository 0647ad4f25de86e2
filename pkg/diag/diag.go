// Package diag carries the error taxonomy shared by every analysis pass.
//
// Recoverable problems are recorded as Diagnostics in a Collector and logged
// as warnings; they never abort a pass. Fatal problems are returned as *Error
// values that keep the Kind, so callers can test them with Is.
//
// # Kinds
//
//   - MalformedRecord: a line does not have the expected token layout (skipped)
//   - MissingReference: a lookup by name failed
//   - IncompleteSection: a section terminator was never reached (fatal)
//   - NumericAnomaly: a derived value violates an expected bound (data, not error)
package diag

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// Kind classifies a diagnostic or an error.
type Kind string

const (
	MalformedRecord   Kind = "MALFORMED_RECORD"
	MissingReference  Kind = "MISSING_REFERENCE"
	IncompleteSection Kind = "INCOMPLETE_SECTION"
	NumericAnomaly    Kind = "NUMERIC_ANOMALY"
)

// Diagnostic is one skipped or anomalous record.
type Diagnostic struct {
	Kind    Kind   `json:"kind" bson:"kind"`
	Entity  string `json:"entity,omitempty" bson:"entity,omitempty"`
	Line    int    `json:"line,omitempty" bson:"line,omitempty"`
	Message string `json:"message" bson:"message"`
}

func (d Diagnostic) String() string {
	s := string(d.Kind)
	if d.Line > 0 {
		s += fmt.Sprintf(" line %d", d.Line)
	}
	if d.Entity != "" {
		s += fmt.Sprintf(" [%s]", d.Entity)
	}
	return s + ": " + d.Message
}

// Collector records diagnostics and mirrors them to a logger.
// It is safe for concurrent use.
type Collector struct {
	logger *log.Logger

	mu    sync.Mutex
	items []Diagnostic
}

// NewCollector creates a collector logging through l (log.Default() if nil).
func NewCollector(l *log.Logger) *Collector {
	if l == nil {
		l = log.Default()
	}
	return &Collector{logger: l}
}

// Warn records a diagnostic and logs it at warning level.
func (c *Collector) Warn(kind Kind, entity string, line int, format string, args ...any) {
	d := Diagnostic{
		Kind:    kind,
		Entity:  entity,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	}

	c.mu.Lock()
	c.items = append(c.items, d)
	c.mu.Unlock()

	kv := []any{"kind", kind}
	if entity != "" {
		kv = append(kv, "entity", entity)
	}
	if line > 0 {
		kv = append(kv, "line", line)
	}
	c.logger.Warn(d.Message, kv...)
}

// Record appends a diagnostic that was already logged elsewhere.
func (c *Collector) Record(d Diagnostic) {
	c.mu.Lock()
	c.items = append(c.items, d)
	c.mu.Unlock()
}

// All returns a copy of every recorded diagnostic in order of arrival.
func (c *Collector) All() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// Count returns how many diagnostics of the given kind were recorded.
func (c *Collector) Count(kind Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, d := range c.items {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Len returns the total number of diagnostics.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Error is a fatal problem carrying its Kind and the offending entity.
type Error struct {
	Kind    Kind
	Entity  string
	Line    int
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	s := string(e.Kind)
	if e.Line > 0 {
		s += fmt.Sprintf(" at line %d", e.Line)
	}
	if e.Entity != "" {
		s += fmt.Sprintf(" (%s)", e.Entity)
	}
	s += ": " + e.Message
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Errorf creates a fatal error of the given kind.
func Errorf(kind Kind, entity string, line int, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Entity:  entity,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	}
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
