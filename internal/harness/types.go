package harness

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/factory/internal/ir"
)

// Trace event types.
const (
	EventUnit   = "unit"   // a unit of work ran (committed or aborted)
	EventCreate = "create" // the factory issued a child instantiation
	EventReply  = "reply"  // an outcome was correlated and registered
	EventQuery  = "query"  // a query was answered
)

// TraceEvent is one entry of a scenario trace.
type TraceEvent struct {
	Type string `json:"type"`
	Step int    `json:"step"`

	Unit   string   `json:"unit,omitempty"`
	Caller string   `json:"caller,omitempty"`
	Kinds  []string `json:"kinds,omitempty"`
	Kind   string   `json:"kind,omitempty"`

	Token    uint64  `json:"token,omitempty"`
	Address  string  `json:"address,omitempty"`
	Sequence *uint64 `json:"sequence,omitempty"`

	Addresses  []string `json:"addresses,omitempty"`
	NextCursor *uint64  `json:"next_cursor,omitempty"`
	Total      *uint64  `json:"total,omitempty"`
	Status     string   `json:"status,omitempty"`
	Admin      string   `json:"admin,omitempty"`

	// Error is the factory error code of an aborted unit or failed query.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace lists units, creations, replies and queries in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

func (r *Result) add(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}

// canonicalTrace serializes a trace snapshot as RFC 8785 canonical JSON,
// so equal traces are byte-identical.
func canonicalTrace(name string, trace []TraceEvent) ([]byte, error) {
	data, err := json.Marshal(struct {
		Scenario string       `json:"scenario"`
		Trace    []TraceEvent `json:"trace"`
	}{name, trace})
	if err != nil {
		return nil, fmt.Errorf("marshal trace: %w", err)
	}
	v, err := ir.UnmarshalIRValue(data)
	if err != nil {
		return nil, fmt.Errorf("convert trace: %w", err)
	}
	return ir.MarshalCanonical(v)
}
