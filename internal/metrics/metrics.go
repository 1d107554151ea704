// Package metrics records factory activity.
package metrics

// Outcome labels for OutcomeProcessed.
const (
	OutcomeRegistered = "registered"
	OutcomeFailed     = "failed"
	OutcomeMalformed  = "malformed"
	OutcomeDuplicate  = "duplicate"
	OutcomeUnknown    = "unknown"
)

// Sink receives factory events. Implementations must be safe for
// concurrent use.
type Sink interface {
	// CreationRequested is called when a creation request is admitted and
	// its instantiation issued.
	CreationRequested()
	// OutcomeProcessed is called once per delivered outcome with one of the
	// Outcome* labels.
	OutcomeProcessed(result string)
	// Denied is called when an operation is rejected before any write.
	Denied(op, code string)
	// AdminChanged is called after a successful administrative mutation.
	AdminChanged(op string)
	// RegistrySize reports the number of registered instances.
	RegistrySize(n uint64)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) CreationRequested()      {}
func (NopSink) OutcomeProcessed(string) {}
func (NopSink) Denied(string, string)   {}
func (NopSink) AdminChanged(string)     {}
func (NopSink) RegistrySize(uint64)     {}
