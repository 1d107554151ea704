// Package host is an in-process execution environment for the factory.
//
// It plays the part of the replicated runtime the factory is deployed
// into: it keeps a code table, attests callers, stamps block heights and
// runs every command as one unit of work. Sub-messages emitted by a
// command are executed synchronously and their outcomes delivered back to
// the factory before the next command of the unit runs. Any error aborts
// the unit, so an aborted unit leaves no trace in the store.
//
// The CLI and the conformance harness both drive the factory through a
// Host.
package host
