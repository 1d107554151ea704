// Package store provides SQLite-backed durable storage for factory state.
//
// The store holds three pieces of state:
//   - Factory config: a single row (admin, code reference, auth mode, status)
//   - Instance registry: one row per registered child, keyed by address
//   - Pending instantiations: outstanding correlation tokens
//
// # Units of Work
//
// Every mutation happens inside a *Tx obtained from Store.Begin. Commit
// makes the unit durable; Rollback discards it, counters included, so an
// aborted unit never leaves a partial registration or a sequence gap.
//
// # Ordering
//
//   - Registry listings use seq INTEGER (assigned at registration), never timestamps
//   - All listings are ORDER BY seq ASC
//   - Sequences start at 0; correlation tokens start at 1
//
// Extra data is stored as RFC 8785 canonical JSON via ir.MarshalCanonical.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
