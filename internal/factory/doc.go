// Package factory implements the factory state machine: creating child
// instances through a token-correlated instantiate/reply protocol,
// registering them, and administering the factory's lifecycle.
//
// ARCHITECTURE:
//
// Factory is stateless. Every command takes a State (one unit of work,
// normally a *store.Tx) and every query a Reader. The environment that
// owns the unit of work decides commit or abort; the factory only
// guarantees that it never writes before all of an operation's checks
// have passed.
//
// Creation runs in two steps within one unit of work:
//  1. Create: authorize, gate, validate, allocate a token, persist the
//     pending entry, return a SubMsg.
//  2. OnOutcome: consume the pending entry for the token and, if the child
//     was instantiated and reported a well-formed payload, register it.
//
// Checks for every command run in the same order: authorization guard,
// lifecycle gate, argument validation. The first failure is returned.
//
// ERRORS:
//
// Every operation returns *Error with a Code. errors.Is matches by code
// against the Err* sentinels. A DuplicateAddress from OnOutcome is Fatal:
// the environment must abort the unit rather than skip the registration.
package factory
