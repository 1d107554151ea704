// Package ir provides the canonical data types shared by the factory packages.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types in extra data - use int64 for numbers
//   - All JSON tags use snake_case
//   - Registry ordering uses sequence numbers, never wall-clock timestamps
//   - Extra data is stored as RFC 8785 canonical JSON
package ir
