package ir

import (
	"encoding/hex"
	"fmt"
	"math"
)

// Address identifies a caller, an administrator or a child instance.
type Address string

// CodeRef references the program the factory instantiates.
// CodeHash is the integrity hash of the program code (lowercase hex SHA-256).
type CodeRef struct {
	CodeID   uint64 `json:"code_id"`
	CodeHash string `json:"code_hash"`
}

// Validate reports whether the reference can be used to instantiate a child.
func (c CodeRef) Validate() error {
	if c.CodeID == 0 {
		return fmt.Errorf("code_id must be positive")
	}
	if c.CodeID > math.MaxInt64 {
		return fmt.Errorf("code_id %d out of range", c.CodeID)
	}
	if len(c.CodeHash) != 64 {
		return fmt.Errorf("code_hash must be 64 hex characters, got %d", len(c.CodeHash))
	}
	if _, err := hex.DecodeString(c.CodeHash); err != nil {
		return fmt.Errorf("code_hash is not hex: %w", err)
	}
	for _, r := range c.CodeHash {
		if r >= 'A' && r <= 'F' {
			return fmt.Errorf("code_hash must be lowercase hex")
		}
	}
	return nil
}

// AuthMode selects who may create instances. It is fixed at construction.
type AuthMode string

const (
	// AuthAdminOnly restricts creation to the current admin.
	AuthAdminOnly AuthMode = "admin_only"
	// AuthOpen allows any caller to create instances.
	AuthOpen AuthMode = "open"
)

// Valid reports whether m is a known auth mode.
func (m AuthMode) Valid() bool {
	return m == AuthAdminOnly || m == AuthOpen
}

// Status is the factory lifecycle status.
type Status string

const (
	StatusOperational Status = "operational"
	StatusPaused      Status = "paused"
	StatusStopped     Status = "stopped"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOperational, StatusPaused, StatusStopped:
		return true
	}
	return false
}

// FactoryConfig is the factory-wide settings singleton.
type FactoryConfig struct {
	Admin    Address  `json:"admin"`
	CodeRef  CodeRef  `json:"code_ref"`
	AuthMode AuthMode `json:"auth_mode"`
	Status   Status   `json:"status"`
}

// InstanceRecord is one registry entry per created child.
type InstanceRecord struct {
	Address   Address  `json:"address"`
	Extra     IRObject `json:"extra"`
	Sequence  uint64   `json:"sequence"`
	CodeHash  string   `json:"code_hash"`  // Code the child was created from
	CreatedBy Address  `json:"created_by"` // Caller of the creation request
}

// PendingInstantiation links a correlation token to the creation request
// that issued it. It lives only until the matching outcome is processed.
type PendingInstantiation struct {
	Token       uint64  `json:"token"`
	RequestedBy Address `json:"requested_by"`
}

// InstancePage is one page of a registry listing.
// NextCursor is nil when the end of the registry was reached.
type InstancePage struct {
	Instances  []InstanceRecord `json:"instances"`
	NextCursor *uint64          `json:"next_cursor,omitempty"`
	Total      uint64           `json:"total"`
}

// Coin is an amount of a native denomination forwarded to a child.
type Coin struct {
	Denom  string `json:"denom"`
	Amount uint64 `json:"amount"`
}
