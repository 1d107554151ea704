package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roach88/factory/internal/ir"
)

// testCodeHash is a well-formed code hash for fixtures.
var testCodeHash = strings.Repeat("ab", 32)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestConfig returns a deployable config with the given admin.
func createTestConfig(admin string) ir.FactoryConfig {
	return ir.FactoryConfig{
		Admin:    ir.Address(admin),
		CodeRef:  ir.CodeRef{CodeID: 1, CodeHash: testCodeHash},
		AuthMode: ir.AuthAdminOnly,
		Status:   ir.StatusOperational,
	}
}

// inTx runs fn in a unit of work and commits it.
func inTx(t *testing.T, s *Store, fn func(tx *Tx)) {
	t.Helper()
	tx, err := s.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	defer tx.Rollback()
	fn(tx)
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}
}

// registerN commits n registrations named inst-a, inst-b and so on.
func registerN(t *testing.T, s *Store, n int) {
	t.Helper()
	inTx(t, s, func(tx *Tx) {
		for i := 0; i < n; i++ {
			addr := ir.Address("inst-" + string(rune('a'+i)))
			if _, err := tx.InsertInstance(context.Background(), addr, ir.IRObject{"n": ir.IRInt(i)}, testCodeHash, "creator"); err != nil {
				t.Fatalf("InsertInstance(%s) failed: %v", addr, err)
			}
		}
	})
}
