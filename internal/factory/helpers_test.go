package factory

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/factory/internal/ir"
	"github.com/roach88/factory/internal/store"
)

const (
	adminAddr = ir.Address("admin")
	aliceAddr = ir.Address("alice")
	bobAddr   = ir.Address("bob")
)

var testCode = ir.CodeRef{CodeID: 1, CodeHash: ir.CodeHash([]byte("child-v1"))}

// openStore opens an empty file-backed store in a temp dir.
func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "factory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// begin opens a unit of work that is rolled back at cleanup unless committed.
func begin(t *testing.T, s *store.Store) *store.Tx {
	t.Helper()
	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { tx.Rollback() })
	return tx
}

// deployed returns a store holding a committed factory config.
func deployed(t *testing.T, f *Factory, mode ir.AuthMode) *store.Store {
	t.Helper()
	s := openStore(t)
	tx := begin(t, s)
	admin := adminAddr
	_, err := f.Instantiate(context.Background(), tx, Env{Caller: "deployer"}, ir.InstantiateMsg{
		Admin:    &admin,
		Code:     testCode,
		AuthMode: mode,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	return s
}

// setStatus commits a status change made by the admin.
func setStatus(t *testing.T, f *Factory, s *store.Store, status ir.Status) {
	t.Helper()
	tx := begin(t, s)
	_, err := f.SetStatus(context.Background(), tx, Env{Caller: adminAddr}, status)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
}

// replyData builds a successful child outcome.
func replyData(t *testing.T, addr string, extra any) ir.Outcome {
	t.Helper()
	payload := map[string]any{"address": addr}
	if extra != nil {
		payload["extra"] = extra
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return ir.Outcome{Data: data}
}

// createAndReply runs one full creation inside tx and returns the record.
func createAndReply(t *testing.T, f *Factory, tx State, caller ir.Address, addr string) ir.InstanceRecord {
	t.Helper()
	ctx := context.Background()
	resp, err := f.Create(ctx, tx, Env{Caller: caller}, ir.CreateInstance{Msg: json.RawMessage(`{}`)})
	require.NoError(t, err)
	require.Len(t, resp.SubMsgs, 1)
	rec, err := f.OnOutcome(ctx, tx, resp.SubMsgs[0].Token, replyData(t, addr, map[string]any{"name": addr}))
	require.NoError(t, err)
	return rec
}
