package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/factory/internal/ir"
)

func TestNextToken_MonotonicFromOne(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	inTx(t, s, func(tx *Tx) {
		for want := uint64(1); want <= 3; want++ {
			got, err := tx.NextToken(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	// Tokens survive across units.
	inTx(t, s, func(tx *Tx) {
		got, err := tx.NextToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(4), got)
	})
}

func TestTakePending_ExactlyOnce(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	inTx(t, s, func(tx *Tx) {
		require.NoError(t, tx.PutPending(ctx, ir.PendingInstantiation{Token: 1, RequestedBy: "alice"}))
		n, err := tx.CountPending(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), n)
	})

	inTx(t, s, func(tx *Tx) {
		p, err := tx.TakePending(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, ir.PendingInstantiation{Token: 1, RequestedBy: "alice"}, p)

		_, err = tx.TakePending(ctx, 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	n, err := s.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTakePending_Unknown(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = tx.TakePending(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutPending_DuplicateToken(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	require.NoError(t, tx.PutPending(ctx, ir.PendingInstantiation{Token: 5, RequestedBy: "a"}))
	assert.Error(t, tx.PutPending(ctx, ir.PendingInstantiation{Token: 5, RequestedBy: "b"}))
}
