package factory

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/factory/internal/ir"
	"github.com/roach88/factory/internal/store"
)

// seed commits n registrations named inst-0, inst-1 and so on, then opens
// a fresh unit of work.
func seed(t *testing.T, f *Factory, n int) *store.Tx {
	t.Helper()
	s := deployed(t, f, ir.AuthOpen)
	tx := begin(t, s)
	for i := 0; i < n; i++ {
		createAndReply(t, f, tx, aliceAddr, fmt.Sprintf("inst-%d", i))
	}
	require.NoError(t, tx.Commit())
	return begin(t, s)
}

func TestListInstances_ScenarioTwoCreations(t *testing.T) {
	f := New()
	st := seed(t, f, 2)
	ctx := context.Background()

	page, err := f.ListInstances(ctx, st, nil, 1)
	require.NoError(t, err)
	require.Len(t, page.Instances, 1)
	assert.Equal(t, ir.Address("inst-0"), page.Instances[0].Address)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, uint64(0), *page.NextCursor)
	assert.Equal(t, uint64(2), page.Total)

	page, err = f.ListInstances(ctx, st, page.NextCursor, 1)
	require.NoError(t, err)
	require.Len(t, page.Instances, 1)
	assert.Equal(t, ir.Address("inst-1"), page.Instances[0].Address)
	assert.Nil(t, page.NextCursor, "end of registry reached")
}

func TestListInstances_PastTheEnd(t *testing.T) {
	f := New()
	st := seed(t, f, 2)

	cursor := uint64(1)
	page, err := f.ListInstances(context.Background(), st, &cursor, 5)
	require.NoError(t, err)
	assert.Empty(t, page.Instances)
	assert.NotNil(t, page.Instances)
	assert.Nil(t, page.NextCursor)
	assert.Equal(t, uint64(2), page.Total)
}

func TestListInstances_CursorBeyondInt64(t *testing.T) {
	f := New()
	st := seed(t, f, 2)

	for _, c := range []uint64{math.MaxInt64, math.MaxUint64} {
		cursor := c
		page, err := f.ListInstances(context.Background(), st, &cursor, 5)
		require.NoError(t, err)
		assert.Empty(t, page.Instances)
		assert.NotNil(t, page.Instances)
		assert.Nil(t, page.NextCursor)
		assert.Equal(t, uint64(2), page.Total)
	}
}

func TestListInstances_PartitionsReconstructRegistry(t *testing.T) {
	f := New()
	st := seed(t, f, 7)
	ctx := context.Background()

	for limit := uint32(1); limit <= 8; limit++ {
		var seen []uint64
		var cursor *uint64
		for pages := 0; pages < 20; pages++ {
			page, err := f.ListInstances(ctx, st, cursor, limit)
			require.NoError(t, err)
			for _, rec := range page.Instances {
				seen = append(seen, rec.Sequence)
			}
			if page.NextCursor == nil {
				break
			}
			cursor = page.NextCursor
		}
		assert.Equal(t, []uint64{0, 1, 2, 3, 4, 5, 6}, seen, "limit %d", limit)
	}
}

func TestListInstances_LastPageShorterThanLimit(t *testing.T) {
	f := New()
	st := seed(t, f, 3)

	page, err := f.ListInstances(context.Background(), st, nil, 5)
	require.NoError(t, err)
	assert.Len(t, page.Instances, 3)
	assert.Nil(t, page.NextCursor)
}

func TestListInstances_ZeroLimit(t *testing.T) {
	f := New()
	st := seed(t, f, 1)

	_, err := f.ListInstances(context.Background(), st, nil, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestListInstances_ClampsLimit(t *testing.T) {
	f := New(WithMaxPageLimit(2))
	st := seed(t, f, 3)

	page, err := f.ListInstances(context.Background(), st, nil, 1000)
	require.NoError(t, err)
	assert.Len(t, page.Instances, 2)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, uint64(1), *page.NextCursor)
}

func TestListInstances_DefaultClamp(t *testing.T) {
	assert.Equal(t, uint32(DefaultMaxPageLimit), New().MaxPageLimit())
	assert.Equal(t, uint32(DefaultMaxPageLimit), New(WithMaxPageLimit(0)).MaxPageLimit())
}

func TestListInstances_StableUnderLaterAppends(t *testing.T) {
	f := New()
	st := seed(t, f, 3)
	ctx := context.Background()

	first, err := f.ListInstances(ctx, st, nil, 2)
	require.NoError(t, err)
	require.NotNil(t, first.NextCursor)

	createAndReply(t, f, st, bobAddr, "inst-late")

	rest, err := f.ListInstances(ctx, st, first.NextCursor, 5)
	require.NoError(t, err)
	require.Len(t, rest.Instances, 2)
	assert.Equal(t, ir.Address("inst-2"), rest.Instances[0].Address)
	assert.Equal(t, ir.Address("inst-late"), rest.Instances[1].Address)
	assert.Equal(t, uint64(4), rest.Total)
}

func TestGetInstance(t *testing.T) {
	f := New()
	st := seed(t, f, 1)
	ctx := context.Background()

	rec, err := f.GetInstance(ctx, st, "inst-0")
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{"name": ir.IRString("inst-0")}, rec.Extra)

	_, err = f.GetInstance(ctx, st, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.GetInstance(ctx, st, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
