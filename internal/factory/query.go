package factory

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/roach88/factory/internal/ir"
	"github.com/roach88/factory/internal/store"
)

// GetInstance returns the registry entry for addr. Queries are public.
func (f *Factory) GetInstance(ctx context.Context, r Reader, addr ir.Address) (ir.InstanceRecord, error) {
	if addr == "" {
		return ir.InstanceRecord{}, newError(CodeInvalidArgument, "address must not be empty")
	}
	rec, err := r.GetInstance(ctx, addr)
	if errors.Is(err, store.ErrNotFound) {
		return ir.InstanceRecord{}, newError(CodeNotFound, "no instance with address %q", addr)
	}
	if err != nil {
		return ir.InstanceRecord{}, fmt.Errorf("get instance: %w", err)
	}
	return rec, nil
}

// ListInstances returns up to limit entries with sequence > *cursor (or
// from the start when cursor is nil), in sequence order.
//
// limit is clamped to MaxPageLimit; zero is rejected. NextCursor is the
// last returned sequence when more entries follow and nil once the page
// reaches the end of the registry. Cursors are sequences, so appends after
// a cursor never shift the entries before it.
func (f *Factory) ListInstances(ctx context.Context, r Reader, cursor *uint64, limit uint32) (ir.InstancePage, error) {
	if limit == 0 {
		return ir.InstancePage{}, newError(CodeInvalidArgument, "limit must be positive")
	}
	if limit > f.maxPageLimit {
		limit = f.maxPageLimit
	}

	// Sequences are stored as int64, so nothing follows a larger cursor.
	if cursor != nil && *cursor >= math.MaxInt64 {
		total, err := r.CountInstances(ctx)
		if err != nil {
			return ir.InstancePage{}, fmt.Errorf("list instances: %w", err)
		}
		return ir.InstancePage{Instances: []ir.InstanceRecord{}, Total: total}, nil
	}

	// One extra row tells whether anything follows this page.
	recs, err := r.ListInstances(ctx, cursor, int(limit)+1)
	if err != nil {
		return ir.InstancePage{}, fmt.Errorf("list instances: %w", err)
	}
	total, err := r.CountInstances(ctx)
	if err != nil {
		return ir.InstancePage{}, fmt.Errorf("list instances: %w", err)
	}

	page := ir.InstancePage{Instances: recs, Total: total}
	if len(recs) > int(limit) {
		page.Instances = recs[:limit]
		last := page.Instances[limit-1].Sequence
		page.NextCursor = &last
	}
	return page, nil
}

// GetConfig returns the factory config.
func (f *Factory) GetConfig(ctx context.Context, r Reader) (ir.FactoryConfig, error) {
	return loadConfig(ctx, r)
}
