package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/factory/internal/ir"
)

// queryer is satisfied by both *sql.DB and *sql.Tx so reads share one
// implementation inside and outside a unit of work.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// LoadConfig returns the factory config.
// Returns ErrNotInitialized if the factory was never deployed.
func (s *Store) LoadConfig(ctx context.Context) (ir.FactoryConfig, error) {
	return loadConfig(ctx, s.db)
}

// GetInstance returns the registry entry for addr, or ErrNotFound.
func (s *Store) GetInstance(ctx context.Context, addr ir.Address) (ir.InstanceRecord, error) {
	return getInstance(ctx, s.db, addr)
}

// ListInstances returns up to limit entries with seq > *after (or from the
// beginning when after is nil), ordered by seq ascending.
func (s *Store) ListInstances(ctx context.Context, after *uint64, limit int) ([]ir.InstanceRecord, error) {
	return listInstances(ctx, s.db, after, limit)
}

// CountInstances returns the number of registry entries.
func (s *Store) CountInstances(ctx context.Context) (uint64, error) {
	return countRows(ctx, s.db, "instances")
}

// CountPending returns the number of outstanding instantiations.
func (s *Store) CountPending(ctx context.Context) (uint64, error) {
	return countRows(ctx, s.db, "pending_instantiations")
}

// ListInstancesByCreator returns every entry requested by creator, in seq order.
func (s *Store) ListInstancesByCreator(ctx context.Context, creator ir.Address) ([]ir.InstanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT address, seq, extra, code_hash, created_by
		FROM instances
		WHERE created_by = ?
		ORDER BY seq ASC
	`, creator)
	if err != nil {
		return nil, fmt.Errorf("query instances by creator: %w", err)
	}
	return scanInstances(rows)
}

func loadConfig(ctx context.Context, q queryer) (ir.FactoryConfig, error) {
	var cfg ir.FactoryConfig
	var admin, authMode, status string
	err := q.QueryRowContext(ctx, `
		SELECT admin, code_id, code_hash, auth_mode, status
		FROM factory_config
		WHERE id = 1
	`).Scan(&admin, &cfg.CodeRef.CodeID, &cfg.CodeRef.CodeHash, &authMode, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return cfg, ErrNotInitialized
	}
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	cfg.Admin = ir.Address(admin)
	cfg.AuthMode = ir.AuthMode(authMode)
	cfg.Status = ir.Status(status)
	return cfg, nil
}

func getInstance(ctx context.Context, q queryer, addr ir.Address) (ir.InstanceRecord, error) {
	row := q.QueryRowContext(ctx, `
		SELECT address, seq, extra, code_hash, created_by
		FROM instances
		WHERE address = ?
	`, addr)
	rec, err := scanInstance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.InstanceRecord{}, fmt.Errorf("instance %q: %w", addr, ErrNotFound)
	}
	if err != nil {
		return ir.InstanceRecord{}, err
	}
	return rec, nil
}

func listInstances(ctx context.Context, q queryer, after *uint64, limit int) ([]ir.InstanceRecord, error) {
	if limit <= 0 {
		return []ir.InstanceRecord{}, nil
	}

	var (
		rows *sql.Rows
		err  error
	)
	if after == nil {
		rows, err = q.QueryContext(ctx, `
			SELECT address, seq, extra, code_hash, created_by
			FROM instances
			ORDER BY seq ASC
			LIMIT ?
		`, limit)
	} else {
		rows, err = q.QueryContext(ctx, `
			SELECT address, seq, extra, code_hash, created_by
			FROM instances
			WHERE seq > ?
			ORDER BY seq ASC
			LIMIT ?
		`, *after, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query instances: %w", err)
	}
	return scanInstances(rows)
}

func countRows(ctx context.Context, q queryer, table string) (uint64, error) {
	var n uint64
	// table is always a package constant, never caller input.
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInstance(s scanner) (ir.InstanceRecord, error) {
	var rec ir.InstanceRecord
	var addr, extraJSON, createdBy string
	if err := s.Scan(&addr, &rec.Sequence, &extraJSON, &rec.CodeHash, &createdBy); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan instance: %w", err)
	}
	extra, err := unmarshalExtra(extraJSON)
	if err != nil {
		return rec, fmt.Errorf("instance %q: %w", addr, err)
	}
	rec.Address = ir.Address(addr)
	rec.Extra = extra
	rec.CreatedBy = ir.Address(createdBy)
	return rec, nil
}

func scanInstances(rows *sql.Rows) ([]ir.InstanceRecord, error) {
	defer rows.Close()

	records := []ir.InstanceRecord{}
	for rows.Next() {
		rec, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instances: %w", err)
	}
	return records, nil
}
