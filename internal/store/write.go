package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/factory/internal/ir"
)

// Tx is one unit of work. Reads through a Tx see its own uncommitted writes.
//
// A Tx is not safe for concurrent use.
type Tx struct {
	tx *sql.Tx
}

// Commit makes every write of the unit durable.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit unit of work: %w", err)
	}
	return nil
}

// Rollback discards every write of the unit, including counter advances.
// Calling Rollback after Commit is a no-op.
func (t *Tx) Rollback() error {
	err := t.tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback unit of work: %w", err)
	}
	return nil
}

// LoadConfig returns the factory config as seen by this unit.
func (t *Tx) LoadConfig(ctx context.Context) (ir.FactoryConfig, error) {
	return loadConfig(ctx, t.tx)
}

// InitConfig writes the config singleton.
// Returns ErrAlreadyInitialized if a config row exists.
func (t *Tx) InitConfig(ctx context.Context, cfg ir.FactoryConfig) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO factory_config (id, admin, code_id, code_hash, auth_mode, status)
		VALUES (1, ?, ?, ?, ?, ?)
	`, cfg.Admin, cfg.CodeRef.CodeID, cfg.CodeRef.CodeHash, cfg.AuthMode, cfg.Status)
	if isConstraintError(err) {
		return ErrAlreadyInitialized
	}
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}
	return nil
}

// SetAdmin replaces the admin. Unconditional: authorization is the caller's job.
func (t *Tx) SetAdmin(ctx context.Context, admin ir.Address) error {
	return t.updateConfig(ctx, "set admin", `UPDATE factory_config SET admin = ? WHERE id = 1`, admin)
}

// SetCodeRef replaces the child-code reference.
func (t *Tx) SetCodeRef(ctx context.Context, ref ir.CodeRef) error {
	return t.updateConfig(ctx, "set code ref",
		`UPDATE factory_config SET code_id = ?, code_hash = ? WHERE id = 1`,
		ref.CodeID, ref.CodeHash)
}

// SetStatus replaces the lifecycle status.
func (t *Tx) SetStatus(ctx context.Context, status ir.Status) error {
	return t.updateConfig(ctx, "set status", `UPDATE factory_config SET status = ? WHERE id = 1`, status)
}

// updateConfig runs a single-statement update against the singleton row so
// a setter either fully applies or leaves the config untouched.
func (t *Tx) updateConfig(ctx context.Context, op, query string, args ...any) error {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotInitialized
	}
	return nil
}

// InsertInstance registers a child and returns its sequence number.
//
// Sequences start at 0 and increase by one per registration. The counter
// advance is part of the unit, so an aborted unit leaves no gap.
// Returns ErrDuplicateAddress if addr is already registered.
func (t *Tx) InsertInstance(ctx context.Context, addr ir.Address, extra ir.IRObject, codeHash string, createdBy ir.Address) (uint64, error) {
	extraJSON, err := marshalExtra(extra)
	if err != nil {
		return 0, err
	}

	var seq uint64
	if err := t.tx.QueryRowContext(ctx, `SELECT next_sequence FROM counters WHERE id = 1`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("read next sequence: %w", err)
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO instances (address, seq, extra, code_hash, created_by)
		VALUES (?, ?, ?, ?, ?)
	`, addr, seq, extraJSON, codeHash, createdBy)
	if isConstraintError(err) {
		return 0, fmt.Errorf("instance %q: %w", addr, ErrDuplicateAddress)
	}
	if err != nil {
		return 0, fmt.Errorf("insert instance: %w", err)
	}

	if _, err := t.tx.ExecContext(ctx, `UPDATE counters SET next_sequence = ? WHERE id = 1`, seq+1); err != nil {
		return 0, fmt.Errorf("advance sequence: %w", err)
	}
	return seq, nil
}

// GetInstance returns the registry entry for addr as seen by this unit.
func (t *Tx) GetInstance(ctx context.Context, addr ir.Address) (ir.InstanceRecord, error) {
	return getInstance(ctx, t.tx, addr)
}

// ListInstances pages the registry as seen by this unit.
func (t *Tx) ListInstances(ctx context.Context, after *uint64, limit int) ([]ir.InstanceRecord, error) {
	return listInstances(ctx, t.tx, after, limit)
}

// CountInstances returns the number of registry entries as seen by this unit.
func (t *Tx) CountInstances(ctx context.Context) (uint64, error) {
	return countRows(ctx, t.tx, "instances")
}

// NextToken allocates a correlation token. Tokens start at 1 and are never
// handed out twice by committed units.
func (t *Tx) NextToken(ctx context.Context) (uint64, error) {
	var token uint64
	if err := t.tx.QueryRowContext(ctx, `SELECT next_token FROM counters WHERE id = 1`).Scan(&token); err != nil {
		return 0, fmt.Errorf("read next token: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, `UPDATE counters SET next_token = ? WHERE id = 1`, token+1); err != nil {
		return 0, fmt.Errorf("advance token: %w", err)
	}
	return token, nil
}

// PutPending records an outstanding instantiation under its token.
func (t *Tx) PutPending(ctx context.Context, p ir.PendingInstantiation) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO pending_instantiations (token, requested_by)
		VALUES (?, ?)
	`, p.Token, p.RequestedBy)
	if err != nil {
		return fmt.Errorf("put pending %d: %w", p.Token, err)
	}
	return nil
}

// TakePending reads and deletes the pending entry for token.
// Returns ErrNotFound if there is none, so each token is consumed at most once.
func (t *Tx) TakePending(ctx context.Context, token uint64) (ir.PendingInstantiation, error) {
	p := ir.PendingInstantiation{Token: token}
	var requestedBy string
	err := t.tx.QueryRowContext(ctx, `
		SELECT requested_by FROM pending_instantiations WHERE token = ?
	`, token).Scan(&requestedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("pending token %d: %w", token, ErrNotFound)
	}
	if err != nil {
		return p, fmt.Errorf("read pending %d: %w", token, err)
	}
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM pending_instantiations WHERE token = ?`, token); err != nil {
		return p, fmt.Errorf("delete pending %d: %w", token, err)
	}
	p.RequestedBy = ir.Address(requestedBy)
	return p, nil
}

// CountPending returns the number of outstanding instantiations as seen by this unit.
func (t *Tx) CountPending(ctx context.Context) (uint64, error) {
	return countRows(ctx, t.tx, "pending_instantiations")
}

// isConstraintError reports whether err is a SQLite PRIMARY KEY or UNIQUE violation.
func isConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
