package factory

import (
	"context"

	"github.com/roach88/factory/internal/ir"
)

// Reader is the read-only view of factory state.
// Satisfied by *store.Store and *store.Tx.
type Reader interface {
	LoadConfig(ctx context.Context) (ir.FactoryConfig, error)
	GetInstance(ctx context.Context, addr ir.Address) (ir.InstanceRecord, error)
	ListInstances(ctx context.Context, after *uint64, limit int) ([]ir.InstanceRecord, error)
	CountInstances(ctx context.Context) (uint64, error)
}

// State is factory state inside one unit of work. Satisfied by *store.Tx.
//
// Every method is unconditional: authorization and lifecycle policy are
// enforced by the Factory before any of them is called.
type State interface {
	Reader

	InitConfig(ctx context.Context, cfg ir.FactoryConfig) error
	SetAdmin(ctx context.Context, admin ir.Address) error
	SetCodeRef(ctx context.Context, ref ir.CodeRef) error
	SetStatus(ctx context.Context, status ir.Status) error

	InsertInstance(ctx context.Context, addr ir.Address, extra ir.IRObject, codeHash string, createdBy ir.Address) (uint64, error)

	NextToken(ctx context.Context) (uint64, error)
	PutPending(ctx context.Context, p ir.PendingInstantiation) error
	TakePending(ctx context.Context, token uint64) (ir.PendingInstantiation, error)
	CountPending(ctx context.Context) (uint64, error)
}

// Env is the environment's attestation for one step.
type Env struct {
	// Caller is the attested identity of whoever sent the message.
	Caller ir.Address

	// Height is the environment's block height, used in child labels.
	Height uint64
}
