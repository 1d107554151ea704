package host

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/factory/internal/ir"
)

// AddressRequest describes the child an address is being assigned to.
type AddressRequest struct {
	Creator ir.Address // the factory instantiating the child
	CodeID  uint64
	Token   uint64
}

// AddressGenerator assigns addresses to new child instances.
type AddressGenerator interface {
	Next(req AddressRequest) (ir.Address, error)
}

// DerivedAddresses derives the address from the creator, code id and token.
//
// Tokens are never reused once a unit commits, so derived addresses are
// unique across restarts of the environment.
type DerivedAddresses struct{}

// Next implements AddressGenerator.
func (DerivedAddresses) Next(req AddressRequest) (ir.Address, error) {
	return ir.DeriveAddress(req.Creator, req.CodeID, req.Token)
}

// UUIDAddresses assigns random addresses.
type UUIDAddresses struct{}

// Next implements AddressGenerator.
func (UUIDAddresses) Next(AddressRequest) (ir.Address, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate address: %w", err)
	}
	return ir.Address("inst1" + strings.ReplaceAll(id.String(), "-", "")), nil
}

// SequentialAddresses assigns Prefix followed by the correlation token,
// which gives readable, deterministic addresses in tests and traces.
type SequentialAddresses struct {
	Prefix string
}

// Next implements AddressGenerator.
func (g SequentialAddresses) Next(req AddressRequest) (ir.Address, error) {
	prefix := g.Prefix
	if prefix == "" {
		prefix = "child-"
	}
	return ir.Address(fmt.Sprintf("%s%d", prefix, req.Token)), nil
}
