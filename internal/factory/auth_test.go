package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/factory/internal/ir"
)

func TestAuthorize(t *testing.T) {
	adminOnly := ir.FactoryConfig{Admin: adminAddr, AuthMode: ir.AuthAdminOnly}
	open := ir.FactoryConfig{Admin: adminAddr, AuthMode: ir.AuthOpen}

	tests := []struct {
		name    string
		cfg     ir.FactoryConfig
		caller  ir.Address
		class   OpClass
		allowed bool
	}{
		{"admin-only create by admin", adminOnly, adminAddr, ClassCreation, true},
		{"admin-only create by stranger", adminOnly, aliceAddr, ClassCreation, false},
		{"open create by stranger", open, aliceAddr, ClassCreation, true},
		{"admin op by admin", open, adminAddr, ClassAdmin, true},
		{"admin op by stranger in open mode", open, aliceAddr, ClassAdmin, false},
		{"query by anyone", adminOnly, bobAddr, ClassQuery, true},
		{"unknown auth mode", ir.FactoryConfig{Admin: adminAddr, AuthMode: "weird"}, adminAddr, ClassCreation, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.cfg, tt.caller, tt.class)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}
