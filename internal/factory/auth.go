package factory

import "github.com/roach88/factory/internal/ir"

// OpClass groups operations for authorization and lifecycle checks.
type OpClass int

const (
	ClassCreation OpClass = iota + 1
	ClassAdmin
	ClassQuery
)

// Authorize decides whether caller may perform an operation of class.
//
//   - ClassAdmin: caller must be the admin.
//   - ClassCreation: anyone in AuthOpen mode, only the admin in AuthAdminOnly.
//   - ClassQuery: always allowed.
func Authorize(cfg ir.FactoryConfig, caller ir.Address, class OpClass) error {
	switch class {
	case ClassQuery:
		return nil
	case ClassAdmin:
		if caller != cfg.Admin {
			return newError(CodeUnauthorized, "caller %q is not the admin", caller)
		}
		return nil
	case ClassCreation:
		switch cfg.AuthMode {
		case ir.AuthOpen:
			return nil
		case ir.AuthAdminOnly:
			if caller != cfg.Admin {
				return newError(CodeUnauthorized, "creation is restricted to the admin; caller %q is not the admin", caller)
			}
			return nil
		default:
			return newError(CodeUnauthorized, "unknown auth mode %q", cfg.AuthMode)
		}
	default:
		return newError(CodeUnauthorized, "unknown operation class %d", class)
	}
}
