package factory

import "github.com/roach88/factory/internal/ir"

// Operation names one entry of the command or query surface.
type Operation string

const (
	OpCreateInstance Operation = "create_instance"
	OpUpdateCode     Operation = "update_code"
	OpRotateAdmin    Operation = "rotate_admin"
	OpSetStatus      Operation = "set_status"
	OpQuery          Operation = "query"
)

// Class returns the authorization class of op.
func (op Operation) Class() OpClass {
	switch op {
	case OpCreateInstance:
		return ClassCreation
	case OpUpdateCode, OpRotateAdmin, OpSetStatus:
		return ClassAdmin
	default:
		return ClassQuery
	}
}

// Admit decides whether op may run while the factory is in status.
//
// Paused closes creation only. Stopped closes creation and code updates
// for good; admin rotation and set_status stay open so a stuck factory can
// still be handed over and diagnosed. Which status changes are legal once
// stopped is decided by SetStatus, not here.
func Admit(status ir.Status, op Operation) error {
	switch status {
	case ir.StatusOperational:
		return nil
	case ir.StatusPaused:
		if op.Class() == ClassCreation {
			return newError(CodeFactoryPaused, "factory is paused; %s is not allowed", op)
		}
		return nil
	case ir.StatusStopped:
		switch op {
		case OpCreateInstance, OpUpdateCode:
			return newError(CodeFactoryStopped, "factory is stopped; %s is not allowed", op)
		}
		return nil
	default:
		return newError(CodeInvalidArgument, "unknown factory status %q", status)
	}
}
