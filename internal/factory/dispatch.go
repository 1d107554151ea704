package factory

import (
	"context"

	"github.com/roach88/factory/internal/ir"
)

// Execute routes one command to its handler.
func (f *Factory) Execute(ctx context.Context, st State, env Env, msg ir.ExecuteMsg) (ir.Response, error) {
	switch msg.Kind() {
	case "create_instance":
		return f.Create(ctx, st, env, *msg.CreateInstance)
	case "update_code":
		return f.UpdateCode(ctx, st, env, msg.UpdateCode.Code)
	case "rotate_admin":
		return f.RotateAdmin(ctx, st, env, msg.RotateAdmin.NewAdmin)
	case "set_status":
		return f.SetStatus(ctx, st, env, msg.SetStatus.Status)
	default:
		return ir.Response{}, newError(CodeInvalidArgument, "execute msg must set exactly one command")
	}
}

// QueryResult holds the answer to one query. Exactly one field is set.
type QueryResult struct {
	Instance *ir.InstanceRecord `json:"instance,omitempty"`
	Page     *ir.InstancePage   `json:"page,omitempty"`
	Config   *ir.FactoryConfig  `json:"config,omitempty"`
}

// Query routes one query to its handler.
func (f *Factory) Query(ctx context.Context, r Reader, msg ir.QueryMsg) (QueryResult, error) {
	switch msg.Kind() {
	case "get_instance":
		rec, err := f.GetInstance(ctx, r, msg.GetInstance.Address)
		if err != nil {
			return QueryResult{}, err
		}
		return QueryResult{Instance: &rec}, nil
	case "list_instances":
		page, err := f.ListInstances(ctx, r, msg.ListInstances.Cursor, msg.ListInstances.Limit)
		if err != nil {
			return QueryResult{}, err
		}
		return QueryResult{Page: &page}, nil
	case "get_config":
		cfg, err := f.GetConfig(ctx, r)
		if err != nil {
			return QueryResult{}, err
		}
		return QueryResult{Config: &cfg}, nil
	default:
		return QueryResult{}, newError(CodeInvalidArgument, "query msg must set exactly one query")
	}
}
