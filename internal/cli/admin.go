package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/factory/internal/ir"
)

// UpdateCodeOptions holds flags for the update-code command.
type UpdateCodeOptions struct {
	*RootOptions
	CodeID   uint64
	CodeHash string
}

// NewUpdateCodeCommand creates the update-code command.
func NewUpdateCodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateCodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update-code",
		Short: "Point the factory at different child code",
		Long: `Replace the child code reference. Admin only.

Existing instances keep the code hash they were created from.

Examples:
  factoryctl update-code --caller alice --code-id 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdmin(cmd, opts.RootOptions, func(s *session) (ir.ExecuteMsg, error) {
				ref, err := s.codeRef(opts.CodeID, opts.CodeHash)
				if err != nil {
					return ir.ExecuteMsg{}, err
				}
				return ir.ExecuteMsg{UpdateCode: &ir.UpdateCode{Code: ref}}, nil
			})
		},
	}

	cmd.Flags().Uint64Var(&opts.CodeID, "code-id", 0, "child code id")
	cmd.Flags().StringVar(&opts.CodeHash, "code-hash", "", "child code hash (default: from the code table)")
	_ = cmd.MarkFlagRequired("code-id")

	return cmd
}

// NewRotateAdminCommand creates the rotate-admin command.
func NewRotateAdminCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rotate-admin <new-admin>",
		Short: "Hand administration to another address",
		Long: `Hand administration to another address. Admin only.

Rotation is allowed in every status, including stopped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdmin(cmd, rootOpts, func(*session) (ir.ExecuteMsg, error) {
				return ir.ExecuteMsg{RotateAdmin: &ir.RotateAdmin{NewAdmin: ir.Address(args[0])}}, nil
			})
		},
	}
}

// NewSetStatusCommand creates the set-status command.
func NewSetStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <operational|paused|stopped>",
		Short: "Change the factory lifecycle status",
		Long: `Change the factory lifecycle status. Admin only.

Paused blocks creation. Stopped is terminal: it blocks creation and code
updates, and the status can no longer change.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(ir.StatusOperational), string(ir.StatusPaused), string(ir.StatusStopped)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdmin(cmd, rootOpts, func(*session) (ir.ExecuteMsg, error) {
				return ir.ExecuteMsg{SetStatus: &ir.SetStatus{Status: ir.Status(args[0])}}, nil
			})
		},
	}
}

// runAdmin executes the single message build returns as one unit.
func runAdmin(cmd *cobra.Command, opts *RootOptions, build func(*session) (ir.ExecuteMsg, error)) error {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	caller, err := s.caller()
	if err != nil {
		return err
	}
	msg, err := build(s)
	if err != nil {
		return err
	}

	res, err := s.host.Execute(cmd.Context(), caller, msg)
	if err != nil {
		return s.out.Fail(msg.Kind()+" failed", err)
	}
	return s.out.Success(res)
}
