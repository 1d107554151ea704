package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/factory/internal/ir"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Admin    string
	AuthMode string
	CodeID   uint64
	CodeHash string
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Deploy the factory",
		Long: `Deploy the factory into the database.

The caller becomes admin unless --admin is given. Without --code-id the
factory instantiates the built-in echo child (code id 1).

Examples:
  factoryctl init --caller alice
  factoryctl init --caller alice --admin bob --auth-mode open
  factoryctl init --caller alice --code-id 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Admin, "admin", "", "initial admin (default: caller)")
	cmd.Flags().StringVar(&opts.AuthMode, "auth-mode", string(ir.AuthAdminOnly), "who may create instances (admin_only|open)")
	cmd.Flags().Uint64Var(&opts.CodeID, "code-id", 0, "child code id (default: echo)")
	cmd.Flags().StringVar(&opts.CodeHash, "code-hash", "", "child code hash (default: from the code table)")

	return cmd
}

func runInit(cmd *cobra.Command, opts *InitOptions) error {
	s, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	deployer, err := s.caller()
	if err != nil {
		return err
	}

	code := s.echo
	if opts.CodeID != 0 {
		if code, err = s.codeRef(opts.CodeID, opts.CodeHash); err != nil {
			return err
		}
	}

	msg := ir.InstantiateMsg{Code: code, AuthMode: ir.AuthMode(opts.AuthMode)}
	if opts.Admin != "" {
		admin := ir.Address(opts.Admin)
		msg.Admin = &admin
	}

	cfg, err := s.host.Deploy(cmd.Context(), deployer, msg)
	if err != nil {
		return s.out.Fail("init failed", err)
	}
	return s.out.Success(cfg)
}
