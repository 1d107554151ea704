package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/factory/internal/ir"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Msg   string
	Funds []string
	Count int
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create child instances",
		Long: `Ask the factory to create child instances.

--msg is forwarded verbatim to each child. The echo child registers the
"extra" field of its msg and fails when the msg sets "fail".

--count sends that many creation requests in one unit of work: if any
child fails, none are registered.

Examples:
  factoryctl create --caller alice --msg '{"extra":{"name":"pool-a"}}'
  factoryctl create --caller alice --funds uatom:100 --count 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Msg, "msg", "{}", "JSON instantiate msg forwarded to the child")
	cmd.Flags().StringSliceVar(&opts.Funds, "funds", nil, "coins forwarded to the child (denom:amount, repeatable)")
	cmd.Flags().IntVar(&opts.Count, "count", 1, "number of instances to create in one unit")

	return cmd
}

func runCreate(cmd *cobra.Command, opts *CreateOptions) error {
	if opts.Count < 1 {
		return NewExitError(ExitCommandError, "--count must be at least 1")
	}
	if !json.Valid([]byte(opts.Msg)) {
		return NewExitError(ExitCommandError, "--msg is not valid JSON")
	}
	funds, err := parseFunds(opts.Funds)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --funds", err)
	}

	s, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	caller, err := s.caller()
	if err != nil {
		return err
	}

	msgs := make([]ir.ExecuteMsg, opts.Count)
	for i := range msgs {
		msgs[i] = ir.ExecuteMsg{CreateInstance: &ir.CreateInstance{
			Msg:   json.RawMessage(opts.Msg),
			Funds: funds,
		}}
	}

	res, err := s.host.Execute(cmd.Context(), caller, msgs...)
	if err != nil {
		return s.out.Fail("create failed", err)
	}
	return s.out.Success(res)
}

// parseFunds parses denom:amount pairs.
func parseFunds(raw []string) ([]ir.Coin, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	coins := make([]ir.Coin, 0, len(raw))
	for _, item := range raw {
		denom, amount, ok := strings.Cut(item, ":")
		if !ok || denom == "" {
			return nil, fmt.Errorf("%q: want denom:amount", item)
		}
		n, err := strconv.ParseUint(amount, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: amount: %w", item, err)
		}
		coins = append(coins, ir.Coin{Denom: denom, Amount: n})
	}
	return coins, nil
}
