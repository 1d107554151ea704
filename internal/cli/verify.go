package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// integrityView is the verify command's output.
type integrityView struct {
	Instances    uint64   `json:"instances"`
	NextSequence uint64   `json:"next_sequence"`
	NextToken    uint64   `json:"next_token"`
	Pending      uint64   `json:"pending"`
	Gaps         []uint64 `json:"gaps,omitempty"`
	Consistent   bool     `json:"consistent"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check registry consistency",
		Long: `Check that the registry holds exactly the sequences 0..n-1 and that
the counters agree with it.

Exit codes:
  0 - Registry is consistent
  1 - Registry is inconsistent
  2 - Command error`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			report, err := s.host.Verify(cmd.Context())
			if err != nil {
				return s.out.Fail("verify failed", err)
			}
			view := integrityView{
				Instances:    report.Instances,
				NextSequence: report.NextSequence,
				NextToken:    report.NextToken,
				Pending:      report.Pending,
				Gaps:         report.Gaps,
				Consistent:   report.Consistent,
			}
			if err := s.out.Success(view); err != nil {
				return err
			}
			if !report.Consistent {
				return NewExitError(ExitFailure,
					fmt.Sprintf("registry inconsistent: %d instances, next sequence %d", report.Instances, report.NextSequence))
			}
			return nil
		},
	}
}
