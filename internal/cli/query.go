package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/factory/internal/ir"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Cursor  uint64
	Limit   uint32
	Creator string
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <address>",
		Short: "Show one registered instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, rootOpts, ir.QueryMsg{
				GetInstance: &ir.GetInstance{Address: ir.Address(args[0])},
			})
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Page through the registry",
		Long: `Page through registered instances in creation order.

Pass the next_cursor of one page as --cursor to get the next. The page
size is capped by page_limit_max.

--creator lists every instance requested by one address instead of a page.

Examples:
  factoryctl list --limit 10
  factoryctl list --limit 10 --cursor 9
  factoryctl list --creator alice`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Creator != "" {
				return runListByCreator(cmd, rootOpts, ir.Address(opts.Creator))
			}
			q := &ir.ListInstances{Limit: opts.Limit}
			if cmd.Flags().Changed("cursor") {
				cursor := opts.Cursor
				q.Cursor = &cursor
			}
			return runQuery(cmd, rootOpts, ir.QueryMsg{ListInstances: q})
		},
	}

	cmd.Flags().Uint64Var(&opts.Cursor, "cursor", 0, "sequence of the last instance already seen")
	cmd.Flags().Uint32Var(&opts.Limit, "limit", 10, "page size")
	cmd.Flags().StringVar(&opts.Creator, "creator", "", "only instances requested by this address")
	cmd.MarkFlagsMutuallyExclusive("creator", "cursor")

	return cmd
}

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the factory configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, rootOpts, ir.QueryMsg{GetConfig: true})
		},
	}
}

// codeView is one code table row as printed by the codes command.
type codeView struct {
	ID    uint64 `json:"code_id"`
	Label string `json:"label"`
	Hash  string `json:"code_hash"`
}

// NewCodesCommand creates the codes command.
func NewCodesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "codes",
		Short: "List the child code available to the factory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			codes := s.host.Codes()
			out := make([]codeView, len(codes))
			for i, c := range codes {
				out[i] = codeView{ID: c.ID, Label: c.Label, Hash: c.Hash}
			}
			return s.out.Success(out)
		},
	}
}

func runQuery(cmd *cobra.Command, opts *RootOptions, q ir.QueryMsg) error {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.host.Query(cmd.Context(), q)
	if err != nil {
		return s.out.Fail(q.Kind()+" failed", err)
	}

	switch {
	case res.Instance != nil:
		return s.out.Success(res.Instance)
	case res.Page != nil:
		if s.out.Format == "json" {
			return s.out.Success(res.Page)
		}
		return s.out.Success(pageView{res.Page})
	default:
		return s.out.Success(res.Config)
	}
}

func runListByCreator(cmd *cobra.Command, opts *RootOptions, creator ir.Address) error {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	recs, err := s.host.InstancesBy(cmd.Context(), creator)
	if err != nil {
		return s.out.Fail("list by creator failed", err)
	}
	page := &ir.InstancePage{Instances: recs, Total: uint64(len(recs))}
	if s.out.Format == "json" {
		return s.out.Success(page)
	}
	return s.out.Success(pageView{page})
}

// pageView renders a registry page as a table.
type pageView struct {
	*ir.InstancePage
}

func (p pageView) String() string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tADDRESS\tCREATED BY\tCODE HASH")
	for _, rec := range p.Instances {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", rec.Sequence, rec.Address, rec.CreatedBy, shortHash(rec.CodeHash))
	}
	tw.Flush()

	fmt.Fprintf(&b, "%d of %d", len(p.Instances), p.Total)
	if p.NextCursor != nil {
		fmt.Fprintf(&b, ", next cursor %d", *p.NextCursor)
	}
	return b.String()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
