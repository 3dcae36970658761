package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rentportal/rentportal-cli/internal/api"
	"github.com/rentportal/rentportal-cli/internal/outfmt"
)

func newLeasesCmd() *cobra.Command {
	var active bool

	cmd := &cobra.Command{
		Use:     "leases",
		Aliases: []string{"lease"},
		Short:   "View leases",
	}

	list := NewListCommand(ListConfig[api.Lease]{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your leases",
		Fetch: func(ctx context.Context, p *portal, token string) ([]api.Lease, error) {
			return p.Leases().List(ctx, token)
		},
		Filter: func(l api.Lease) bool {
			return !active || strings.EqualFold(l.Status, "active")
		},
		Headers: []string{"ID", "PROPERTY", "TENANT", "START", "END", "RENT", "STATUS"},
		RowFunc: func(l api.Lease) []string {
			return []string{
				l.ID,
				outfmt.Truncate(l.PropertyTitle, 30),
				l.TenantName,
				outfmt.FormatDate(l.StartDate),
				outfmt.FormatDate(l.EndDate),
				outfmt.FormatMoney(l.MonthlyRent),
				l.Status,
			}
		},
		EmptyMessage: "No leases found",
	})
	list.Flags().BoolVar(&active, "active", false, "Only active leases")
	cmd.AddCommand(list)

	return cmd
}
