package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rentportal/rentportal-cli/internal/api"
	"github.com/rentportal/rentportal-cli/internal/outfmt"
	"github.com/rentportal/rentportal-cli/internal/validation"
)

func newApplicationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "applications",
		Aliases: []string{"application", "apps"},
		Short:   "Rental applications",
		Long:    "Tenants submit and track applications. Landlords review the applications they receive.",
	}

	cmd.AddCommand(newApplicationsListCmd())
	cmd.AddCommand(newApplicationsSubmitCmd())
	cmd.AddCommand(newApplicationsDecisionCmd("approve", api.ApplicationApproved))
	cmd.AddCommand(newApplicationsDecisionCmd("reject", api.ApplicationRejected))

	return cmd
}

func applicationRow(a api.Application) []string {
	return []string{
		a.ID,
		outfmt.Truncate(a.PropertyTitle, 30),
		a.ApplicantName,
		a.Status,
		outfmt.FormatDate(a.MoveInDate),
		outfmt.FormatDate(a.CreatedAt),
	}
}

func newApplicationsListCmd() *cobra.Command {
	var status string

	cmd := NewListCommand(ListConfig[api.Application]{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List applications",
		Fetch: func(ctx context.Context, p *portal, token string) ([]api.Application, error) {
			return p.Applications().List(ctx, token)
		},
		Filter: func(a api.Application) bool {
			return status == "" || strings.EqualFold(a.Status, status)
		},
		Headers:      []string{"ID", "PROPERTY", "APPLICANT", "STATUS", "MOVE-IN", "SUBMITTED"},
		RowFunc:      applicationRow,
		EmptyMessage: "No applications found",
	})
	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status ("+strings.Join(api.ApplicationStatuses, ", ")+")")
	return cmd
}

func newApplicationsSubmitCmd() *cobra.Command {
	var property, message, moveIn, income string

	cmd := &cobra.Command{
		Use:     "submit",
		Aliases: []string{"apply"},
		Short:   "Apply for a property",
		Example: strings.TrimSpace(`
  rp applications submit --property prop_12 --move-in 2024-07-01 --income 5200 --message "Two adults, no pets"
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			var (
				in  api.ApplicationInput
				err error
			)
			if in.PropertyID, err = validation.ValidateID(property, "property ID"); err != nil {
				return err
			}
			if in.MoveInDate, err = validation.ParseDate(moveIn, "move-in date"); err != nil {
				return err
			}
			if income != "" {
				if in.Income, err = validation.ParseAmount(income); err != nil {
					return err
				}
			}
			in.Message = message
			if done, err := previewMutation(cmd, "submit", "application", "", in); done {
				return err
			}

			p, err := getPortal()
			if err != nil {
				return err
			}
			defer p.Close()

			tok, err := p.storedToken(cmdContext(cmd))
			if err != nil {
				return err
			}
			app, err := p.Applications().Submit(cmdContext(cmd), tok, in)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, app)
			}
			printAction(cmd, "Submitted", "application", app.ID, app.PropertyTitle)
			return nil
		}),
	}

	cmd.Flags().StringVar(&property, "property", "", "Property ID (required)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Note to the landlord")
	cmd.Flags().StringVar(&moveIn, "move-in", "", "Desired move-in date (YYYY-MM-DD, next mon, 2w)")
	cmd.Flags().StringVar(&income, "income", "", "Monthly income")
	addDryRunFlag(cmd)
	_ = cmd.MarkFlagRequired("property")
	return cmd
}

func newApplicationsDecisionCmd(use, status string) *cobra.Command {
	var concurrency int64

	cmd := &cobra.Command{
		Use:   use + " <id>...",
		Short: "Mark applications as " + strings.ToLower(status) + " (landlords)",
		Args:  cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDArgs(args, "application ID")
			if err != nil {
				return err
			}

			p, err := getPortal()
			if err != nil {
				return err
			}
			defer p.Close()

			tok, err := p.storedToken(cmdContext(cmd))
			if err != nil {
				return err
			}
			results := runBulkOperation(cmdContext(cmd), ids, concurrency, bulkProgress(cmd), func(ctx context.Context, id string) (*api.Application, error) {
				return p.Applications().UpdateStatus(ctx, tok, id, status)
			})
			return reportBulk(cmd, status, "application", results)
		}),
	}

	cmd.Flags().Int64VarP(&concurrency, "concurrency", "c", DefaultConcurrency, "Parallel requests")
	return cmd
}
