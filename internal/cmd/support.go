package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rentportal/rentportal-cli/internal/api"
	"github.com/rentportal/rentportal-cli/internal/outfmt"
	"github.com/rentportal/rentportal-cli/internal/validation"
)

func newSupportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "support",
		Aliases: []string{"help-desk", "ticket"},
		Short:   "Contact portal support",
	}

	cmd.AddCommand(NewListCommand(ListConfig[api.SupportTicket]{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your support tickets",
		Fetch: func(ctx context.Context, p *portal, token string) ([]api.SupportTicket, error) {
			return p.Support().List(ctx, token)
		},
		Headers: []string{"ID", "SUBJECT", "CATEGORY", "STATUS", "OPENED"},
		RowFunc: func(t api.SupportTicket) []string {
			return []string{t.ID, outfmt.Truncate(t.Subject, 40), t.Category, t.Status, outfmt.FormatDate(t.CreatedAt)}
		},
		EmptyMessage: "No support tickets found",
	}))
	cmd.AddCommand(newSupportSubmitCmd())

	return cmd
}

func newSupportSubmitCmd() *cobra.Command {
	var in api.SupportInput

	cmd := &cobra.Command{
		Use:     "submit",
		Aliases: []string{"new"},
		Short:   "Open a support ticket",
		Example: strings.TrimSpace(`
  rp support submit --subject "Cannot upload lease" --message "Upload fails at 99%"
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			var err error
			if in.Message, err = readContent(cmd, in.Message); err != nil {
				return err
			}
			if err := validation.ValidateMessageContent(in.Message); err != nil {
				return err
			}
			if err := validation.ValidateEmail(in.Email); err != nil {
				return err
			}
			if done, err := previewMutation(cmd, "open", "support ticket", "", in); done {
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
			ticket, err := p.Support().Submit(cmdContext(cmd), tok, in)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, ticket)
			}
			printAction(cmd, "Opened", "support ticket", ticket.ID, ticket.Subject)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&in.Subject, "subject", "s", "", "Subject (required)")
	cmd.Flags().StringVarP(&in.Message, "message", "m", "", "Message, or - for stdin (required)")
	cmd.Flags().StringVarP(&in.Category, "category", "c", "", "Category")
	cmd.Flags().StringVarP(&in.Email, "email", "e", "", "Reply-to email")
	addDryRunFlag(cmd)
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}
