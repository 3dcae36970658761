package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rentportal/rentportal-cli/internal/api"
	"github.com/rentportal/rentportal-cli/internal/outfmt"
	"github.com/rentportal/rentportal-cli/internal/validation"
)

func newPaymentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "payments",
		Aliases: []string{"payment", "pay"},
		Short:   "Manage rent payments",
		Long:    "List, record, update and process rent payments",
	}

	cmd.AddCommand(newPaymentsListCmd())
	cmd.AddCommand(newPaymentsRecordCmd())
	cmd.AddCommand(newPaymentsUpdateCmd())
	cmd.AddCommand(newPaymentsStatusCmd())
	cmd.AddCommand(newPaymentsDeleteCmd())
	cmd.AddCommand(newPaymentsProcessCmd())

	return cmd
}

func writePaymentsTable(f *outfmt.Formatter, payments []api.Payment) {
	f.StartTable([]string{"ID", "AMOUNT", "STATUS", "DUE", "PAID", "PROPERTY", "TENANT"})
	for _, p := range payments {
		f.Row(paymentRow(p)...)
	}
	_ = f.EndTable()
}

func paymentRow(p api.Payment) []string {
	return []string{
		p.ID,
		outfmt.FormatMoney(p.Amount),
		p.Status,
		outfmt.FormatDate(p.DueDate),
		outfmt.FormatDate(p.PaidDate),
		outfmt.Truncate(p.PropertyTitle, 30),
		p.TenantName,
	}
}

func newPaymentsListCmd() *cobra.Command {
	var status string

	cmd := NewListCommand(ListConfig[api.Payment]{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List payments",
		Example: strings.TrimSpace(`
  # All payments
  rp payments list

  # Overdue payments as JSON
  rp payments list --status overdue -o json
`),
		Fetch: func(ctx context.Context, p *portal, token string) ([]api.Payment, error) {
			return p.Payments().List(ctx, token)
		},
		Filter: func(p api.Payment) bool {
			return status == "" || strings.EqualFold(p.Status, status)
		},
		Headers:      []string{"ID", "AMOUNT", "STATUS", "DUE", "PAID", "PROPERTY", "TENANT"},
		RowFunc:      paymentRow,
		EmptyMessage: "No payments found",
	})
	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status ("+strings.Join(api.PaymentStatuses, ", ")+")")
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		if status == "" {
			return nil
		}
		var err error
		status, err = validation.ParseChoice(status, "status", api.PaymentStatuses)
		return err
	}
	return cmd
}

func newPaymentsRecordCmd() *cobra.Command {
	var amount, status, due, tenant, property, method, description string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a new payment",
		Example: strings.TrimSpace(`
  rp payments record --amount 1200 --tenant t1 --property p1 --due 2024-05-01

  # Check the request without recording anything
  rp payments record --amount 1200 --tenant t1 --due 30d --dry-run
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			in := api.PaymentInput{TenantID: tenant, PropertyID: property, Method: method, Description: description}
			var err error
			if in.Amount, err = validation.ParseAmount(amount); err != nil {
				return err
			}
			if in.Status, err = validation.ParseChoice(status, "status", api.PaymentStatuses); err != nil {
				return err
			}
			if in.DueDate, err = validation.ParseDate(due, "due date"); err != nil {
				return err
			}
			var warnings []string
			if in.DueDate != "" && in.DueDate < time.Now().Format(validation.DateLayout) {
				warnings = append(warnings, fmt.Sprintf("Due date %s is in the past", in.DueDate))
			}
			if done, err := previewMutation(cmd, "record", "payment", "", in, warnings...); done {
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
			payment, err := p.Payments().Record(cmdContext(cmd), tok, in)
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, payment)
			}
			printAction(cmd, "Recorded", "payment", payment.ID, outfmt.FormatMoney(payment.Amount))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&amount, "amount", "a", "", "Payment amount (required)")
	cmd.Flags().StringVarP(&status, "status", "s", api.PaymentPending, "Payment status")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD, fri, 30d)")
	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant ID")
	cmd.Flags().StringVar(&property, "property", "", "Property ID")
	cmd.Flags().StringVarP(&method, "method", "m", "", "Payment method")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description")
	flagAlias(cmd.Flags(), "description", "desc")
	addDryRunFlag(cmd)
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

// findPayment looks up one payment in the caller's listing. The portal has
// no single-payment endpoint.
func findPayment(ctx context.Context, p *portal, token, id string) (*api.Payment, error) {
	payments, err := p.Payments().List(ctx, token)
	if err != nil {
		return nil, err
	}
	for i := range payments {
		if payments[i].ID == id {
			return &payments[i], nil
		}
	}
	return nil, &api.Error{Category: api.CategoryClient, StatusCode: http.StatusNotFound, Message: fmt.Sprintf("Payment %s not found", id), Details: api.NoDetails}
}

func newPaymentsUpdateCmd() *cobra.Command {
	var amount, status, due, method, description string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a payment",
		Long:  "Update a payment. Fields that are not given keep their current values.",
		Example: strings.TrimSpace(`
  rp payments update pay_1 --amount 1250 --due 2024-06-01
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			id, err := requireArgID(args, "payment ID")
			if err != nil {
				return err
			}

			p, err := getPortal()
			if err != nil {
				return err
			}
			defer p.Close()

			ctx := cmdContext(cmd)
			tok, err := p.storedToken(ctx)
			if err != nil {
				return err
			}
			current, err := findPayment(ctx, p, tok, id)
			if err != nil {
				return err
			}

			in := api.PaymentUpdate{
				Amount:      current.Amount,
				DueDate:     current.DueDate,
				Status:      current.Status,
				Method:      current.Method,
				Description: current.Description,
			}
			if cmd.Flags().Changed("amount") {
				if in.Amount, err = validation.ParseAmount(amount); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("status") {
				if in.Status, err = validation.ParseChoice(status, "status", api.PaymentStatuses); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("due") {
				if in.DueDate, err = validation.ParseDate(due, "due date"); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("method") {
				in.Method = method
			}
			if flagOrAliasChanged(cmd, "description") {
				in.Description = description
			}

			payment, err := p.Payments().Update(ctx, tok, id, in)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, payment)
			}
			printAction(cmd, "Updated", "payment", payment.ID, "")
			return nil
		}),
	}

	cmd.Flags().StringVarP(&amount, "amount", "a", "", "Payment amount")
	cmd.Flags().StringVarP(&status, "status", "s", "", "Payment status")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD, fri, 30d)")
	cmd.Flags().StringVarP(&method, "method", "m", "", "Payment method")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description")
	flagAlias(cmd.Flags(), "description", "desc")
	return cmd
}

func newPaymentsStatusCmd() *cobra.Command {
	var concurrency int64

	cmd := &cobra.Command{
		Use:   "status <status> <id>...",
		Short: "Set the status of one or more payments",
		Example: strings.TrimSpace(`
  rp payments status paid pay_1 pay_2 pay_3
`),
		Args: cobra.MinimumNArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			status, err := validation.ParseChoice(args[0], "status", api.PaymentStatuses)
			if err != nil {
				return err
			}
			ids, err := parseIDArgs(args[1:], "payment ID")
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
			results := runBulkOperation(cmdContext(cmd), ids, concurrency, bulkProgress(cmd), func(ctx context.Context, id string) (*api.Payment, error) {
				return p.Payments().UpdateStatus(ctx, tok, id, status)
			})
			return reportBulk(cmd, "Marked "+status, "payment", results)
		}),
	}

	cmd.Flags().Int64VarP(&concurrency, "concurrency", "c", DefaultConcurrency, "Parallel requests")
	return cmd
}

func newPaymentsDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a payment",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			id, err := requireArgID(args, "payment ID")
			if err != nil {
				return err
			}
			ok, err := confirmAction(cmd, fmt.Sprintf("Delete payment %s?", id), force)
			if err != nil || !ok {
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
			if err := p.Payments().Delete(cmdContext(cmd), tok, id); err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"id": id, "deleted": true})
			}
			printAction(cmd, "Deleted", "payment", id, "")
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")
	return cmd
}

func newPaymentsProcessCmd() *cobra.Command {
	var amount, method string

	cmd := &cobra.Command{
		Use:     "process <id>",
		Aliases: []string{"pay"},
		Short:   "Pay an outstanding payment",
		Example: strings.TrimSpace(`
  rp payments process pay_1 --amount 1200 --method card
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			id, err := requireArgID(args, "payment ID")
			if err != nil {
				return err
			}
			in := api.ProcessPaymentInput{Method: method}
			if in.Amount, err = validation.ParseAmount(amount); err != nil {
				return err
			}
			if done, err := previewMutation(cmd, "pay", "payment", id, in); done {
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
			payment, err := p.Payments().Process(cmdContext(cmd), tok, id, in)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, payment)
			}
			printAction(cmd, "Paid", "payment", payment.ID, outfmt.FormatMoney(in.Amount))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&amount, "amount", "a", "", "Amount to pay (required)")
	cmd.Flags().StringVarP(&method, "method", "m", "card", "Payment method")
	addDryRunFlag(cmd)
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
