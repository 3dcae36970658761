package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rentportal/rentportal-cli/internal/api"
	"github.com/rentportal/rentportal-cli/internal/outfmt"
)

func newDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash", "db"},
		Short:   "Show the dashboard for your role",
		Example: `  # Tenant dashboard
  rp dashboard

  # Landlord dashboard as JSON
  rp dashboard --role landlord -o json`,
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			p, err := getPortal()
			if err != nil {
				return err
			}
			defer p.Close()

			tok, err := p.storedToken(cmdContext(cmd))
			if err != nil {
				return err
			}
			d, err := withRetry(cmd, func(ctx context.Context) (*api.Dashboard, error) {
				return p.Dashboard().Fetch(ctx, tok)
			})
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, d)
			}
			renderDashboard(cmd, p.Role, d)
			return nil
		}),
	}

	cmd.AddCommand(newDashboardSummaryCmd())
	return cmd
}

func renderDashboard(cmd *cobra.Command, role api.Role, d *api.Dashboard) {
	f := formatter(cmd)
	s := d.Stats
	if role == api.RoleLandlord {
		f.Field("Properties", fmt.Sprint(s.TotalProperties))
		f.Field("Active leases", fmt.Sprint(s.ActiveLeases))
		f.Field("Monthly revenue", outfmt.FormatMoney(s.MonthlyRevenue))
		f.Field("Occupancy", fmt.Sprintf("%.0f%%", s.OccupancyRate))
	} else {
		next := outfmt.FormatDate(s.NextPaymentDue)
		if s.NextPaymentAmount > 0 {
			next += " (" + outfmt.FormatMoney(s.NextPaymentAmount) + ")"
		}
		f.Field("Next payment", next)
		f.Field("Outstanding balance", outfmt.FormatMoney(s.OutstandingBalance))
	}
	f.Field("Pending payments", fmt.Sprint(s.PendingPayments))
	f.Field("Open maintenance", fmt.Sprint(s.OpenMaintenance))
	f.Field("Unread messages", fmt.Sprint(s.UnreadMessages))

	if len(d.RecentPayments) > 0 {
		f.Section("Recent payments")
		writePaymentsTable(f, d.RecentPayments)
	}
	if len(d.MaintenanceSummary) > 0 {
		f.Section("Maintenance")
		writeMaintenanceTable(f, d.MaintenanceSummary)
	}
	if len(d.RecentMessages) > 0 {
		f.Section("Recent messages")
		writeMessagesTable(f, d.RecentMessages)
	}
}

// dashboardSummary is computed on the client from the individual listings.
type dashboardSummary struct {
	Payments          int     `json:"payments"`
	PaymentsPending   int     `json:"paymentsPending"`
	PaymentsOverdue   int     `json:"paymentsOverdue"`
	AmountOutstanding float64 `json:"amountOutstanding"`
	Messages          int     `json:"messages"`
	MessagesUnread    int     `json:"messagesUnread"`
	Maintenance       int     `json:"maintenance"`
	MaintenanceOpen   int     `json:"maintenanceOpen"`
	MaintenanceUrgent int     `json:"maintenanceUrgent"`
}

func summarize(payments []api.Payment, messages []api.Message, requests []api.MaintenanceRequest) dashboardSummary {
	s := dashboardSummary{Payments: len(payments), Messages: len(messages), Maintenance: len(requests)}
	for _, p := range payments {
		switch p.Status {
		case api.PaymentPending:
			s.PaymentsPending++
		case api.PaymentOverdue:
			s.PaymentsOverdue++
		}
		if p.Status != api.PaymentPaid {
			s.AmountOutstanding += p.Amount
		}
	}
	for _, m := range messages {
		if !m.Read {
			s.MessagesUnread++
		}
	}
	for _, r := range requests {
		if r.Status == api.MaintenanceOpen || r.Status == api.MaintenanceInProgress {
			s.MaintenanceOpen++
			if r.Priority == "Urgent" {
				s.MaintenanceUrgent++
			}
		}
	}
	return s
}

func newDashboardSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Summarize payments, messages and maintenance in parallel",
		Long: `Fetch payments, messages and maintenance requests concurrently and
compute counts locally. An expired session is renewed once for all three requests.`,
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			p, err := getPortal()
			if err != nil {
				return err
			}
			defer p.Close()

			tok, err := p.storedToken(cmdContext(cmd))
			if err != nil {
				return err
			}

			var (
				payments []api.Payment
				messages []api.Message
				requests []api.MaintenanceRequest
			)
			g, ctx := errgroup.WithContext(cmdContext(cmd))
			g.Go(func() error {
				var err error
				payments, err = p.Payments().List(ctx, tok)
				return err
			})
			g.Go(func() error {
				var err error
				messages, err = p.Messages().List(ctx, tok)
				return err
			})
			g.Go(func() error {
				var err error
				requests, err = p.Maintenance().List(ctx, tok)
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			s := summarize(payments, messages, requests)
			if isJSON(cmd) {
				return printJSON(cmd, s)
			}
			f := formatter(cmd)
			f.Field("Payments", fmt.Sprintf("%d (%d pending, %d overdue)", s.Payments, s.PaymentsPending, s.PaymentsOverdue))
			f.Field("Outstanding", outfmt.FormatMoney(s.AmountOutstanding))
			f.Field("Messages", fmt.Sprintf("%d (%d unread)", s.Messages, s.MessagesUnread))
			f.Field("Maintenance", fmt.Sprintf("%d (%d open, %d urgent)", s.Maintenance, s.MaintenanceOpen, s.MaintenanceUrgent))
			return nil
		}),
	}
}
