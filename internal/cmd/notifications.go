package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rentportal/rentportal-cli/internal/api"
	"github.com/rentportal/rentportal-cli/internal/outfmt"
)

func newNotificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notify", "notif"},
		Short:   "View and change notification preferences",
	}

	cmd.AddCommand(newNotificationsShowCmd())
	cmd.AddCommand(newNotificationsSetCmd())

	return cmd
}

func renderNotifications(f *outfmt.Formatter, n *api.NotificationPreferences) {
	f.StartTable([]string{"CHANNEL", "ENABLED"})
	f.Row("email", outfmt.YesNo(n.Email))
	f.Row("sms", outfmt.YesNo(n.SMS))
	f.Row("push", outfmt.YesNo(n.Push))
	f.Row("payment-reminders", outfmt.YesNo(n.PaymentReminders))
	f.Row("maintenance-updates", outfmt.YesNo(n.MaintenanceUpdates))
	f.Row("messages", outfmt.YesNo(n.Messages))
	_ = f.EndTable()
}

func newNotificationsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "show",
		Aliases: []string{"get"},
		Short:   "Show notification preferences",
		Args:    cobra.NoArgs,
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
			prefs, err := withRetry(cmd, func(ctx context.Context) (*api.NotificationPreferences, error) {
				return p.Notifications().Get(ctx, tok)
			})
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, prefs)
			}
			renderNotifications(formatter(cmd), prefs)
			return nil
		}),
	}
}

func newNotificationsSetCmd() *cobra.Command {
	var email, sms, push, reminders, maintenance, messages bool

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change notification preferences",
		Long:  "Change notification preferences. Only the channels given are changed.",
		Example: strings.TrimSpace(`
  rp notifications set --sms=false --payment-reminders
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			in := api.NotificationUpdate{
				Email:              boolPtrIfChanged(cmd, "email", email),
				SMS:                boolPtrIfChanged(cmd, "sms", sms),
				Push:               boolPtrIfChanged(cmd, "push", push),
				PaymentReminders:   boolPtrIfChanged(cmd, "payment-reminders", reminders),
				MaintenanceUpdates: boolPtrIfChanged(cmd, "maintenance-updates", maintenance),
				Messages:           boolPtrIfChanged(cmd, "messages", messages),
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
			prefs, err := p.Notifications().Update(cmdContext(cmd), tok, in)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, prefs)
			}
			renderNotifications(formatter(cmd), prefs)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&email, "email", false, "Email notifications")
	cmd.Flags().BoolVar(&sms, "sms", false, "SMS notifications")
	cmd.Flags().BoolVar(&push, "push", false, "Push notifications")
	cmd.Flags().BoolVar(&reminders, "payment-reminders", false, "Payment reminders")
	cmd.Flags().BoolVar(&maintenance, "maintenance-updates", false, "Maintenance updates")
	cmd.Flags().BoolVar(&messages, "messages", false, "New message alerts")
	return cmd
}
