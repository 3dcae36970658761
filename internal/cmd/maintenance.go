package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rentportal/rentportal-cli/internal/api"
	"github.com/rentportal/rentportal-cli/internal/outfmt"
	"github.com/rentportal/rentportal-cli/internal/validation"
)

func newMaintenanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "maintenance",
		Aliases: []string{"maint", "mx"},
		Short:   "Manage maintenance requests",
	}

	cmd.AddCommand(newMaintenanceListCmd())
	cmd.AddCommand(newMaintenanceGetCmd())
	cmd.AddCommand(newMaintenanceSubmitCmd())
	cmd.AddCommand(newMaintenanceUpdateCmd())
	cmd.AddCommand(newMaintenanceCancelCmd())

	return cmd
}

var maintenanceHeaders = []string{"ID", "TYPE", "STATUS", "PRIORITY", "PROPERTY", "CREATED"}

func writeMaintenanceTable(f *outfmt.Formatter, requests []api.MaintenanceRequest) {
	f.StartTable(maintenanceHeaders)
	for _, r := range requests {
		f.Row(maintenanceRow(r)...)
	}
	_ = f.EndTable()
}

func maintenanceRow(r api.MaintenanceRequest) []string {
	property := r.PropertyTitle
	if property == "" {
		property = r.Address
	}
	return []string{
		r.ID,
		r.Type,
		r.Status,
		r.Priority,
		outfmt.Truncate(property, 30),
		outfmt.FormatDate(r.CreatedAt),
	}
}

func newMaintenanceListCmd() *cobra.Command {
	var status string

	cmd := NewListCommand(ListConfig[api.MaintenanceRequest]{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List maintenance requests",
		Example: strings.TrimSpace(`
  rp maintenance list --status open
`),
		Fetch: func(ctx context.Context, p *portal, token string) ([]api.MaintenanceRequest, error) {
			return p.Maintenance().List(ctx, token)
		},
		Filter: func(r api.MaintenanceRequest) bool {
			return status == "" || strings.EqualFold(r.Status, status)
		},
		Headers:      maintenanceHeaders,
		RowFunc:      maintenanceRow,
		EmptyMessage: "No maintenance requests found",
	})
	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status ("+strings.Join(api.MaintenanceStatuses, ", ")+")")
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		if status == "" {
			return nil
		}
		var err error
		status, err = validation.ParseChoice(status, "status", api.MaintenanceStatuses)
		return err
	}
	return cmd
}

func newMaintenanceGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <id>",
		Aliases: []string{"show"},
		Short:   "Show a maintenance request",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			id, err := requireArgID(args, "request ID")
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
			req, err := withRetry(cmd, func(ctx context.Context) (*api.MaintenanceRequest, error) {
				return p.Maintenance().Get(ctx, tok, id)
			})
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, req)
			}
			f := formatter(cmd)
			f.Field("Request", req.ID)
			f.Field("Type", req.Type)
			f.Field("Status", req.Status)
			f.Field("Priority", req.Priority)
			f.Field("Address", req.Address)
			if req.PropertyTitle != "" {
				f.Field("Property", req.PropertyTitle)
			}
			if req.TenantName != "" {
				f.Field("Tenant", req.TenantName)
			}
			f.Field("Created", outfmt.FormatDate(req.CreatedAt))
			f.Field("Updated", outfmt.FormatDate(req.UpdatedAt))
			for _, img := range req.Images {
				f.Field("Image", img)
			}
			f.Section(req.Details)
			return nil
		}),
	}
}

type maintenanceFlags struct {
	kind, details, address, status, priority, property string
}

func (m *maintenanceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&m.kind, "type", "t", "", "Request type, for example Plumbing")
	cmd.Flags().StringVarP(&m.details, "details", "d", "", "Description of the problem")
	cmd.Flags().StringVarP(&m.address, "address", "a", "", "Address of the unit")
	cmd.Flags().StringVarP(&m.priority, "priority", "p", "", "Priority ("+strings.Join(api.MaintenancePriorities, ", ")+")")
	cmd.Flags().StringVar(&m.property, "property", "", "Property ID")
	flagAlias(cmd.Flags(), "details", "desc")
}

// apply overlays the flags that were set onto in.
func (m *maintenanceFlags) apply(cmd *cobra.Command, in *api.MaintenanceInput) error {
	var err error
	if cmd.Flags().Changed("type") {
		in.Type = m.kind
	}
	if flagOrAliasChanged(cmd, "details") {
		in.Details = m.details
	}
	if cmd.Flags().Changed("address") {
		in.Address = m.address
	}
	if cmd.Flags().Changed("priority") {
		if in.Priority, err = validation.ParseChoice(m.priority, "priority", api.MaintenancePriorities); err != nil {
			return err
		}
	}
	if cmd.Flags().Lookup("status") != nil && cmd.Flags().Changed("status") {
		if in.Status, err = validation.ParseChoice(m.status, "status", api.MaintenanceStatuses); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("property") {
		in.PropertyID = m.property
	}
	return nil
}

func newMaintenanceSubmitCmd() *cobra.Command {
	var mf maintenanceFlags

	cmd := &cobra.Command{
		Use:     "submit",
		Aliases: []string{"create"},
		Short:   "Submit a maintenance request",
		Example: strings.TrimSpace(`
  rp maintenance submit --type Plumbing --details "Kitchen sink leaks" --address "12 Elm St, Apt 3" --priority High
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			in := api.MaintenanceInput{Priority: "Medium"}
			if err := mf.apply(cmd, &in); err != nil {
				return err
			}
			if done, err := previewMutation(cmd, "submit", "maintenance request", "", in); done {
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
			req, err := p.Maintenance().Submit(cmdContext(cmd), tok, in)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, req)
			}
			printAction(cmd, "Submitted", "maintenance request", req.ID, req.Type)
			return nil
		}),
	}

	mf.register(cmd)
	addDryRunFlag(cmd)
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("details")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

func newMaintenanceUpdateCmd() *cobra.Command {
	var mf maintenanceFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a maintenance request",
		Long:  "Update a maintenance request. Fields that are not given keep their current values.",
		Example: strings.TrimSpace(`
  rp maintenance update mr_7 --status "In Progress"
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			id, err := requireArgID(args, "request ID")
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
			current, err := p.Maintenance().Get(ctx, tok, id)
			if err != nil {
				return err
			}
			in := api.MaintenanceInput{
				Type:       current.Type,
				Details:    current.Details,
				Address:    current.Address,
				Status:     current.Status,
				Priority:   current.Priority,
				PropertyID: current.PropertyID,
			}
			if err := mf.apply(cmd, &in); err != nil {
				return err
			}

			req, err := p.Maintenance().Update(ctx, tok, id, in)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, req)
			}
			printAction(cmd, "Updated", "maintenance request", req.ID, req.Status)
			return nil
		}),
	}

	mf.register(cmd)
	cmd.Flags().StringVarP(&mf.status, "status", "s", "", "Status ("+strings.Join(api.MaintenanceStatuses, ", ")+")")
	return cmd
}

func newMaintenanceCancelCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a maintenance request",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			id, err := requireArgID(args, "request ID")
			if err != nil {
				return err
			}
			ok, err := confirmAction(cmd, fmt.Sprintf("Cancel maintenance request %s?", id), force)
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
			if err := p.Maintenance().Cancel(cmdContext(cmd), tok, id); err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"id": id, "cancelled": true})
			}
			printAction(cmd, "Cancelled", "maintenance request", id, "")
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")
	return cmd
}
