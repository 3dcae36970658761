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

func newDocumentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"document", "docs"},
		Short:   "Manage lease documents and receipts",
	}

	cmd.AddCommand(newDocumentsListCmd())
	cmd.AddCommand(newDocumentsUploadCmd())
	cmd.AddCommand(newDocumentsRenameCmd())
	cmd.AddCommand(newDocumentsDeleteCmd())

	return cmd
}

func documentRow(d api.Document) []string {
	return []string{
		d.ID,
		outfmt.Truncate(d.Name, 40),
		d.Category,
		formatSize(d.Size),
		outfmt.FormatDate(d.UploadedAt),
	}
}

func formatSize(n int64) string {
	switch {
	case n <= 0:
		return "-"
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}

func newDocumentsListCmd() *cobra.Command {
	var category string

	cmd := NewListCommand(ListConfig[api.Document]{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List documents",
		Fetch: func(ctx context.Context, p *portal, token string) ([]api.Document, error) {
			return p.Documents().List(ctx, token)
		},
		Filter: func(d api.Document) bool {
			return category == "" || strings.EqualFold(d.Category, category)
		},
		Headers:      []string{"ID", "NAME", "CATEGORY", "SIZE", "UPLOADED"},
		RowFunc:      documentRow,
		EmptyMessage: "No documents found",
	})
	cmd.Flags().StringVar(&category, "category", "", "Filter by category ("+strings.Join(api.DocumentCategories, ", ")+")")
	return cmd
}

func newDocumentsUploadCmd() *cobra.Command {
	var name, category, property string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document (up to 10 MB)",
		Example: strings.TrimSpace(`
  rp documents upload ./lease.pdf --category Lease --property prop_12
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			in := api.DocumentUpload{Name: name, PropertyID: property}
			if category != "" {
				var err error
				if in.Category, err = validation.ParseChoice(category, "category", api.DocumentCategories); err != nil {
					return err
				}
			}
			file, err := readUpload(args[0], api.MaxDocumentSize)
			if err != nil {
				return err
			}
			in.File = file

			p, err := getPortal()
			if err != nil {
				return err
			}
			defer p.Close()

			tok, err := p.storedToken(cmdContext(cmd))
			if err != nil {
				return err
			}
			doc, err := p.Documents().Upload(cmdContext(cmd), tok, in)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, doc)
			}
			printAction(cmd, "Uploaded", "document", doc.ID, doc.Name)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name (defaults to the file name)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category")
	cmd.Flags().StringVar(&property, "property", "", "Related property ID")
	return cmd
}

func newDocumentsRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a document",
		Args:  cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			id, err := requireArgID(args, "document ID")
			if err != nil {
				return err
			}
			name := strings.TrimSpace(args[1])
			if err := validation.ValidateName(name); err != nil {
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
			doc, err := p.Documents().Rename(cmdContext(cmd), tok, id, name)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, doc)
			}
			printAction(cmd, "Renamed", "document", doc.ID, doc.Name)
			return nil
		}),
	}
}

func newDocumentsDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete documents",
		Args:    cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDArgs(args, "document ID")
			if err != nil {
				return err
			}
			ok, err := confirmAction(cmd, fmt.Sprintf("Delete %d document%s?", len(ids), plural(len(ids), "", "s")), force)
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
			results := runBulkOperation(cmdContext(cmd), ids, DefaultConcurrency, bulkProgress(cmd), func(ctx context.Context, id string) (string, error) {
				return id, p.Documents().Delete(ctx, tok, id)
			})
			return reportBulk(cmd, "Deleted", "document", results)
		}),
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")
	return cmd
}
