package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// ListConfig defines how a list command behaves
type ListConfig[T any] struct {
	Use     string
	Aliases []string
	Short   string
	Long    string
	Example string
	// Public lists are fetched anonymously when no session is stored.
	Public bool
	Fetch  func(ctx context.Context, p *portal, token string) ([]T, error)
	// Filter narrows the fetched items. Nil keeps everything.
	Filter       func(T) bool
	Headers      []string
	RowFunc      func(T) []string
	EmptyMessage string
}

// NewListCommand creates a cobra command from ListConfig. The portal
// endpoints return whole collections, so --limit is applied locally.
func NewListCommand[T any](cfg ListConfig[T]) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     cfg.Use,
		Aliases: cfg.Aliases,
		Short:   cfg.Short,
		Long:    cfg.Long,
		Example: cfg.Example,
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must be >= 0")
			}

			p, err := getPortal()
			if err != nil {
				return err
			}
			defer p.Close()

			var tok string
			if cfg.Public {
				tok = p.optionalToken(cmdContext(cmd))
			} else if tok, err = p.storedToken(cmdContext(cmd)); err != nil {
				return err
			}

			items, err := withRetry(cmd, func(ctx context.Context) ([]T, error) {
				return cfg.Fetch(ctx, p, tok)
			})
			if err != nil {
				return err
			}
			items = selectItems(items, cfg.Filter, limit)

			if isJSON(cmd) {
				return printJSON(cmd, items)
			}

			f := formatter(cmd)
			if len(items) == 0 {
				if cfg.EmptyMessage != "" {
					f.Empty(cfg.EmptyMessage)
				}
				return nil
			}
			f.StartTable(cfg.Headers)
			for _, item := range items {
				f.Row(cfg.RowFunc(item)...)
			}
			return f.EndTable()
		}),
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Max results (0 for all)")
	flagAlias(cmd.Flags(), "limit", "lim")
	return cmd
}

// selectItems applies keep and then the limit. The result is never nil.
func selectItems[T any](items []T, keep func(T) bool, limit int) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep != nil && !keep(item) {
			continue
		}
		out = append(out, item)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
