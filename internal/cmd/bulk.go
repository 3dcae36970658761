package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/rentportal/rentportal-cli/internal/api"
	"github.com/rentportal/rentportal-cli/internal/iocontext"
	"github.com/rentportal/rentportal-cli/internal/validation"
)

// DefaultConcurrency bounds parallel requests in bulk commands.
const DefaultConcurrency = 5

// BulkResult is the outcome of one ID in a bulk command.
type BulkResult struct {
	ID      string
	Success bool
	Error   error
	Data    any
}

// runBulkOperation applies operation to every ID with bounded parallelism.
// Results keep the order of ids. Individual failures do not stop the batch.
func runBulkOperation[T any](
	ctx context.Context,
	ids []string,
	concurrency int64,
	progress io.Writer,
	operation func(ctx context.Context, id string) (T, error),
) []BulkResult {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if progress == nil {
		progress = io.Discard
	}

	sem := semaphore.NewWeighted(concurrency)
	results := make([]BulkResult, len(ids))
	var (
		mu   sync.Mutex
		done int
	)

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = BulkResult{ID: id, Error: err}
				return nil
			}
			defer sem.Release(1)

			data, err := operation(ctx, id)
			if err != nil {
				results[i] = BulkResult{ID: id, Error: err}
			} else {
				results[i] = BulkResult{ID: id, Success: true, Data: data}
			}

			mu.Lock()
			done++
			_, _ = fmt.Fprintf(progress, "\rProcessed %d/%d", done, len(ids))
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if len(ids) > 0 {
		_, _ = fmt.Fprintln(progress)
	}
	return results
}

// countResults returns success and failure counts from bulk results
func countResults(results []BulkResult) (success, failure int) {
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failure++
		}
	}
	return
}

// parseIDArgs validates every positional ID.
func parseIDArgs(args []string, field string) ([]string, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one %s is required", field)
	}
	ids := make([]string, 0, len(args))
	seen := make(map[string]bool, len(args))
	for _, arg := range args {
		id, err := validation.ValidateID(arg, field)
		if err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// reportBulk prints bulk results and returns an error when any ID failed.
func reportBulk(cmd *cobra.Command, action, resource string, results []BulkResult) error {
	success, failure := countResults(results)
	if isJSON(cmd) {
		type row struct {
			ID      string     `json:"id"`
			Success bool       `json:"success"`
			Error   *api.Error `json:"error,omitempty"`
		}
		rows := make([]row, len(results))
		for i, r := range results {
			rows[i] = row{ID: r.ID, Success: r.Success}
			if e, ok := api.AsError(r.Error); ok {
				rows[i].Error = e
			}
		}
		if err := printJSON(cmd, map[string]any{"succeeded": success, "failed": failure, "results": rows}); err != nil {
			return err
		}
	} else {
		out := iocontext.GetIO(cmd.Context()).Out
		for _, r := range results {
			if r.Success {
				_, _ = fmt.Fprintf(out, "%s %s %s\n", action, resource, r.ID)
				continue
			}
			_, _ = fmt.Fprintf(out, "Failed %s %s: %v\n", resource, r.ID, r.Error)
		}
	}
	if failure > 0 {
		return fmt.Errorf("%d of %d %s operations failed", failure, len(results), resource)
	}
	return nil
}

// bulkProgress returns stderr for progress output, or nil when output is
// quiet or machine-readable.
func bulkProgress(cmd *cobra.Command) io.Writer {
	if flags.Quiet || isJSON(cmd) {
		return nil
	}
	return iocontext.GetIO(cmd.Context()).ErrOut
}
