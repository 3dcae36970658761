package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rentportal/rentportal-cli/internal/cache"
	"github.com/rentportal/rentportal-cli/internal/iocontext"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local listing cache",
	}

	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCachePathCmd())
	return cmd
}

func cacheDir() (string, error) {
	dir := resolveCacheDir()
	if dir == "" {
		return "", fmt.Errorf("could not determine cache directory, set RP_CACHE_DIR")
	}
	return dir, nil
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached responses",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			dir, err := cacheDir()
			if err != nil {
				return err
			}
			removed, err := cache.Purge(dir)
			if err != nil {
				return fmt.Errorf("clearing cache: %w", err)
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"dir": dir, "removed": removed})
			}
			printAction(cmd, "Cleared", "cache", "", fmt.Sprintf("%s (%d removed)", dir, removed))
			return nil
		}),
	}
}

func newCachePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the cache directory and its files",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			dir, err := cacheDir()
			if err != nil {
				return err
			}
			files, err := cache.Files(dir)
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"dir": dir, "files": files})
			}
			out := iocontext.GetIO(cmd.Context()).Out
			_, _ = fmt.Fprintln(out, dir)
			for _, f := range files {
				_, _ = fmt.Fprintf(out, "  %s (%d bytes)\n", f.Name, f.Size)
			}
			return nil
		}),
	}
}
