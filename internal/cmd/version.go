package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rentportal/rentportal-cli/internal/iocontext"
	"github.com/rentportal/rentportal-cli/internal/update"
)

// version is set at build time via ldflags
var version = "dev"

// newUpdateChecker is replaced in tests.
var newUpdateChecker = update.NewChecker

func newVersionCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print version information",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			ioStreams := iocontext.GetIO(cmd.Context())

			var result *update.Result
			if check && !update.Disabled(version) {
				res, err := newUpdateChecker().Check(cmd.Context(), version)
				if err != nil {
					slog.Debug("update check failed", "error", err)
				}
				result = res
			}

			if isJSON(cmd) {
				payload := map[string]any{"version": version}
				if result != nil {
					payload["update"] = result
				}
				return printJSON(cmd, payload)
			}

			_, _ = fmt.Fprintf(ioStreams.Out, "rentportal-cli version %s\n", version)
			if result != nil && result.UpdateAvailable {
				_, _ = fmt.Fprintf(ioStreams.ErrOut, "\nUpdate available: %s -> %s\n", result.CurrentVersion, result.LatestVersion)
				if result.UpdateURL != "" {
					_, _ = fmt.Fprintf(ioStreams.ErrOut, "Download: %s\n", result.UpdateURL)
				}
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&check, "check", true, "Check for a newer release")
	return cmd
}
