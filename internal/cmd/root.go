package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rentportal/rentportal-cli/internal/api"
	"github.com/rentportal/rentportal-cli/internal/config"
	"github.com/rentportal/rentportal-cli/internal/debug"
	"github.com/rentportal/rentportal-cli/internal/filter"
	"github.com/rentportal/rentportal-cli/internal/iocontext"
	"github.com/rentportal/rentportal-cli/internal/outfmt"
)

// rootFlags holds global CLI flags
type rootFlags struct {
	Output     string
	JSON       bool
	JQ         string
	Compact    bool
	Debug      bool
	LogJSON    bool
	Quiet      bool
	Yes        bool
	EnvFile    string
	BaseURL    string
	Role       string
	Profile    string
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
	Backoff    bool
}

// flags holds the global command flags. It is reset at the start of every
// Execute call; code that reads flags outside a command's RunE sees the
// previous invocation's values.
var flags = defaultFlags()

func defaultFlags() rootFlags {
	return rootFlags{
		Output:     defaultOutput(),
		Retries:    1,
		RetryDelay: api.DefaultRetryDelay,
	}
}

func defaultOutput() string {
	if value := strings.TrimSpace(os.Getenv("RP_OUTPUT")); value != "" {
		return value
	}
	return "text"
}

func parseBoolEnv(key string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && value
}

// Execute runs the root command
func Execute(ctx context.Context, args []string) error {
	return run(ctx, newRootCmd(), args)
}

// newRootCmd builds the command tree and resets the global flags.
func newRootCmd() *cobra.Command {
	flags = defaultFlags()

	root := &cobra.Command{
		Use:                "rp",
		Short:              "CLI for the rental management portal",
		Long:               "Manage rent payments, maintenance requests, messages, listings and your profile from the command line.",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var envFiles []string
			if flags.EnvFile != "" {
				if _, err := os.Stat(flags.EnvFile); err != nil {
					return fmt.Errorf("invalid --env-file: %w", err)
				}
				envFiles = append(envFiles, flags.EnvFile)
			}
			if err := config.LoadDotEnv(envFiles...); err != nil {
				return err
			}
			if !flagOrAliasChanged(cmd, "output") {
				flags.Output = defaultOutput()
			}
			flags.Output = strings.ToLower(strings.TrimSpace(flags.Output))

			if flags.JSON {
				if flagOrAliasChanged(cmd, "output") && flags.Output != "json" {
					return fmt.Errorf("--json conflicts with --output %s", flags.Output)
				}
				flags.Output = "json"
			}
			if flags.JQ != "" {
				if flags.Output != "json" && flags.Output != "jsonl" && flags.Output != "ndjson" {
					if flagOrAliasChanged(cmd, "output") {
						return fmt.Errorf("--jq must be used with --output json or jsonl (or --json)")
					}
					flags.Output = "json"
				}
				if _, err := filter.Compile(flags.JQ); err != nil {
					return err
				}
			}

			mode, err := outfmt.Parse(flags.Output)
			if err != nil {
				return err
			}
			ctx = outfmt.WithOptions(ctx, outfmt.Options{Mode: mode, Compact: flags.Compact, Query: flags.JQ})

			if flags.Retries < 1 {
				return fmt.Errorf("--retries must be at least 1")
			}
			if flags.RetryDelay < 0 {
				return fmt.Errorf("--retry-delay must be >= 0")
			}
			if flags.Timeout < 0 {
				return fmt.Errorf("--timeout must be >= 0")
			}

			base := iocontext.GetIO(ctx)
			ioStreams := &iocontext.IO{Out: base.Out, ErrOut: base.ErrOut, In: base.In}
			if flags.Quiet {
				ioStreams.ErrOut = io.Discard
				if mode == outfmt.Text {
					ioStreams.Out = io.Discard
				}
			}
			ctx = iocontext.WithIO(ctx, ioStreams)
			cmd.SetOut(ioStreams.Out)
			cmd.SetErr(ioStreams.ErrOut)

			debugEnabled := flags.Debug || parseBoolEnv("RP_DEBUG")
			debug.Configure(debug.Options{Debug: debugEnabled, JSON: flags.LogJSON, Writer: os.Stderr})
			ctx = debug.WithDebug(ctx, debugEnabled)

			cmd.SetContext(ctx)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.Output, "output", "o", flags.Output, "Output format: text|json|jsonl|ndjson (env RP_OUTPUT)")
	pf.BoolVarP(&flags.JSON, "json", "j", false, "Shorthand for --output json")
	pf.StringVarP(&flags.JQ, "jq", "q", "", "jq expression to filter JSON output")
	pf.BoolVar(&flags.Compact, "compact-json", false, "Compact JSON output (no indentation)")
	pf.BoolVar(&flags.Debug, "debug", false, "Enable debug logging (env RP_DEBUG)")
	pf.BoolVar(&flags.LogJSON, "log-json", false, "Write debug logs as JSON")
	pf.BoolVarP(&flags.Quiet, "quiet", "Q", false, "Suppress non-essential output")
	pf.BoolVarP(&flags.Yes, "yes", "y", false, "Skip confirmation prompts")
	pf.StringVar(&flags.EnvFile, "env-file", "", "Load settings from this .env file (default .env when present)")
	pf.StringVar(&flags.BaseURL, "base-url", "", "Portal API base URL (env "+config.EnvBaseURL+")")
	pf.StringVar(&flags.Role, "role", "", "Role for role-scoped endpoints: tenant|landlord (env "+config.EnvRole+")")
	pf.StringVar(&flags.Profile, "profile", "", "Credential profile name (env "+config.EnvProfile+")")
	pf.DurationVar(&flags.Timeout, "timeout", 0, "HTTP request timeout, e.g. 15s (env "+config.EnvTimeout+")")
	pf.IntVar(&flags.Retries, "retries", flags.Retries, "Total attempts for read requests that fail with network or server errors")
	pf.DurationVar(&flags.RetryDelay, "retry-delay", flags.RetryDelay, "Delay between retry attempts")
	pf.BoolVar(&flags.Backoff, "backoff", false, "Double the retry delay after each failed attempt")

	flagAlias(pf, "output", "out")
	flagAlias(pf, "jq", "query")
	flagAlias(pf, "compact-json", "cj")
	flagAlias(pf, "debug", "dbg")

	root.AddCommand(newAuthCmd())
	root.AddCommand(newDashboardCmd())
	root.AddCommand(newPaymentsCmd())
	root.AddCommand(newMessagesCmd())
	root.AddCommand(newMaintenanceCmd())
	root.AddCommand(newPropertiesCmd())
	root.AddCommand(newProfileCmd())
	root.AddCommand(newNotificationsCmd())
	root.AddCommand(newDocumentsCmd())
	root.AddCommand(newApplicationsCmd())
	root.AddCommand(newSupportCmd())
	root.AddCommand(newLeasesCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func run(ctx context.Context, root *cobra.Command, args []string) error {
	ioStreams := iocontext.GetIO(ctx)
	root.SetContext(ctx)
	root.SetArgs(args)
	root.SetOut(ioStreams.Out)
	root.SetErr(ioStreams.ErrOut)

	targetCmd, err := root.ExecuteC()
	if err != nil {
		if !errors.Is(err, errAlreadyHandled) {
			_, _ = fmt.Fprintln(ioStreams.ErrOut, enhanceUnknownError(err, root, targetCmd))
		}
		return err
	}
	return nil
}

// enhanceUnknownError adds "did you mean?" suggestions to unknown command/flag errors.
func enhanceUnknownError(err error, root *cobra.Command, targetCmd *cobra.Command) string {
	msg := err.Error()

	if strings.Contains(msg, "unknown command") {
		if unknown := extractQuoted(msg); unknown != "" {
			parent := root
			if targetCmd != nil {
				parent = targetCmd
			}
			var names []string
			for _, c := range parent.Commands() {
				if c.IsAvailableCommand() {
					names = append(names, c.Name())
					names = append(names, c.Aliases...)
				}
			}
			if suggestion := suggest(unknown, names); suggestion != "" {
				return fmt.Sprintf("%s\n\nDid you mean %q?", msg, suggestion)
			}
		}
		return msg
	}

	if strings.Contains(msg, "unknown flag") || strings.Contains(msg, "unknown shorthand flag") {
		unknown := extractFlag(msg)
		if unknown == "" {
			return msg
		}
		target := root
		if targetCmd != nil {
			target = targetCmd
		}
		seen := make(map[string]bool)
		var names []string
		add := func(fs *pflag.FlagSet) {
			fs.VisitAll(func(f *pflag.Flag) {
				if f.Hidden || seen[f.Name] {
					return
				}
				seen[f.Name] = true
				names = append(names, "--"+f.Name)
			})
		}
		add(target.Flags())
		add(target.InheritedFlags())

		helpCmd := strings.TrimSpace(target.CommandPath()) + " --help"
		if suggestion := suggest(unknown, names); suggestion != "" {
			return fmt.Sprintf("%s\n\nDid you mean %q?\nRun %q to see supported flags.", msg, suggestion, helpCmd)
		}
		return fmt.Sprintf("%s\n\nRun %q to see supported flags.", msg, helpCmd)
	}

	return msg
}

// extractQuoted extracts the first double-quoted substring from s.
func extractQuoted(s string) string {
	_, rest, ok := strings.Cut(s, `"`)
	if !ok {
		return ""
	}
	quoted, _, ok := strings.Cut(rest, `"`)
	if !ok {
		return ""
	}
	return quoted
}

// extractFlag extracts a flag name such as "--foo" or "-x" from a pflag error.
func extractFlag(s string) string {
	idx := strings.Index(s, "--")
	if idx < 0 {
		idx = strings.LastIndex(s, " -")
		if idx < 0 {
			return ""
		}
		idx++
	}
	field, _, _ := strings.Cut(s[idx:], " ")
	field = strings.TrimRight(field, ".,;:!?\"'")
	if len(field) < 2 {
		return ""
	}
	return field
}
