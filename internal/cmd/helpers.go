package cmd

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rentportal/rentportal-cli/internal/api"
	"github.com/rentportal/rentportal-cli/internal/cache"
	"github.com/rentportal/rentportal-cli/internal/dryrun"
	"github.com/rentportal/rentportal-cli/internal/iocontext"
	"github.com/rentportal/rentportal-cli/internal/outfmt"
	"github.com/rentportal/rentportal-cli/internal/validation"
)

// maxBackoffDelay caps the retry delay when --backoff is set.
const maxBackoffDelay = 30 * time.Second

// getPortal creates an API client from the resolved settings
func getPortal() (*portal, error) {
	return newClientFactory().open()
}

// withRetry runs a read call under the --retries policy. Only network and
// server failures are retried.
func withRetry[T any](cmd *cobra.Command, fn func(context.Context) (T, error)) (T, error) {
	policy := api.RetryPolicy{
		MaxAttempts: flags.Retries,
		Delay:       flags.RetryDelay,
		ShouldRetry: api.IsRetryable,
	}
	if flags.Backoff {
		policy = api.ExponentialRetryPolicy(flags.Retries, flags.RetryDelay, maxBackoffDelay)
		policy.ShouldRetry = api.IsRetryable
	}
	return api.RetryWithPolicy(cmdContext(cmd), policy, fn)
}

// cmdContext returns the command context
func cmdContext(cmd *cobra.Command) context.Context {
	return cmd.Context()
}

func formatter(cmd *cobra.Command) *outfmt.Formatter {
	ioStreams := iocontext.GetIO(cmd.Context())
	return outfmt.NewFormatter(cmd.Context(), ioStreams.Out, ioStreams.ErrOut)
}

// isJSON checks if the command context wants JSON output
func isJSON(cmd *cobra.Command) bool {
	return outfmt.IsJSON(cmd.Context())
}

// printJSON outputs data as JSON with the --jq filter applied
func printJSON(cmd *cobra.Command, v any) error {
	return formatter(cmd).Output(v)
}

func printAction(cmd *cobra.Command, action, resource, id, name string) {
	if flags.Quiet || isJSON(cmd) {
		return
	}
	message := fmt.Sprintf("%s %s", action, resource)
	if id != "" {
		message += " " + id
	}
	if name != "" {
		message += ": " + name
	}
	_, _ = fmt.Fprintln(iocontext.GetIO(cmd.Context()).Out, message)
}

func addDryRunFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("dry-run", false, "Validate and show the request without sending it")
}

// validator is implemented by the request bodies in the api package.
type validator interface {
	Validate() error
}

// previewMutation handles --dry-run. It validates body, prints the preview
// and returns true so the caller can stop before opening a session.
func previewMutation(cmd *cobra.Command, operation, resource, target string, body validator, warnings ...string) (bool, error) {
	if on, _ := cmd.Flags().GetBool("dry-run"); !on {
		return false, nil
	}
	if err := body.Validate(); err != nil {
		return true, err
	}
	preview, err := dryrun.New(operation, resource, target, body)
	if err != nil {
		return true, err
	}
	preview.Warnings = append(preview.Warnings, warnings...)
	if isJSON(cmd) {
		return true, printJSON(cmd, preview)
	}
	if flags.Quiet {
		return true, nil
	}
	return true, preview.Write(iocontext.GetIO(cmd.Context()).Out)
}

// requireArgID validates a positional record ID.
func requireArgID(args []string, field string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("%s is required", field)
	}
	return validation.ValidateID(args[0], field)
}

// aliasBridgeValue wraps a pflag.Value so that setting the alias also marks
// the canonical flag as Changed.
type aliasBridgeValue struct {
	pflag.Value
	canonical *pflag.Flag
}

func (v *aliasBridgeValue) Set(s string) error {
	if err := v.Value.Set(s); err != nil {
		return err
	}
	v.canonical.Changed = true
	return nil
}

// flagAlias registers a hidden alias sharing the named flag's value.
func flagAlias(fs *pflag.FlagSet, name, alias string) {
	f := fs.Lookup(name)
	if f == nil {
		panic(fmt.Sprintf("flagAlias: flag %q not found", name))
	}
	a := *f
	a.Name = alias
	a.Shorthand = ""
	a.Usage = ""
	a.Hidden = true
	a.Value = &aliasBridgeValue{Value: f.Value, canonical: f}
	a.Annotations = map[string][]string{"alias-of": {name}}
	fs.AddFlag(&a)
}

// flagOrAliasChanged returns true if the named flag or any of its
// hidden aliases was explicitly set by the user.
func flagOrAliasChanged(cmd *cobra.Command, name string) bool {
	if cmd.Flags().Changed(name) || cmd.InheritedFlags().Changed(name) {
		return true
	}
	aliasChanged := func(fs *pflag.FlagSet) bool {
		found := false
		fs.VisitAll(func(f *pflag.Flag) {
			if ann, ok := f.Annotations["alias-of"]; ok && len(ann) > 0 && ann[0] == name && f.Changed {
				found = true
			}
		})
		return found
	}
	return aliasChanged(cmd.Flags()) || aliasChanged(cmd.InheritedFlags())
}

func boolPtrIfChanged(cmd *cobra.Command, flag string, value bool) *bool {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	return &value
}

// confirmAction asks for "y" on stdin unless --yes or force is set. JSON
// output cannot prompt, so it requires --yes.
func confirmAction(cmd *cobra.Command, prompt string, force bool) (bool, error) {
	if flags.Yes || force {
		return true, nil
	}
	if isJSON(cmd) {
		return false, fmt.Errorf("--yes is required when using --output json")
	}
	ioStreams := iocontext.GetIO(cmd.Context())
	answer, err := ioStreams.Prompt(prompt + " [y/N]: ")
	if err != nil {
		return false, nil
	}
	if strings.EqualFold(strings.TrimSpace(answer), "y") || strings.EqualFold(strings.TrimSpace(answer), "yes") {
		return true, nil
	}
	_, _ = fmt.Fprintln(ioStreams.ErrOut, "Cancelled.")
	return false, nil
}

// readUpload loads a local file for a multipart upload.
func readUpload(path string, maxSize int64) (api.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return api.File{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if info.IsDir() {
		return api.File{}, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > maxSize {
		return api.File{}, fmt.Errorf("%s is %d bytes; the limit is %d MB", path, info.Size(), maxSize/(1024*1024))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return api.File{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}
	return api.File{Name: filepath.Base(path), ContentType: contentType, Content: content}, nil
}

func resolveCacheDir() string {
	if dir := os.Getenv("RP_CACHE_DIR"); dir != "" {
		return dir
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		return ""
	}
	return dir
}

// errAlreadyHandled marks an error that RunE has already printed.
var errAlreadyHandled = errors.New("error already handled")

type handledError struct {
	err      error
	exitCode int
}

func (e *handledError) Error() string {
	return e.err.Error()
}

func (e *handledError) Unwrap() []error {
	return []error{errAlreadyHandled, e.err}
}

func (e *handledError) ExitCode() int {
	return e.exitCode
}

// RunE wraps a command function with error rendering. Cancelled work is not
// reported.
func RunE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}
		ioStreams := iocontext.GetIO(cmd.Context())
		switch e, ok := api.AsError(err); {
		case ok && e.Category == api.CategoryCancelled:
		case ok && isJSON(cmd):
			_ = outfmt.Encode(ioStreams.ErrOut, map[string]any{"error": e}, false)
		default:
			_, _ = fmt.Fprint(ioStreams.ErrOut, HandleError(err))
		}
		return &handledError{err: err, exitCode: ExitCode(err)}
	}
}
