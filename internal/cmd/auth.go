package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rentportal/rentportal-cli/internal/api"
	"github.com/rentportal/rentportal-cli/internal/credstore"
	"github.com/rentportal/rentportal-cli/internal/debug"
	"github.com/rentportal/rentportal-cli/internal/iocontext"
	"github.com/rentportal/rentportal-cli/internal/token"
)

// newAuthCmd returns the auth command with subcommands
func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auth",
		Aliases: []string{"au"},
		Short:   "Manage the portal session",
		Long:    "Sign in to the portal and manage the session tokens kept in your credential store.",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthRefreshCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		email         string
		password      string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Example: strings.TrimSpace(`
  # Prompt for the password
  rp auth login --email tenant@example.com

  # Read the password from a pipe
  printf '%s' "$PORTAL_PASSWORD" | rp auth login --email tenant@example.com --password-stdin
`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			ioStreams := iocontext.GetIO(cmd.Context())
			if email == "" {
				line, err := ioStreams.Prompt("Email: ")
				if err != nil {
					return fmt.Errorf("--email is required")
				}
				email = strings.TrimSpace(line)
			}
			if passwordStdin {
				data, err := io.ReadAll(ioStreams.In)
				if err != nil {
					return fmt.Errorf("failed to read password from stdin: %w", err)
				}
				password = strings.TrimRight(string(data), "\r\n")
			} else if password == "" {
				line, err := ioStreams.Prompt("Password: ")
				if err != nil {
					return fmt.Errorf("--password or --password-stdin is required")
				}
				password = line
			}

			p, err := getPortal()
			if err != nil {
				return err
			}
			defer p.Close()

			result, err := p.Auth().Login(cmdContext(cmd), api.Credentials{Email: email, Password: password})
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				out := map[string]any{"loggedIn": true, "profile": p.settings.Profile}
				if result.User != nil {
					out["user"] = result.User
				}
				return printJSON(cmd, out)
			}
			name := email
			if result.User != nil && result.User.FullName() != "" {
				name = result.User.FullName()
			}
			_, _ = fmt.Fprintf(ioStreams.Out, "Logged in as %s (profile %s)\n", name, p.settings.Profile)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prefer --password-stdin)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
	return cmd
}

type authStatus struct {
	LoggedIn   bool       `json:"loggedIn"`
	Profile    string     `json:"profile"`
	BaseURL    string     `json:"baseUrl"`
	Role       api.Role   `json:"role"`
	Backend    string     `json:"credentialBackend"`
	Subject    string     `json:"subject,omitempty"`
	Email      string     `json:"email,omitempty"`
	TokenRole  string     `json:"tokenRole,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	Expired    bool       `json:"expired"`
	CanRefresh bool       `json:"canRefresh"`
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"st"},
		Short:   "Show the stored session",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			p, err := getPortal()
			if err != nil {
				return err
			}
			defer p.Close()

			ctx := cmdContext(cmd)
			status := authStatus{
				Profile: p.settings.Profile,
				BaseURL: p.settings.BaseURL,
				Role:    p.settings.Role,
				Backend: p.settings.CredentialBackend,
			}
			tok, err := p.storedToken(ctx)
			if err != nil {
				return err
			}
			refresh, _ := credstore.Lookup(ctx, p.Store, credstore.KeyRefreshToken)
			status.CanRefresh = refresh != ""

			if tok != "" {
				status.LoggedIn = true
				status.Expired = token.IsExpired(tok)
				if claims, err := token.Decode(tok); err == nil {
					status.Subject = claims.Subject()
					status.Email = claims.Email
					status.TokenRole = claims.Role
					if claims.HasExpiry() {
						exp := claims.Expiry()
						status.ExpiresAt = &exp
					}
				}
			}

			if isJSON(cmd) {
				return printJSON(cmd, status)
			}

			f := formatter(cmd)
			f.Field("Profile", status.Profile)
			f.Field("Portal", status.BaseURL)
			f.Field("Role", string(status.Role))
			f.Field("Credential store", status.Backend)
			if !status.LoggedIn {
				f.Field("Session", "not logged in")
				return nil
			}
			if status.Subject != "" {
				f.Field("User", status.Subject)
			}
			if status.ExpiresAt != nil {
				f.Field("Expires", status.ExpiresAt.Local().Format(time.RFC1123))
			}
			state := "active"
			if status.Expired {
				state = "expired"
				if status.CanRefresh {
					state += " (will refresh on next request)"
				}
			}
			f.Field("Session", state)
			if debug.IsEnabled(ctx) {
				f.Field("Token", debug.Mask(tok))
			}
			return nil
		}),
	}
}

func newAuthRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new access token",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			p, err := getPortal()
			if err != nil {
				return err
			}
			defer p.Close()

			tok, err := p.Session().Refresh(cmdContext(cmd))
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				out := map[string]any{"refreshed": true}
				if claims, err := token.Decode(tok); err == nil && claims.HasExpiry() {
					out["expiresAt"] = claims.Expiry()
				}
				return printJSON(cmd, out)
			}
			printAction(cmd, "Refreshed", "session", "", p.settings.Profile)
			return nil
		}),
	}
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			p, err := getPortal()
			if err != nil {
				return err
			}
			defer p.Close()

			if err := p.Auth().Logout(cmdContext(cmd)); err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"loggedOut": true, "profile": p.settings.Profile})
			}
			printAction(cmd, "Logged out of", "profile", p.settings.Profile, "")
			return nil
		}),
	}
}
