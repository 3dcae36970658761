package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rentportal/rentportal-cli/internal/api"
	"github.com/rentportal/rentportal-cli/internal/iocontext"
	"github.com/rentportal/rentportal-cli/internal/outfmt"
	"github.com/rentportal/rentportal-cli/internal/validation"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profile",
		Aliases: []string{"me"},
		Short:   "View and edit your profile",
	}

	cmd.AddCommand(newProfileShowCmd())
	cmd.AddCommand(newProfileUpdateCmd())
	cmd.AddCommand(newProfilePasswordCmd())
	cmd.AddCommand(newProfilePictureCmd())

	return cmd
}

func renderProfile(f *outfmt.Formatter, p *api.Profile) {
	f.Field("Name", p.FullName())
	f.Field("Email", p.Email)
	if p.Phone != "" {
		f.Field("Phone", p.Phone)
	}
	f.Field("Role", p.Role)
	if p.ProfilePicture != "" {
		f.Field("Picture", p.ProfilePicture)
	}
	if p.CreatedAt != "" {
		f.Field("Member since", outfmt.FormatDate(p.CreatedAt))
	}
	if p.Bio != "" {
		f.Section(p.Bio)
	}
}

func newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "show",
		Aliases: []string{"get"},
		Short:   "Show your profile",
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
			profile, err := withRetry(cmd, func(ctx context.Context) (*api.Profile, error) {
				return p.Profile().Get(ctx, tok)
			})
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, profile)
			}
			renderProfile(formatter(cmd), profile)
			return nil
		}),
	}
}

func newProfileUpdateCmd() *cobra.Command {
	var in api.ProfileUpdate

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields",
		Example: strings.TrimSpace(`
  rp profile update --phone "+1 512 555 0100" --bio "Quiet tenant, no pets"
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if err := validation.ValidateName(in.FirstName + " " + in.LastName); err != nil {
				return err
			}
			if err := validation.ValidateEmail(in.Email); err != nil {
				return err
			}
			if err := validation.ValidatePhone(in.Phone); err != nil {
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
			profile, err := p.Profile().Update(cmdContext(cmd), tok, in)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, profile)
			}
			printAction(cmd, "Updated", "profile", "", profile.FullName())
			return nil
		}),
	}

	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVarP(&in.Email, "email", "e", "", "Email address")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&in.Bio, "bio", "", "Short bio")
	flagAlias(cmd.Flags(), "first-name", "first")
	flagAlias(cmd.Flags(), "last-name", "last")
	return cmd
}

func newProfilePasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		Long:  "Change your password. The current and new passwords are read from stdin, one per line.",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			ioStreams := iocontext.GetIO(cmd.Context())
			current, err := ioStreams.Prompt("Current password: ")
			if err != nil {
				return fmt.Errorf("current password is required")
			}
			next, err := ioStreams.Prompt("New password: ")
			if err != nil {
				return fmt.Errorf("new password is required")
			}
			confirm, err := ioStreams.Prompt("Confirm new password: ")
			if err != nil || confirm != next {
				return fmt.Errorf("new passwords do not match")
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
			if err := p.Profile().ChangePassword(cmdContext(cmd), tok, api.PasswordChange{CurrentPassword: current, NewPassword: next}); err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"passwordChanged": true})
			}
			printAction(cmd, "Changed", "password", "", "")
			return nil
		}),
	}
}

func newProfilePictureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "picture <file>",
		Short: "Upload a profile picture (JPEG, PNG, GIF or WebP, up to 5 MB)",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			file, err := readUpload(args[0], api.MaxPictureSize)
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
			profile, err := p.Profile().UploadPicture(cmdContext(cmd), tok, file)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, profile)
			}
			printAction(cmd, "Uploaded", "profile picture", "", profile.ProfilePicture)
			return nil
		}),
	}
}
