package cli

import (
	"fmt"
	"io"

	"github.com/jrsteele09/kaziflow-client/api"
	apperrors "github.com/jrsteele09/kaziflow-client/internal/errors"
	"github.com/jrsteele09/kaziflow-client/users"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func profileCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your account",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show your account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			profile, err := a.API.Me(cmd.Context())
			if err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), newPainter(opts), profile)
			return nil
		},
	}

	var fullName, companyName string
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Change your name or company",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var update api.ProfileUpdate
			if cmd.Flags().Changed("name") {
				update.FullName = &fullName
			}
			if cmd.Flags().Changed("company") {
				update.CompanyName = &companyName
			}
			if update.Empty() {
				return errors.Wrap(apperrors.ErrInvalidRequest, "[profile update] nothing to change, pass --name or --company")
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			profile, err := a.API.UpdateMe(cmd.Context(), update)
			if err != nil {
				return err
			}
			printProfile(cmd.OutOrStdout(), newPainter(opts), profile)
			return nil
		},
	}
	updateCmd.Flags().StringVar(&fullName, "name", "", "Full name")
	updateCmd.Flags().StringVar(&companyName, "company", "", "Company name")

	cmd.AddCommand(showCmd, updateCmd)
	return cmd
}

func printProfile(out io.Writer, p painter, profile *users.Profile) {
	fmt.Fprintf(out, "Email:   %s\n", profile.Email)
	fmt.Fprintf(out, "Name:    %s\n", profile.FullName)
	if profile.CompanyName != "" {
		fmt.Fprintf(out, "Company: %s\n", profile.CompanyName)
	}
	fmt.Fprintf(out, "Role:    %s\n", p.role(profile.Role))
}

func passwordCmd(_ *options) *cobra.Command {
	var current, next string

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			prompt := newPrompter(cmd)
			if current, err = prompt.secret(current, "Current password"); err != nil {
				return err
			}
			if next, err = prompt.secret(next, "New password"); err != nil {
				return err
			}
			if err := a.ChangePassword(cmd.Context(), current, next); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password updated")
			return nil
		},
	}

	cmd.Flags().StringVar(&current, "current", "", "Current password, read from stdin when omitted")
	cmd.Flags().StringVar(&next, "new", "", "New password, read from stdin when omitted")
	return cmd
}
