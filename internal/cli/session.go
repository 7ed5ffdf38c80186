package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jrsteele09/kaziflow-client/api"
	apperrors "github.com/jrsteele09/kaziflow-client/internal/errors"
	"github.com/jrsteele09/kaziflow-client/navigation"
	"github.com/jrsteele09/kaziflow-client/users"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// prompter reads answers from the command's stdin. One prompter per command
// so buffered input is not lost between questions.
type prompter struct {
	cmd *cobra.Command
	in  *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{cmd: cmd, in: bufio.NewReader(cmd.InOrStdin())}
}

// secret returns value, or the next line of stdin when value is empty.
func (p *prompter) secret(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprint(p.cmd.ErrOrStderr(), prompt+": ")
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", errors.Wrap(err, "[prompter] failed to read input")
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.Wrapf(apperrors.ErrInvalidRequest, "[prompter] %s is required", strings.ToLower(prompt))
	}
	return line, nil
}

func registerCmd(opts *options) *cobra.Command {
	var req api.RegisterRequest
	var role string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a KaziFlow account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if req.Password, err = newPrompter(cmd).secret(req.Password, "Password"); err != nil {
				return err
			}
			req.Role = users.Role(role)
			profile, err := a.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s as %s\n", profile.Email, newPainter(opts).role(profile.Role))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&req.FullName, "name", "", "Full name")
	cmd.Flags().StringVar(&req.CompanyName, "company", "", "Company name")
	cmd.Flags().StringVar(&role, "role", users.RoleVendor.String(), "vendor, retailer, bank or admin")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password, read from stdin when omitted")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func loginCmd(opts *options) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if password, err = newPrompter(cmd).secret(password, "Password"); err != nil {
				return err
			}
			session, err := a.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", newPainter(opts).role(session.Role))
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password, read from stdin when omitted")
	return cmd
}

func logoutCmd(_ *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func whoamiCmd(opts *options) *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current role and what it may open",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if verify {
				err := a.Verify(cmd.Context())
				if err != nil && !apperrors.Is(err, apperrors.ErrNotAuthenticated) {
					return err
				}
			}

			out := cmd.OutOrStdout()
			p := newPainter(opts)
			session := a.Store.Current()
			fmt.Fprintf(out, "Role: %s\n", p.role(session.Role))
			fmt.Fprintf(out, "Views: %s\n", viewLabels(navigation.PermittedViews(session.Role)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "Check the stored credential with the server first")
	return cmd
}

func viewLabels(views []navigation.View) string {
	labels := make([]string, len(views))
	for i, v := range views {
		labels[i] = v.Label()
	}
	return strings.Join(labels, ", ")
}
