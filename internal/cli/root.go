// Package cli is the kaziflow command line. Every command runs against the
// same runtime the dashboard uses: the persisted session, the API client and
// the role rules.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/kaziflow-client/app"
	"github.com/jrsteele09/kaziflow-client/internal/config"
	"github.com/jrsteele09/kaziflow-client/internal/logging"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type options struct {
	configFile string
	envFile    string
	banner     bool
	noColor    bool
}

// NewRootCmd builds the command tree. Each call returns independent flag state.
func NewRootCmd(version string) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "kaziflow",
		Short:         "KaziFlow - supply-chain finance from the terminal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(opts.envFile); err != nil {
				return err
			}
			if err := config.LoadFile(opts.configFile); err != nil {
				return err
			}
			c := config.New()
			logging.Setup(c.GetLogLevel(), c.GetEnv(), cmd.ErrOrStderr())
			if opts.banner {
				displayAppname(cmd.OutOrStdout(), c.GetAppName())
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file, keys named like the environment variables")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().BoolVar(&opts.banner, "banner", false, "Print the application banner")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable coloured output")

	rootCmd.AddCommand(registerCmd(opts))
	rootCmd.AddCommand(loginCmd(opts))
	rootCmd.AddCommand(logoutCmd(opts))
	rootCmd.AddCommand(whoamiCmd(opts))
	rootCmd.AddCommand(profileCmd(opts))
	rootCmd.AddCommand(passwordCmd(opts))
	rootCmd.AddCommand(notificationsCmd(opts))
	rootCmd.AddCommand(invoicesCmd(opts))
	rootCmd.AddCommand(riskCmd(opts))
	rootCmd.AddCommand(payCmd(opts))
	rootCmd.AddCommand(viewsCmd(opts))

	return rootCmd
}

// Execute runs the command line with ctx as every command's context.
func Execute(ctx context.Context, version string, args []string) error {
	rootCmd := NewRootCmd(version)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func openApp(cmd *cobra.Command) (*app.App, error) {
	a, err := app.New(cmd.Context(), config.New())
	if err != nil {
		return nil, errors.Wrap(err, "[openApp] failed to start KaziFlow")
	}
	return a, nil
}

func displayAppname(out io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(out, myFigure.String())
}
