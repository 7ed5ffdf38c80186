package cli

import (
	"fmt"

	"github.com/jrsteele09/kaziflow-client/navigation"
	"github.com/jrsteele09/kaziflow-client/users"
	"github.com/spf13/cobra"
)

func viewsCmd(opts *options) *cobra.Command {
	var role, view string

	cmd := &cobra.Command{
		Use:   "views",
		Short: "Show the menu a role gets",
		Long: `Lists the views a role may open, in menu order.

Without --role the stored session's role is used. With --view the view that
would actually open is marked; a view the role may not open falls back to the
role's default.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := users.Role(role)
			if role == "" {
				a, err := openApp(cmd)
				if err != nil {
					return err
				}
				r = a.Store.Current().Role
				a.Close()
			}

			nav := navigation.NewNavigator(r)
			if view != "" {
				nav.Navigate(navigation.ParseView(view))
			}

			p := newPainter(opts)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Role: %s\n", p.role(nav.Role()))
			for _, v := range nav.Menu() {
				marker := " "
				if v == nav.Active() {
					marker = p.paint(Cyan, ">")
				}
				fmt.Fprintf(out, "%s %-10s %s\n", marker, v, v.Label())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Role to show, defaults to the session's")
	cmd.Flags().StringVar(&view, "view", "", "View to open")
	return cmd
}
