package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jrsteele09/kaziflow-client/api"
	apperrors "github.com/jrsteele09/kaziflow-client/internal/errors"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func invoicesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "List or raise invoices",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List invoices you can see",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			invoices, err := a.API.ListInvoices(cmd.Context())
			if err != nil {
				return err
			}
			printInvoices(cmd.OutOrStdout(), newPainter(opts), invoices)
			return nil
		},
	}

	var description, due string
	createCmd := &cobra.Command{
		Use:   "create <amount>",
		Short: "Raise an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[0])
			if err != nil {
				return errors.Wrapf(apperrors.ErrInvalidRequest, "[invoices create] amount %q is not a number", args[0])
			}
			dueDate, err := time.ParseInLocation(dateLayout, due, time.UTC)
			if err != nil {
				return errors.Wrapf(apperrors.ErrInvalidRequest, "[invoices create] due date %q is not YYYY-MM-DD", due)
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			invoice, err := a.API.CreateInvoice(cmd.Context(), api.NewInvoice{Amount: amount, Description: description, DueDate: dueDate})
			if err != nil {
				return err
			}
			printInvoices(cmd.OutOrStdout(), newPainter(opts), []api.Invoice{*invoice})
			return nil
		},
	}
	createCmd.Flags().StringVar(&description, "description", "", "What the invoice is for")
	createCmd.Flags().StringVar(&due, "due", time.Now().AddDate(0, 0, 30).Format(dateLayout), "Due date, YYYY-MM-DD")

	cmd.AddCommand(listCmd, createCmd)
	return cmd
}

func printInvoices(out io.Writer, p painter, invoices []api.Invoice) {
	if len(invoices) == 0 {
		fmt.Fprintln(out, "No invoices.")
		return
	}
	for _, inv := range invoices {
		verified := ""
		if inv.IsVerified {
			verified = p.paint(Green, " verified")
		}
		fmt.Fprintf(out, "%s  KES %s  due %s  %s%s\n",
			inv.ID,
			inv.Amount.StringFixed(2),
			inv.DueDate.Format(dateLayout),
			p.invoiceStatus(inv.Status),
			verified)
		if d := strings.TrimSpace(inv.Description); d != "" {
			fmt.Fprintf(out, "    %s\n", d)
		}
	}
}
