package cli

import (
	"fmt"

	apperrors "github.com/jrsteele09/kaziflow-client/internal/errors"
	"github.com/jrsteele09/kaziflow-client/payments"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func payCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "pay <amount> <phone>",
		Short: "Simulate a mobile-money payment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[0])
			if err != nil {
				return errors.Wrapf(apperrors.ErrInvalidRequest, "[pay] amount %q is not a number", args[0])
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			p := newPainter(opts)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sending payment request of KES %s to %s...\n", amount.StringFixed(2), args[1])

			result, err := a.Pay(cmd.Context(), amount, args[1])
			if payments.IsDeclined(err) {
				fmt.Fprintln(out, p.paint(RedInverse, " "+string(payments.StatusFailed)+" "))
				return err
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %s at %s\n", p.paint(GreenInverse, " "+string(result.Status)+" "), result.TransactionID, result.Timestamp.Format("2006-01-02 15:04:05Z07:00"))
			return nil
		},
	}
}
