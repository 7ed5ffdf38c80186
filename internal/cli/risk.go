package cli

import (
	"fmt"

	"github.com/jrsteele09/kaziflow-client/risk"
	"github.com/spf13/cobra"
)

func riskCmd(opts *options) *cobra.Command {
	var fields map[string]string

	cmd := &cobra.Command{
		Use:   "risk [subject-id]",
		Short: "Score a business for credit risk",
		Long: `Asks the scoring service for a trust assessment of the subject.

When the service cannot answer, a baseline assessment is shown instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			subject := risk.Subject{}
			for k, v := range fields {
				subject[k] = v
			}
			if len(args) == 1 {
				subject["id"] = args[0]
			}

			score := a.RiskScore(cmd.Context(), subject)
			p := newPainter(opts)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Score: %d (%s)\n", score.Score, p.riskLevel(score.Level))
			for _, f := range score.Factors {
				colour := Green
				if f.Impact < 0 {
					colour = Red
				}
				fmt.Fprintf(out, "  %s %s\n", p.paint(colour, fmt.Sprintf("%+.2f", f.Impact)), f.Label)
			}
			if score.Reasoning != "" {
				fmt.Fprintln(out, score.Reasoning)
			}
			return nil
		},
	}

	cmd.Flags().StringToStringVar(&fields, "field", nil, "Extra subject data, key=value")
	return cmd
}
