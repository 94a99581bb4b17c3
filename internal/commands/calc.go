package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askthatman/dividend/internal/report"
)

func newCalcCommand(a *app) *cobra.Command {
	var bank string
	var out string

	cmd := &cobra.Command{
		Use:   "calc <statement>",
		Short: "Total the dividend credits in a statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.ingestFile(a.bank(cmd, bank), args[0])
			if err != nil {
				return err
			}

			res, err := s.Calculate()
			if err != nil {
				return userError{err}
			}

			w, closeOut, err := output(out, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := report.WriteDividends(w, res); err != nil {
				_ = closeOut()
				return fmt.Errorf("writing dividends: %w", err)
			}
			if err := closeOut(); err != nil {
				return fmt.Errorf("closing %s: %w", out, err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Your dividend for this statement is: %s INR (%d credits)\n",
				res.Total.StringFixed(2), len(res.Matched))
			return nil
		},
	}

	cmd.Flags().StringVar(&bank, "bank", "hdfc", "statement format (hdfc, sbi)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the dividend ledger CSV to this file")

	return cmd
}
