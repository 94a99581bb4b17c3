package commands

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/askthatman/dividend/internal/analysis"
	"github.com/askthatman/dividend/internal/model"
	"github.com/askthatman/dividend/internal/report"
)

type analyseFlags struct {
	bank     string
	typ      string
	min      string
	max      string
	from     string
	to       string
	contains string
	out      string
}

func newAnalyseCommand(a *app) *cobra.Command {
	var fl analyseFlags

	cmd := &cobra.Command{
		Use:     "analyse <statement>",
		Aliases: []string{"analyze"},
		Short:   "List transactions by type, amount range, date range and narration",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.ingestFile(a.bank(cmd, fl.bank), args[0])
			if err != nil {
				return err
			}

			f, err := fl.filter()
			if err != nil {
				return err
			}
			// Unset dates default to the statement's own range.
			if first, last, ok := s.Statement().DateRange(); ok {
				if fl.from == "" {
					f.From = first
				}
				if fl.to == "" {
					f.To = last
				}
			}

			rows, err := s.Analyse(f)
			if err != nil {
				return userError{err}
			}
			total, err := s.Total(rows)
			if err != nil {
				return userError{err}
			}

			w, closeOut, err := output(fl.out, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := report.WriteAnalysis(w, rows); err != nil {
				_ = closeOut()
				return fmt.Errorf("writing analysis: %w", err)
			}
			if err := closeOut(); err != nil {
				return fmt.Errorf("closing %s: %w", fl.out, err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "%d transactions, total amount %s\n",
				total.Count, total.Amount.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&fl.bank, "bank", "hdfc", "statement format (hdfc, sbi)")
	cmd.Flags().StringVar(&fl.typ, "type", "credit", "transaction type (debit, credit)")
	cmd.Flags().StringVar(&fl.min, "min", "0", "minimum amount, inclusive")
	cmd.Flags().StringVar(&fl.max, "max", "", "maximum amount, inclusive (required)")
	_ = cmd.MarkFlagRequired("max")
	cmd.Flags().StringVar(&fl.from, "from", "", "first date YYYY-MM-DD (default: statement start)")
	cmd.Flags().StringVar(&fl.to, "to", "", "last date YYYY-MM-DD (default: statement end)")
	cmd.Flags().StringVar(&fl.contains, "contains", "", "case-insensitive narration filter")
	cmd.Flags().StringVarP(&fl.out, "out", "o", "", "write the result CSV to this file")

	return cmd
}

func (fl analyseFlags) filter() (analysis.Filter, error) {
	typ, err := model.ParseTransactionType(fl.typ)
	if err != nil {
		return analysis.Filter{}, err
	}
	minAmount, err := decimal.NewFromString(fl.min)
	if err != nil {
		return analysis.Filter{}, fmt.Errorf("parsing --min %q: %w", fl.min, err)
	}
	maxAmount, err := decimal.NewFromString(fl.max)
	if err != nil {
		return analysis.Filter{}, fmt.Errorf("parsing --max %q: %w", fl.max, err)
	}

	f := analysis.Filter{
		Type:      typ,
		MinAmount: minAmount,
		MaxAmount: maxAmount,
		Contains:  fl.contains,
	}
	if fl.from != "" {
		if f.From, err = time.Parse(time.DateOnly, fl.from); err != nil {
			return analysis.Filter{}, fmt.Errorf("parsing --from %q: %w", fl.from, err)
		}
	}
	if fl.to != "" {
		if f.To, err = time.Parse(time.DateOnly, fl.to); err != nil {
			return analysis.Filter{}, fmt.Errorf("parsing --to %q: %w", fl.to, err)
		}
	}
	return f, nil
}
