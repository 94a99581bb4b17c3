// Package analysis selects statement transactions by type, amount range,
// date range and narration text.
package analysis

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/askthatman/dividend/internal/model"
)

// ErrInvalidFilter is returned by Filter.Validate.
var ErrInvalidFilter = errors.New("invalid analysis filter")

// AmountParser converts a bank's amount column to a decimal.
type AmountParser interface {
	ParseAmount(raw string) (decimal.Decimal, error)
}

// Filter is a compound predicate over transactions. All bounds are
// inclusive; an empty Contains matches every narration.
type Filter struct {
	Type      model.TransactionType
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
	From      time.Time
	To        time.Time
	Contains  string
}

// Validate rejects filters a caller must not submit.
func (f Filter) Validate() error {
	switch {
	case f.Type != model.TypeDebit && f.Type != model.TypeCredit:
		return fmt.Errorf("%w: transaction type %q", ErrInvalidFilter, f.Type)
	case f.MinAmount.IsNegative():
		return fmt.Errorf("%w: min amount %s is negative", ErrInvalidFilter, f.MinAmount)
	case !f.MaxAmount.GreaterThan(f.MinAmount):
		return fmt.Errorf("%w: max amount %s must exceed min amount %s", ErrInvalidFilter, f.MaxAmount, f.MinAmount)
	case calendarDate(f.From).After(calendarDate(f.To)):
		return fmt.Errorf("%w: from date %s is after to date %s",
			ErrInvalidFilter, f.From.Format(time.DateOnly), f.To.Format(time.DateOnly))
	}
	return nil
}

// Analyse returns the transactions matching f, in statement order.
// A missing amount counts as zero.
func Analyse(p AmountParser, txns []model.Transaction, f Filter) ([]model.AnalysisRow, error) {
	from, to := calendarDate(f.From), calendarDate(f.To)
	needle := strings.ToLower(f.Contains)

	var rows []model.AnalysisRow
	for i, txn := range txns {
		raw := txn.Amount(f.Type)
		amount, err := p.ParseAmount(raw)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i+1, err)
		}

		d := calendarDate(txn.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		if amount.LessThan(f.MinAmount) || amount.GreaterThan(f.MaxAmount) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(txn.Summary), needle) {
			continue
		}

		rows = append(rows, model.AnalysisRow{
			Date:    txn.Date,
			Summary: txn.Summary,
			Amount:  raw,
		})
	}
	return rows, nil
}

// Total sums the Amount column of rows.
func Total(p AmountParser, rows []model.AnalysisRow) (decimal.Decimal, error) {
	total := decimal.Zero
	for i, row := range rows {
		amount, err := p.ParseAmount(row.Amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("row %d: %w", i+1, err)
		}
		total = total.Add(amount)
	}
	return total, nil
}

func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
