// Package dividend totals the dividend credits of a statement.
package dividend

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/askthatman/dividend/internal/model"
)

// Classifier is the part of a bank profile the calculator needs.
type Classifier interface {
	IsDividend(summary string) bool
	ParseAmount(raw string) (decimal.Decimal, error)
}

// Calculate sums the strictly positive credits that c classifies as
// dividends. Matched rows keep statement order.
func Calculate(c Classifier, txns []model.Transaction) (model.DividendResult, error) {
	res := model.DividendResult{Total: decimal.Zero}
	for i, txn := range txns {
		credit, err := c.ParseAmount(txn.Credit)
		if err != nil {
			return model.DividendResult{}, fmt.Errorf("transaction %d: %w", i+1, err)
		}
		if !credit.IsPositive() || !c.IsDividend(txn.Summary) {
			continue
		}
		res.Total = res.Total.Add(credit)
		res.Matched = append(res.Matched, model.DividendRow{
			Date:    txn.Date,
			Summary: txn.Summary,
			Credit:  credit,
		})
	}
	return res, nil
}
