package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one qualifying row of a bank statement export.
// Amount columns hold the text as exported; "" means the column is empty.
type Transaction struct {
	Date      time.Time
	ValueDate time.Time // zero if the bank format has no value date or it did not parse
	Summary   string
	Reference string
	Debit     string
	Credit    string
	Balance   string
}

// TransactionType selects which amount column an analysis looks at.
type TransactionType string

const (
	TypeDebit  TransactionType = "DEBIT"
	TypeCredit TransactionType = "CREDIT"
)

// ParseTransactionType accepts "debit"/"credit" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.ToUpper(strings.TrimSpace(s))); t {
	case TypeDebit, TypeCredit:
		return t, nil
	default:
		return "", fmt.Errorf("invalid transaction type %q: want DEBIT or CREDIT", s)
	}
}

// Amount returns the raw column for t.
func (tx Transaction) Amount(t TransactionType) string {
	if t == TypeDebit {
		return tx.Debit
	}
	return tx.Credit
}

// DividendRow is a credit the classifier accepted as a dividend.
type DividendRow struct {
	Date    time.Time
	Summary string
	Credit  decimal.Decimal
}

// DividendResult is the output of a dividend calculation.
type DividendResult struct {
	Total   decimal.Decimal
	Matched []DividendRow
}

// AnalysisRow is a transaction selected by an analysis filter.
// Amount keeps the statement's own formatting.
type AnalysisRow struct {
	Date    time.Time
	Summary string
	Amount  string
}

// AnalysisTotal aggregates the Amount column of analysis rows.
type AnalysisTotal struct {
	Count  int
	Amount decimal.Decimal
}
