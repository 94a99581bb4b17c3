package importer

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/askthatman/dividend/internal/model"
)

// HDFCProfile handles HDFC Bank savings account CSV exports.
//
// Supported column order: date, narration, value date, debit, credit,
// cheque/reference number, closing balance.
type HDFCProfile struct {
	layout string
}

const (
	hdfcDateFormat = "02/01/06"
	hdfcNumFields  = 7
	hdfcColDate    = 0
	hdfcColSummary = 1
	hdfcColValDate = 2
	hdfcColDebit   = 3
	hdfcColCredit  = 4
	hdfcColRef     = 5
	hdfcColBalance = 6

	hdfcMinSummaryLen = 3
)

var (
	// Transfers that can look like dividend narrations.
	hdfcExcludedPrefixes = []string{"NEFT", "UPI"}
	hdfcDividendMarkers  = []string{"ACH C-", " DIV "}
)

// NewHDFCProfile returns the HDFC profile. An empty layout selects DD/MM/YY.
func NewHDFCProfile(layout string) *HDFCProfile {
	if layout == "" {
		layout = hdfcDateFormat
	}
	return &HDFCProfile{layout: layout}
}

// Bank returns BankHDFC.
func (p *HDFCProfile) Bank() Bank { return BankHDFC }

// DateLayout returns the time layout of the date columns.
func (p *HDFCProfile) DateLayout() string { return p.layout }

// Sanitise trims the line. HDFC narrations do not contain commas.
func (p *HDFCProfile) Sanitise(line string) string {
	return strings.TrimSpace(line)
}

// Parse keeps lines with seven fields whose first field looks like a date.
func (p *HDFCProfile) Parse(lines []string) []model.Transaction {
	var txns []model.Transaction
	for _, line := range lines {
		if txn, ok := p.parseRow(p.Sanitise(line)); ok {
			txns = append(txns, txn)
		}
	}
	return txns
}

func (p *HDFCProfile) parseRow(line string) (model.Transaction, bool) {
	rec := strings.Split(line, ",")
	if len(rec) != hdfcNumFields || strings.Count(rec[hdfcColDate], "/") != 2 {
		return model.Transaction{}, false
	}

	date, err := time.Parse(p.layout, strings.TrimSpace(rec[hdfcColDate]))
	if err != nil {
		return model.Transaction{}, false
	}

	return model.Transaction{
		Date:      date,
		ValueDate: parseOptionalDate(p.layout, rec[hdfcColValDate]),
		Summary:   rec[hdfcColSummary],
		Reference: strings.TrimSpace(rec[hdfcColRef]),
		Debit:     strings.TrimSpace(rec[hdfcColDebit]),
		Credit:    strings.TrimSpace(rec[hdfcColCredit]),
		Balance:   strings.TrimSpace(rec[hdfcColBalance]),
	}, true
}

// IsDividend matches HDFC's ACH and DIV dividend narrations.
// Exclusion prefixes take precedence over the markers.
func (p *HDFCProfile) IsDividend(summary string) bool {
	if len(summary) < hdfcMinSummaryLen {
		return false
	}
	for _, prefix := range hdfcExcludedPrefixes {
		if strings.HasPrefix(summary, prefix) {
			return false
		}
	}
	for _, marker := range hdfcDividendMarkers {
		if strings.Contains(summary, marker) {
			return true
		}
	}
	// " DIV" directly followed by a year or sequence number.
	for d := '0'; d <= '9'; d++ {
		if strings.Contains(summary, " DIV"+string(d)) {
			return true
		}
	}
	return false
}

// ParseAmount parses an HDFC amount column.
func (p *HDFCProfile) ParseAmount(raw string) (decimal.Decimal, error) {
	return parseAmount(raw)
}

func parseOptionalDate(layout, s string) time.Time {
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}
