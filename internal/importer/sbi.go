package importer

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/askthatman/dividend/internal/model"
)

// SBIProfile handles State Bank of India account statement exports.
//
// Columns: txn date, value date, description, ref/cheque no, debit,
// credit, balance and a trailing empty field.
type SBIProfile struct {
	layout string
}

const (
	sbiDateFormat   = "2 Jan 2006"
	sbiNumFields    = 8
	sbiHeaderPrefix = "Txn"
	sbiColDate      = 0
	sbiColValDate   = 1
	sbiColSummary   = 2
	sbiColRef       = 3
	sbiColDebit     = 4
	sbiColCredit    = 5
	sbiColBalance   = 6

	// Digit-flanked commas at or before this byte offset are field
	// separators in the SBI layout; later ones are thousands separators.
	sbiStrayCommaMinOffset = 40

	sbiDividendMarker = "-ACHCr"
)

var (
	// The comma after these phrases is a real separator even when digits
	// surround it.
	sbiProtectedPhrases = []string{"TO TRANSFER", "TRANSFER TO"}
	sbiPlaceholders     = []byte{'$', '#', '@'}
)

// NewSBIProfile returns the SBI profile. An empty layout selects "2 Jan 2006".
func NewSBIProfile(layout string) *SBIProfile {
	if layout == "" {
		layout = sbiDateFormat
	}
	return &SBIProfile{layout: layout}
}

// Bank returns BankSBI.
func (p *SBIProfile) Bank() Bank { return BankSBI }

// DateLayout returns the time layout of the date columns.
func (p *SBIProfile) DateLayout() string { return p.layout }

// Sanitise strips thousands-separator commas embedded in amounts.
//
// If every placeholder character already occurs in the line no comma is
// stripped.
func (p *SBIProfile) Sanitise(line string) string {
	line = strings.TrimSpace(line)

	ph, ok := pickPlaceholder(line)
	if !ok {
		return line
	}
	protected := protectedCommas(line)

	b := []byte(line)
	for i := sbiStrayCommaMinOffset + 1; i < len(b)-1; i++ {
		if b[i] != ',' || protected[i] {
			continue
		}
		if isDigit(line[i-1]) && isDigit(line[i+1]) {
			b[i] = ph
		}
	}
	return strings.ReplaceAll(string(b), string(ph), "")
}

func pickPlaceholder(line string) (byte, bool) {
	for _, c := range sbiPlaceholders {
		if strings.IndexByte(line, c) < 0 {
			return c, true
		}
	}
	return 0, false
}

// protectedCommas returns the offsets of the first comma after each
// occurrence of a protected phrase.
func protectedCommas(line string) map[int]bool {
	protected := make(map[int]bool)
	for _, phrase := range sbiProtectedPhrases {
		for start := 0; start < len(line); {
			idx := strings.Index(line[start:], phrase)
			if idx < 0 {
				break
			}
			at := start + idx
			if c := strings.IndexByte(line[at:], ','); c >= 0 {
				protected[at+c] = true
			}
			start = at + len(phrase)
		}
	}
	return protected
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// Parse sanitises each line and keeps eight-field rows that carry an
// amount and are not the "Txn Date" header.
func (p *SBIProfile) Parse(lines []string) []model.Transaction {
	var txns []model.Transaction
	for _, line := range lines {
		if txn, ok := p.parseRow(p.Sanitise(line)); ok {
			txns = append(txns, txn)
		}
	}
	return txns
}

func (p *SBIProfile) parseRow(line string) (model.Transaction, bool) {
	rec := strings.Split(line, ",")
	if len(rec) != sbiNumFields || strings.HasPrefix(line, sbiHeaderPrefix) {
		return model.Transaction{}, false
	}
	if cleanSBIAmount(rec[sbiColDebit]) == "" && cleanSBIAmount(rec[sbiColCredit]) == "" {
		return model.Transaction{}, false
	}

	date, err := time.Parse(p.layout, strings.TrimSpace(rec[sbiColDate]))
	if err != nil {
		return model.Transaction{}, false
	}

	return model.Transaction{
		Date:      date,
		ValueDate: parseOptionalDate(p.layout, rec[sbiColValDate]),
		Summary:   rec[sbiColSummary],
		Reference: strings.TrimSpace(rec[sbiColRef]),
		Debit:     strings.TrimSpace(rec[sbiColDebit]),
		Credit:    strings.TrimSpace(rec[sbiColCredit]),
		Balance:   strings.TrimSpace(rec[sbiColBalance]),
	}, true
}

// IsDividend matches SBI's "-ACHCr" dividend narrations.
func (p *SBIProfile) IsDividend(summary string) bool {
	return strings.Contains(summary, sbiDividendMarker)
}

// ParseAmount strips the stray quotes SBI leaves in amount columns.
func (p *SBIProfile) ParseAmount(raw string) (decimal.Decimal, error) {
	return parseAmount(cleanSBIAmount(raw))
}

func cleanSBIAmount(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}
