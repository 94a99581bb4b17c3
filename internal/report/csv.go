// Package report writes calculation and analysis results as CSV tables.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/askthatman/dividend/internal/model"
)

const (
	// DividendHeader is the header row of a dividend ledger.
	DividendHeader = "date,summary,credit_amount"
	// AnalysisHeader is the header row of an analysis result.
	AnalysisHeader = "date,summary,amount"

	numFields  = 3
	dateFormat = "2006-01-02"
	colDate    = 0
	colSummary = 1
	colAmount  = 2
)

// MarshalDividend converts a matched dividend to a CSV row.
func MarshalDividend(row model.DividendRow) []string {
	rec := make([]string, numFields)
	rec[colDate] = row.Date.Format(dateFormat)
	rec[colSummary] = strings.TrimSpace(row.Summary)
	rec[colAmount] = row.Credit.StringFixed(2)
	return rec
}

// MarshalAnalysis converts an analysis row to a CSV row. The amount is
// written as it appeared in the statement, minus surrounding quotes.
func MarshalAnalysis(row model.AnalysisRow) []string {
	rec := make([]string, numFields)
	rec[colDate] = row.Date.Format(dateFormat)
	rec[colSummary] = strings.TrimSpace(row.Summary)
	rec[colAmount] = strings.TrimSpace(strings.Trim(row.Amount, `"`))
	return rec
}

// WriteDividends writes the matched rows of res, including header.
func WriteDividends(w io.Writer, res model.DividendResult) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(DividendHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range res.Matched {
		if err := cw.Write(MarshalDividend(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAnalysis writes analysis rows, including header.
func WriteAnalysis(w io.Writer, rows []model.AnalysisRow) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(AnalysisHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(MarshalAnalysis(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
