package dividend

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askthatman/dividend/internal/importer"
	"github.com/askthatman/dividend/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func loadFixture(t *testing.T, p importer.Profile, name string) []model.Transaction {
	t.Helper()
	data, err := os.ReadFile("../../testdata/" + name)
	require.NoError(t, err)
	lines, err := importer.ReadLines(strings.NewReader(string(data)))
	require.NoError(t, err)
	return p.Parse(lines)
}

func TestCalculate_SumsMatchedRows(t *testing.T) {
	txns := []model.Transaction{
		{Date: date(2023, 4, 1), Summary: "XYZ ACH C- DIVIDEND 2023", Credit: "150.50"},
		{Date: date(2023, 4, 2), Summary: "SALARY CREDIT", Credit: "1000"},
		{Date: date(2023, 4, 3), Summary: "INFY DIV2023 PAYOUT", Credit: "49.50"},
	}

	res, err := Calculate(importer.NewHDFCProfile(""), txns)
	require.NoError(t, err)
	assert.Equal(t, "200.00", res.Total.StringFixed(2))
	require.Len(t, res.Matched, 2)
	assert.Equal(t, "XYZ ACH C- DIVIDEND 2023", res.Matched[0].Summary)
	assert.Equal(t, date(2023, 4, 1), res.Matched[0].Date)
	assert.True(t, res.Matched[0].Credit.Equal(decimal.RequireFromString("150.50")))
	assert.Equal(t, "INFY DIV2023 PAYOUT", res.Matched[1].Summary)
}

func TestCalculate_SkipsNonPositiveCredits(t *testing.T) {
	txns := []model.Transaction{
		{Summary: "ACH C- DEBIT SIDE", Debit: "100.00"},
		{Summary: "ACH C- ZERO", Credit: "0.00"},
		{Summary: "ACH C- REVERSAL", Credit: "-5.00"},
	}
	res, err := Calculate(importer.NewHDFCProfile(""), txns)
	require.NoError(t, err)
	assert.True(t, res.Total.IsZero())
	assert.Empty(t, res.Matched)
}

func TestCalculate_Empty(t *testing.T) {
	res, err := Calculate(importer.NewSBIProfile(""), nil)
	require.NoError(t, err)
	assert.True(t, res.Total.IsZero())
	assert.Nil(t, res.Matched)
}

func TestCalculate_BadCredit(t *testing.T) {
	txns := []model.Transaction{
		{Summary: "ACH C- X", Credit: "10.00"},
		{Summary: "ACH C- Y", Credit: "ten"},
	}
	_, err := Calculate(importer.NewHDFCProfile(""), txns)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transaction 2")
	assert.Contains(t, err.Error(), "parsing amount")
}

func TestCalculate_HDFCStatement(t *testing.T) {
	p := importer.NewHDFCProfile("")
	txns := loadFixture(t, p, "hdfc_statement.csv")

	res, err := Calculate(p, txns)
	require.NoError(t, err)
	// 150.50 + 49.50 + 2500.00; the NEFT row is excluded.
	assert.Equal(t, "2700.00", res.Total.StringFixed(2))
	require.Len(t, res.Matched, 3)
	assert.Equal(t, "ITC LTD DIV ", res.Matched[2].Summary)
}

func TestCalculate_SBIStatement(t *testing.T) {
	p := importer.NewSBIProfile("")
	txns := loadFixture(t, p, "sbi_statement.csv")

	res, err := Calculate(p, txns)
	require.NoError(t, err)
	assert.Equal(t, "3500.50", res.Total.StringFixed(2))
	require.Len(t, res.Matched, 2)
	assert.Equal(t, "2000.00", res.Matched[1].Credit.StringFixed(2))
}

func TestCalculate_Idempotent(t *testing.T) {
	p := importer.NewHDFCProfile("")
	txns := loadFixture(t, p, "hdfc_statement.csv")
	before := append([]model.Transaction(nil), txns...)

	first, err := Calculate(p, txns)
	require.NoError(t, err)
	second, err := Calculate(p, txns)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, txns)
}
