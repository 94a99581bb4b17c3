package report

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askthatman/dividend/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestMarshalDividend(t *testing.T) {
	row := MarshalDividend(model.DividendRow{
		Date:    date(2023, 4, 1),
		Summary: "ITC LTD DIV ",
		Credit:  decimal.RequireFromString("2500.5"),
	})
	assert.Equal(t, []string{"2023-04-01", "ITC LTD DIV", "2500.50"}, row)
}

func TestMarshalAnalysis_KeepsStatementAmount(t *testing.T) {
	row := MarshalAnalysis(model.AnalysisRow{Date: date(2023, 6, 15), Summary: "X", Amount: `" 2000.00"`})
	assert.Equal(t, []string{"2023-06-15", "X", "2000.00"}, row)

	row = MarshalAnalysis(model.AnalysisRow{Date: date(2023, 6, 15), Summary: "X", Amount: "1000"})
	assert.Equal(t, "1000", row[colAmount])
}

func TestWriteDividends(t *testing.T) {
	res := model.DividendResult{
		Total: decimal.RequireFromString("200"),
		Matched: []model.DividendRow{
			{Date: date(2023, 4, 1), Summary: "ACH C- INFY, FINAL", Credit: decimal.RequireFromString("150.50")},
			{Date: date(2023, 4, 3), Summary: "TCS DIV2023", Credit: decimal.RequireFromString("49.50")},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteDividends(&buf, res))

	want := "date,summary,credit_amount\n" +
		"2023-04-01,\"ACH C- INFY, FINAL\",150.50\n" +
		"2023-04-03,TCS DIV2023,49.50\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteAnalysis_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAnalysis(&buf, nil))
	assert.Equal(t, "date,summary,amount\n", buf.String())
}

func TestWriteAnalysis_WriterError(t *testing.T) {
	err := WriteAnalysis(failingWriter{}, []model.AnalysisRow{{Summary: "x"}})
	assert.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }
