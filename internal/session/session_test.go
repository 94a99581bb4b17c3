package session

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askthatman/dividend/internal/analysis"
	"github.com/askthatman/dividend/internal/importer"
	"github.com/askthatman/dividend/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestSession(t *testing.T) (*Session, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	return New("test", importer.DefaultRegistry(nil), logger), &logs
}

func fixture(t *testing.T, name string) io.Reader {
	t.Helper()
	data, err := os.ReadFile("../../testdata/" + name)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func TestIngest_HDFC(t *testing.T) {
	s, _ := newTestSession(t)
	require.NoError(t, s.Ingest("HDFC", "hdfc_statement.csv", fixture(t, "hdfc_statement.csv")))

	st := s.Status()
	assert.True(t, st.Loaded)
	assert.False(t, st.Failed)
	assert.NoError(t, st.Error)
	assert.Equal(t, importer.BankHDFC, st.Bank)
	assert.Equal(t, 6, st.Records)
	assert.Equal(t, date(2023, 4, 1), st.From)
	assert.Equal(t, date(2023, 6, 30), st.To)
}

func TestIngest_UnsupportedBankDoesNotRead(t *testing.T) {
	s, _ := newTestSession(t)
	r := &countingReader{r: strings.NewReader("data")}

	err := s.Ingest("icici", "x.csv", r)
	assert.ErrorIs(t, err, importer.ErrUnsupportedBank)
	assert.Zero(t, r.reads)
	assert.True(t, s.Status().Failed)
}

func TestIngest_MalformedKeepsPreviousStatement(t *testing.T) {
	s, _ := newTestSession(t)
	require.NoError(t, s.Ingest("sbi", "sbi.csv", fixture(t, "sbi_statement.csv")))
	prev := s.Statement()

	err := s.Ingest("sbi", "broken.csv", strings.NewReader("\xff\xfe\xfd"))
	require.ErrorIs(t, err, ErrMalformedFile)
	assert.ErrorIs(t, err, importer.ErrNotUTF8)

	st := s.Status()
	assert.True(t, st.Failed)
	assert.ErrorIs(t, st.Error, ErrMalformedFile)
	assert.Same(t, prev, s.Statement())
	assert.Equal(t, "sbi.csv", st.Source)
}

func TestIngest_ReadError(t *testing.T) {
	s, _ := newTestSession(t)
	err := s.Ingest("hdfc", "x.csv", errReader{})
	assert.ErrorIs(t, err, ErrMalformedFile)
}

func TestIngest_ReplacesStatement(t *testing.T) {
	s, _ := newTestSession(t)
	require.NoError(t, s.Ingest("hdfc", "hdfc.csv", fixture(t, "hdfc_statement.csv")))
	require.NoError(t, s.Ingest("sbi", "sbi.csv", fixture(t, "sbi_statement.csv")))

	st := s.Status()
	assert.Equal(t, importer.BankSBI, st.Bank)
	assert.Equal(t, 4, st.Records)
}

func TestCalculate(t *testing.T) {
	s, _ := newTestSession(t)
	_, err := s.Calculate()
	assert.ErrorIs(t, err, ErrNoStatement)

	require.NoError(t, s.Ingest("sbi", "sbi.csv", fixture(t, "sbi_statement.csv")))
	res, err := s.Calculate()
	require.NoError(t, err)
	assert.Equal(t, "3500.50", res.Total.StringFixed(2))

	again, err := s.Calculate()
	require.NoError(t, err)
	assert.Equal(t, res, again)
}

func TestCalculate_FailureHidesCause(t *testing.T) {
	s, logs := newTestSession(t)
	line := "01/04/23,ACH C- X,01/04/23,,12abc,1,10.00\n"
	require.NoError(t, s.Ingest("hdfc", "bad.csv", strings.NewReader(line)))

	_, err := s.Calculate()
	require.ErrorIs(t, err, ErrCalculation)
	assert.NotContains(t, err.Error(), "12abc")
	assert.Contains(t, logs.String(), "12abc")
}

func TestAnalyse(t *testing.T) {
	s, _ := newTestSession(t)
	require.NoError(t, s.Ingest("hdfc", "hdfc.csv", fixture(t, "hdfc_statement.csv")))

	f := analysis.Filter{
		Type:      model.TypeCredit,
		MinAmount: dec("1000"),
		MaxAmount: dec("5000"),
		From:      date(2023, 6, 1),
		To:        date(2023, 6, 30),
		Contains:  "DIV",
	}
	rows, err := s.Analyse(f)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	total, err := s.Total(rows)
	require.NoError(t, err)
	assert.Equal(t, 2, total.Count)
	assert.Equal(t, "5500.00", total.Amount.StringFixed(2))
}

func TestAnalyse_RejectsInvalidFilters(t *testing.T) {
	s, _ := newTestSession(t)
	_, err := s.Analyse(analysis.Filter{})
	assert.ErrorIs(t, err, ErrNoStatement)

	require.NoError(t, s.Ingest("hdfc", "hdfc.csv", fixture(t, "hdfc_statement.csv")))

	base := analysis.Filter{
		Type:      model.TypeDebit,
		MaxAmount: dec("100"),
		From:      date(2023, 4, 1),
		To:        date(2023, 6, 30),
	}
	_, err = s.Analyse(base)
	require.NoError(t, err)

	badAmounts := base
	badAmounts.MinAmount = dec("100")
	_, err = s.Analyse(badAmounts)
	assert.ErrorIs(t, err, analysis.ErrInvalidFilter)

	early := base
	early.From = date(2023, 3, 31)
	_, err = s.Analyse(early)
	assert.ErrorIs(t, err, analysis.ErrInvalidFilter)

	late := base
	late.To = date(2023, 7, 1)
	_, err = s.Analyse(late)
	assert.ErrorIs(t, err, analysis.ErrInvalidFilter)
	assert.Contains(t, err.Error(), "2023-04-01")
}

func TestSessionsAreIsolated(t *testing.T) {
	store := NewStore(importer.DefaultRegistry(nil), slog.New(slog.NewTextHandler(io.Discard, nil)))
	a := store.Create()
	b := store.Create()
	assert.NotEqual(t, a.ID, b.ID)

	hdfc := fixture(t, "hdfc_statement.csv")
	sbi := fixture(t, "sbi_statement.csv")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, a.Ingest("hdfc", "hdfc.csv", hdfc))
	}()
	go func() {
		defer wg.Done()
		assert.NoError(t, b.Ingest("sbi", "sbi.csv", sbi))
	}()
	wg.Wait()

	ra, err := a.Calculate()
	require.NoError(t, err)
	rb, err := b.Calculate()
	require.NoError(t, err)
	assert.Equal(t, "2700.00", ra.Total.StringFixed(2))
	assert.Equal(t, "3500.50", rb.Total.StringFixed(2))
}

func TestStore(t *testing.T) {
	store := NewStore(importer.DefaultRegistry(nil), nil)
	s := store.Create()
	assert.Equal(t, 1, store.Len())

	got, err := store.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = store.Get("not-a-uuid")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Get("0b7a3c5e-4c1f-4a8e-9d0b-1f2e3d4c5b6a")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	store.Delete(s.ID)
	assert.Zero(t, store.Len())
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Contains(t, UserMessage(importer.ErrUnsupportedBank), "Unsupported bank")
	assert.Contains(t, UserMessage(ErrMalformedFile), "CSV file")
	assert.NotContains(t, UserMessage(errors.Join(ErrCalculation, errors.New("secret cause"))), "secret")
	assert.Equal(t, "Unexpected error.", UserMessage(errors.New("boom")))
}

type countingReader struct {
	r     io.Reader
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return c.r.Read(p)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }
