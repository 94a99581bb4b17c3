// Package session holds the statement a user uploaded and runs dividend
// calculations and analyses against it.
package session

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/askthatman/dividend/internal/analysis"
	"github.com/askthatman/dividend/internal/dividend"
	"github.com/askthatman/dividend/internal/importer"
	"github.com/askthatman/dividend/internal/model"
)

// Statement is the parsed result of one upload. It is never modified after
// Ingest publishes it.
type Statement struct {
	Bank     importer.Bank
	Source   string
	Records  []model.Transaction
	LoadedAt time.Time
}

// DateRange returns the earliest and latest transaction dates.
func (st *Statement) DateRange() (from, to time.Time, ok bool) {
	for i, r := range st.Records {
		if i == 0 || r.Date.Before(from) {
			from = r.Date
		}
		if i == 0 || r.Date.After(to) {
			to = r.Date
		}
	}
	return from, to, len(st.Records) > 0
}

// Status summarises a session for display.
type Status struct {
	Loaded  bool
	Bank    importer.Bank
	Source  string
	Records int
	From    time.Time
	To      time.Time
	Failed  bool
	Error   error
}

// Session owns at most one Statement and the profile it was parsed with.
type Session struct {
	ID string

	registry *importer.Registry
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.RWMutex
	statement *Statement
	profile   importer.Profile
	failed    bool
	lastErr   error
}

// New creates an empty session.
func New(id string, registry *importer.Registry, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		ID:       id,
		registry: registry,
		logger:   logger.With("session", id),
		now:      time.Now,
	}
}

// Ingest parses r as a bankID statement and makes it the current one.
// On failure the previous statement stays loaded and Status reports the
// failed upload.
func (s *Session) Ingest(bankID, source string, r io.Reader) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failed = true
	s.lastErr = nil
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("statement ingestion panicked", "source", source, "panic", rec)
			err = ErrMalformedFile
		}
		s.lastErr = err
		s.failed = err != nil
	}()

	profile, err := s.registry.Lookup(bankID)
	if err != nil {
		s.logger.Warn("rejected upload", "bank", bankID, "error", err)
		return err
	}

	lines, err := importer.ReadLines(r)
	if err != nil {
		s.logger.Warn("unreadable statement", "bank", profile.Bank(), "source", source, "error", err)
		return fmt.Errorf("%w: %w", ErrMalformedFile, err)
	}

	records := profile.Parse(lines)
	s.statement = &Statement{
		Bank:     profile.Bank(),
		Source:   source,
		Records:  records,
		LoadedAt: s.now(),
	}
	s.profile = profile
	s.logger.Info("statement ingested",
		"bank", profile.Bank(), "source", source, "lines", len(lines), "records", len(records))
	return nil
}

// Statement returns the current statement, or nil.
func (s *Session) Statement() *Statement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statement
}

// Status reports what is loaded and whether the last upload failed.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{Failed: s.failed, Error: s.lastErr}
	if s.statement != nil {
		st.Loaded = true
		st.Bank = s.statement.Bank
		st.Source = s.statement.Source
		st.Records = len(s.statement.Records)
		st.From, st.To, _ = s.statement.DateRange()
	}
	return st
}

// Calculate totals the dividend credits of the current statement.
func (s *Session) Calculate() (res model.DividendResult, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.statement == nil {
		return model.DividendResult{}, ErrNoStatement
	}
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("dividend calculation panicked", "panic", rec)
			res, err = model.DividendResult{}, ErrCalculation
		}
	}()

	res, err = dividend.Calculate(s.profile, s.statement.Records)
	if err != nil {
		s.logger.Error("dividend calculation failed", "bank", s.statement.Bank, "error", err)
		return model.DividendResult{}, ErrCalculation
	}
	s.logger.Info("dividend calculated", "matched", len(res.Matched), "total", res.Total.StringFixed(2))
	return res, nil
}

// Analyse runs f over the current statement. f must be valid and its
// dates must lie within the statement's date range.
func (s *Session) Analyse(f analysis.Filter) (rows []model.AnalysisRow, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.statement == nil {
		return nil, ErrNoStatement
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if err := checkRange(s.statement, f); err != nil {
		return nil, err
	}
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("transaction analysis panicked", "panic", rec)
			rows, err = nil, ErrAnalysis
		}
	}()

	rows, err = analysis.Analyse(s.profile, s.statement.Records, f)
	if err != nil {
		s.logger.Error("transaction analysis failed", "bank", s.statement.Bank, "error", err)
		return nil, ErrAnalysis
	}
	return rows, nil
}

// Total sums the Amount column of rows produced by Analyse.
func (s *Session) Total(rows []model.AnalysisRow) (model.AnalysisTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.profile == nil {
		return model.AnalysisTotal{}, ErrNoStatement
	}
	total, err := analysis.Total(s.profile, rows)
	if err != nil {
		s.logger.Error("analysis total failed", "error", err)
		return model.AnalysisTotal{}, ErrAnalysis
	}
	return model.AnalysisTotal{Count: len(rows), Amount: total}, nil
}

func checkRange(st *Statement, f analysis.Filter) error {
	first, last, ok := st.DateRange()
	if !ok {
		return nil
	}
	if dateOnly(f.From).Before(dateOnly(first)) || dateOnly(f.To).After(dateOnly(last)) {
		return fmt.Errorf("%w: dates must lie between %s and %s",
			analysis.ErrInvalidFilter, first.Format(time.DateOnly), last.Format(time.DateOnly))
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
