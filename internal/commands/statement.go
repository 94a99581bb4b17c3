package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/askthatman/dividend/internal/session"
)

// ingestFile loads path into a fresh single-use session.
func (a *app) ingestFile(bank, path string) (*session.Session, error) {
	// Reject unknown banks before touching the file.
	if _, err := a.registry.Lookup(bank); err != nil {
		return nil, userError{err}
	}
	s := session.New("cli", a.registry, a.logger)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()

	if err := s.Ingest(bank, filepath.Base(path), f); err != nil {
		return nil, userError{err}
	}
	return s, nil
}

// output opens --out, or returns w when it is empty.
func output(path string, w io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return w, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, f.Close, nil
}
