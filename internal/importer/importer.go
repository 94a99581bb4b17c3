package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/askthatman/dividend/internal/model"
)

// Bank identifies a supported statement export format.
type Bank string

const (
	BankHDFC Bank = "hdfc"
	BankSBI  Bank = "sbi"
)

var (
	// ErrUnsupportedBank is returned for bank ids outside the registry.
	ErrUnsupportedBank = errors.New("unsupported bank")
	// ErrNotUTF8 is returned when an upload cannot be decoded as text.
	ErrNotUTF8 = errors.New("statement is not valid UTF-8 text")
)

// ParseBank maps a user supplied id ("HDFC", "sbi") to a Bank.
func ParseBank(s string) (Bank, error) {
	switch b := Bank(strings.ToLower(strings.TrimSpace(s))); b {
	case BankHDFC, BankSBI:
		return b, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedBank, s)
	}
}

// Profile bundles the per-bank rules for one statement format.
type Profile interface {
	Bank() Bank
	// Sanitise normalises a raw line so commas only separate fields.
	Sanitise(line string) string
	// Parse keeps the qualifying transaction rows of lines, in order.
	// Rows that do not match the format are dropped, never reported.
	Parse(lines []string) []model.Transaction
	// IsDividend reports whether a narration is a dividend credit.
	IsDividend(summary string) bool
	// ParseAmount converts an amount column to a decimal; "" is zero.
	ParseAmount(raw string) (decimal.Decimal, error)
	DateLayout() string
}

// Registry holds one Profile per bank.
type Registry struct {
	profiles map[Bank]Profile
}

// NewRegistry creates an empty profile registry.
func NewRegistry() *Registry {
	return &Registry{profiles: make(map[Bank]Profile)}
}

// Register adds a profile. Panics on duplicate bank.
func (r *Registry) Register(p Profile) {
	if _, ok := r.profiles[p.Bank()]; ok {
		panic("duplicate bank profile: " + string(p.Bank()))
	}
	r.profiles[p.Bank()] = p
}

// Get returns the profile for bank.
func (r *Registry) Get(bank Bank) (Profile, error) {
	p, ok := r.profiles[bank]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBank, bank)
	}
	return p, nil
}

// Lookup parses id and returns its profile.
func (r *Registry) Lookup(id string) (Profile, error) {
	bank, err := ParseBank(id)
	if err != nil {
		return nil, err
	}
	return r.Get(bank)
}

// Banks returns the registered banks in sorted order.
func (r *Registry) Banks() []Bank {
	banks := make([]Bank, 0, len(r.profiles))
	for b := range r.profiles {
		banks = append(banks, b)
	}
	slices.Sort(banks)
	return banks
}

// DefaultRegistry returns a registry with all built-in profiles.
// layouts overrides a bank's date layout; missing entries keep the default.
func DefaultRegistry(layouts map[Bank]string) *Registry {
	r := NewRegistry()
	r.Register(NewHDFCProfile(layouts[BankHDFC]))
	r.Register(NewSBIProfile(layouts[BankSBI]))
	return r
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadLines reads an uploaded statement and splits it on newlines.
func ReadLines(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading statement: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, ErrNotUTF8
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	return strings.Split(string(data), "\n"), nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return d, nil
}
