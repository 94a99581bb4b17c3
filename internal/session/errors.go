package session

import (
	"errors"

	"github.com/askthatman/dividend/internal/analysis"
	"github.com/askthatman/dividend/internal/importer"
)

var (
	// ErrMalformedFile is returned when an upload is not a readable statement.
	ErrMalformedFile = errors.New("malformed statement file")
	// ErrCalculation hides the cause of a failed dividend calculation.
	ErrCalculation = errors.New("dividend calculation failed")
	// ErrAnalysis hides the cause of a failed transaction analysis.
	ErrAnalysis = errors.New("transaction analysis failed")
	// ErrNoStatement is returned before the first successful upload.
	ErrNoStatement = errors.New("no statement loaded")
	// ErrSessionNotFound is returned by Store for unknown ids.
	ErrSessionNotFound = errors.New("session not found")
)

// UserMessage maps an error from this package to the text shown to users.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, importer.ErrUnsupportedBank):
		return "Unsupported bank. Please choose one of the supported banks (HDFC, SBI)."
	case errors.Is(err, ErrMalformedFile):
		return "Error while processing CSV file. Please make sure you are uploading the correct statement file for the selected bank."
	case errors.Is(err, ErrNoStatement):
		return "Please load a bank statement first."
	case errors.Is(err, analysis.ErrInvalidFilter):
		return err.Error()
	case errors.Is(err, ErrCalculation):
		return "Something went wrong while calculating your dividend. Please try again."
	case errors.Is(err, ErrAnalysis):
		return "Something went wrong while analysing your transactions. Please try again."
	case errors.Is(err, ErrSessionNotFound):
		return "Session expired. Please upload your statement again."
	default:
		return "Unexpected error."
	}
}
