// Package report renders resolution reports as styled text or JSON.
package report

import (
	"encoding/json"
	"io"

	"go.trai.ch/accord/internal/core/domain"
	"go.trai.ch/accord/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// FormatText is the human-readable report.
	FormatText = "text"
	// FormatJSON is the machine-readable report.
	FormatJSON = "json"
)

// New returns the Reporter for format. An empty format selects text.
func New(format string) (ports.Reporter, error) {
	switch format {
	case "", FormatText:
		return NewText(), nil
	case FormatJSON:
		return NewJSON(), nil
	default:
		return nil, zerr.With(domain.ErrUnknownReportFormat, "format", format)
	}
}

// JSON renders reports as indented JSON.
type JSON struct{}

// NewJSON creates a JSON reporter.
func NewJSON() *JSON {
	return &JSON{}
}

// Render implements ports.Reporter.
func (j *JSON) Render(w io.Writer, r *domain.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return zerr.Wrap(err, "failed to encode report")
	}
	return nil
}
