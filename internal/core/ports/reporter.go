package ports

import (
	"io"

	"go.trai.ch/accord/internal/core/domain"
)

// Reporter renders the result of a run for the user.
type Reporter interface {
	// Render writes r to w.
	Render(w io.Writer, r *domain.Report) error
}
