package ports

import (
	"io"
	"time"

	"go.trai.ch/accord/internal/core/domain"
)

// Metrics records resolution counters.
//
//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// ObserveConflict counts a conflict by kind, severity and final status.
	ObserveConflict(c *domain.Conflict)
	// ObserveAttempt counts one strategy evaluation.
	ObserveAttempt(strategy string, succeeded bool)
	// ObserveRun records the duration and size of a resolution run.
	ObserveRun(d time.Duration, components int)
	// WriteText writes the collected metrics in text exposition format.
	WriteText(w io.Writer) error
}
