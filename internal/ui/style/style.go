// Package style provides shared UI styling primitives for the CLI.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/accord/internal/core/domain"
)

// Brand Colors.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
	Orange = lipgloss.Color("#EA580C")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Tilde   = "~"
	Plus    = "+"
	Minus   = "-"
	Arrow   = "→"
)

// Text styles.
var (
	Heading = lipgloss.NewStyle().Bold(true).Foreground(Iris)
	Muted   = lipgloss.NewStyle().Foreground(Slate)
	Success = lipgloss.NewStyle().Foreground(Green)
	Failure = lipgloss.NewStyle().Foreground(Red)
	Notice  = lipgloss.NewStyle().Foreground(Yellow)
)

// SeverityColor returns the color used for a conflict severity.
func SeverityColor(s domain.Severity) lipgloss.Color {
	switch s {
	case domain.SeverityCritical:
		return Red
	case domain.SeverityHigh:
		return Orange
	case domain.SeverityMedium:
		return Yellow
	default:
		return Slate
	}
}

// StatusIcon returns the icon shown next to a conflict in its final state.
func StatusIcon(s domain.ResolutionStatus) string {
	switch s {
	case domain.StatusResolved:
		return Check
	case domain.StatusManuallyOverridden:
		return Tilde
	default:
		return Cross
	}
}
