package report

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/accord/internal/core/domain"
	"go.trai.ch/accord/internal/ui/output"
	"go.trai.ch/accord/internal/ui/style"
	"go.trai.ch/zerr"
)

// Text renders reports for a terminal.
type Text struct{}

// NewText creates a Text reporter using the terminal's color profile.
func NewText() *Text {
	lipgloss.SetColorProfile(output.ColorProfile())
	return &Text{}
}

// Render implements ports.Reporter.
func (t *Text) Render(w io.Writer, r *domain.Report) error {
	var b strings.Builder
	out := r.Outcome

	writePackages(&b, out)
	writeConflicts(&b, out.Conflicts)
	writeLock(&b, r)
	writeSummary(&b, out)

	if _, err := io.WriteString(w, b.String()); err != nil {
		return zerr.Wrap(err, "failed to write report")
	}
	return nil
}

func writePackages(b *strings.Builder, out *domain.Outcome) {
	names := slices.Sorted(maps.Keys(out.Resolved))
	b.WriteString(style.Heading.Render("Packages") + "\n")
	if len(names) == 0 {
		b.WriteString("  " + style.Muted.Render("none resolved") + "\n")
		return
	}

	nameWidth, versionWidth := 0, 0
	for _, name := range names {
		nameWidth = max(nameWidth, len(name))
		versionWidth = max(versionWidth, len(out.Resolved[name].String()))
	}
	for _, name := range names {
		v := out.Resolved[name].String()
		line := fmt.Sprintf("  %-*s  %-*s  ", nameWidth, name, versionWidth, v)
		b.WriteString(line + style.Muted.Render(out.Provenance[name].Strategy) + "\n")
	}
}

func writeConflicts(b *strings.Builder, conflicts []*domain.Conflict) {
	if len(conflicts) == 0 {
		return
	}
	b.WriteString("\n" + style.Heading.Render("Conflicts") + "\n")
	for _, c := range conflicts {
		sev := lipgloss.NewStyle().Foreground(style.SeverityColor(c.Severity)).Render(c.Severity.String())
		icon := statusStyle(c.Status).Render(style.StatusIcon(c.Status))
		fmt.Fprintf(b, "  %s %s %s [%s]\n", icon, c.Kind, strings.Join(c.Nodes, ", "), sev)
		fmt.Fprintf(b, "      %s\n", c.Detail)
		switch c.Status {
		case domain.StatusResolved:
			fmt.Fprintf(b, "      %s\n", style.Muted.Render("resolved by "+c.ResolvedBy))
		case domain.StatusManuallyOverridden:
			fmt.Fprintf(b, "      %s\n", style.Notice.Render("overridden by "+c.ResolvedBy))
		default:
			fmt.Fprintf(b, "      %s\n", style.Failure.Render(string(c.Reason)))
		}
		if len(c.CyclePath) > 0 {
			fmt.Fprintf(b, "      %s\n", strings.Join(c.CyclePath, " "+style.Arrow+" "))
		}
		if c.Hint != "" {
			fmt.Fprintf(b, "      %s\n", style.Muted.Render("hint: "+c.Hint))
		}
	}
}

func writeLock(b *strings.Builder, r *domain.Report) {
	if r.LockPath == "" {
		return
	}
	b.WriteString("\n" + style.Heading.Render("Lock") + "\n")
	for _, c := range r.Diff.Added {
		fmt.Fprintf(b, "  %s %s %s\n", style.Success.Render(style.Plus), c.Name, c.To)
	}
	for _, c := range r.Diff.Changed {
		fmt.Fprintf(b, "  %s %s %s %s %s\n", style.Notice.Render(style.Tilde), c.Name, c.From, style.Arrow, c.To)
	}
	for _, c := range r.Diff.Removed {
		fmt.Fprintf(b, "  %s %s %s\n", style.Failure.Render(style.Minus), c.Name, c.From)
	}

	var status string
	switch {
	case r.Command == "verify" && r.Stale:
		status = style.Failure.Render(r.LockPath + " is out of date")
	case r.Command == "verify":
		status = style.Success.Render(r.LockPath + " is up to date")
	case r.DryRun:
		status = style.Muted.Render("dry run, " + r.LockPath + " not written")
	case r.Written:
		status = style.Success.Render("wrote " + r.LockPath)
	default:
		status = style.Muted.Render(r.LockPath + " unchanged")
	}
	b.WriteString("  " + status + "\n")
}

func writeSummary(b *strings.Builder, out *domain.Outcome) {
	s, p := out.Stats, out.Performance
	summary := fmt.Sprintf(
		"%d resolved, %d auto-resolved, %d overridden, %d unresolved (%d timed out)",
		len(out.Resolved), s.AutoResolved, s.Overridden, s.ManualRequired, s.TimedOut,
	)
	perf := fmt.Sprintf("%d components on %d workers in %s", p.Components, p.Workers, p.Duration)

	icon := style.Success.Render(style.Check)
	if !out.Successful() {
		icon = style.Failure.Render(style.Cross)
	}
	b.WriteString("\n" + icon + " " + summary + "\n")
	b.WriteString("  " + style.Muted.Render(perf) + "\n")
}

func statusStyle(s domain.ResolutionStatus) lipgloss.Style {
	switch s {
	case domain.StatusResolved:
		return style.Success
	case domain.StatusManuallyOverridden:
		return style.Notice
	default:
		return style.Failure
	}
}
