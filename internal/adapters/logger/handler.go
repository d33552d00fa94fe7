package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"go.trai.ch/accord/internal/core/domain"
	"go.trai.ch/accord/internal/ui/output"
	"go.trai.ch/accord/internal/ui/style"
)

// PrettyHandler is a slog.Handler for terminals. It shares the conflict report's palette.
type PrettyHandler struct {
	out   *termenv.Output
	level slog.Leveler
	attrs []slog.Attr
	group string
}

// NewPrettyHandler creates a new PrettyHandler writing to the provided writer.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	return &PrettyHandler{
		out:   output.New(w),
		level: level,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes the record as a headline in the level's color. Continuation lines, such as
// the cause chain of an error, and attributes are muted.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	icon, color := levelStyle(r.Level)

	headline, body, _ := strings.Cut(r.Message, "\n")
	if icon != "" {
		headline = icon + " " + headline
	}

	var b strings.Builder
	b.WriteString(h.out.String(headline).Foreground(color).String())

	h.writeAttrs(&b, r)
	if body != "" {
		b.WriteString("\n")
		b.WriteString(h.muted(body))
	}
	b.WriteString("\n")

	_, err := h.out.WriteString(b.String())
	return err
}

func (h *PrettyHandler) writeAttrs(b *strings.Builder, r slog.Record) {
	write := func(attr slog.Attr) bool {
		b.WriteString(" ")
		b.WriteString(h.muted(attrKey(h.group, attr) + "="))
		b.WriteString(attr.Value.String())
		return true
	}
	for _, attr := range h.attrs {
		write(attr)
	}
	r.Attrs(write)
}

func (h *PrettyHandler) muted(s string) string {
	return h.out.String(s).Foreground(termenv.RGBColor(string(style.Slate))).String()
}

// levelStyle maps a log level onto the icon and color used for conflicts of similar weight.
func levelStyle(level slog.Level) (string, termenv.Color) {
	switch {
	case level >= slog.LevelError:
		return style.Cross, termenv.RGBColor(string(style.SeverityColor(domain.SeverityCritical)))
	case level >= slog.LevelWarn:
		return style.Warning, termenv.RGBColor(string(style.SeverityColor(domain.SeverityMedium)))
	default:
		return "", termenv.RGBColor(string(style.Iris))
	}
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	newAttrs = append(newAttrs, h.attrs...)
	newAttrs = append(newAttrs, attrs...)

	return &PrettyHandler{out: h.out, level: h.level, attrs: newAttrs, group: h.group}
}

// WithGroup returns a new Handler with the given group name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	return &PrettyHandler{out: h.out, level: h.level, attrs: h.attrs, group: name}
}

func attrKey(group string, attr slog.Attr) string {
	if group == "" {
		return attr.Key
	}
	return group + "." + attr.Key
}
