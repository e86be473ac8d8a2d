package slogobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/mattn/go-isatty"
)

// Handler is a slog.Handler rendering records in one of the Format styles.
// Handlers derived through WithAttrs/WithGroup share the parent's mutex so
// concurrent writes to the same output never interleave.
type Handler struct {
	format Format
	level  slog.Leveler
	output io.Writer
	colors bool
	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string
}

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	Format Format
	Level  slog.Leveler
	// Output defaults to os.Stderr.
	Output io.Writer
	// Colors enables ANSI colours; it is switched on automatically when
	// Output is a terminal and Format is not JSON.
	Colors bool
}

// NewHandler creates a Handler. A nil opts gives compact INFO output on stderr.
func NewHandler(opts *HandlerOptions) *Handler {
	if opts == nil {
		opts = &HandlerOptions{}
	}
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}
	format := opts.Format
	if format == "" {
		format = FormatCompact
	}
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}

	colors := opts.Colors
	if !colors && format != FormatJSON {
		if f, ok := output.(*os.File); ok {
			colors = isTerminal(f)
		}
	}

	return &Handler{
		format: format,
		level:  level,
		output: output,
		colors: colors,
		mu:     &sync.Mutex{},
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	attrs := h.collectAttrs(r)

	var buf []byte
	var err error
	switch h.format {
	case FormatJSON:
		buf, err = h.renderJSON(r, attrs)
	case FormatPretty:
		buf = h.renderPretty(r, attrs)
	default:
		buf = h.renderCompact(r, attrs)
	}
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.output.Write(buf)
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), h.qualify(attrs)...)
	return &clone
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

// renderCompact: "2006-01-02 15:04:05  INFO message → {"k":"v"}"
func (h *Handler) renderCompact(r slog.Record, attrs []slog.Attr) []byte {
	buf := make([]byte, 0, 256)
	buf = append(buf, r.Time.Format("2006-01-02 15:04:05")...)
	buf = append(buf, ' ')
	buf = h.appendLevel(buf, r.Level, "%5s")
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)

	if len(attrs) > 0 {
		encoded, err := json.Marshal(attrsToMap(attrs))
		if err != nil {
			buf = append(buf, " [unencodable attributes]"...)
		} else {
			buf = append(buf, " → "...)
			buf = append(buf, encoded...)
		}
	}
	return append(buf, '\n')
}

func (h *Handler) renderPretty(r slog.Record, attrs []slog.Attr) []byte {
	buf := make([]byte, 0, 256)
	buf = append(buf, r.Time.Format("2006-01-02 15:04:05")...)
	buf = append(buf, ' ')
	buf = h.appendLevel(buf, r.Level, "%-5s")
	buf = append(buf, "  "...)
	buf = append(buf, r.Message...)
	buf = append(buf, '\n')

	for i, attr := range attrs {
		branch := "├─"
		if i == len(attrs)-1 {
			branch = "└─"
		}
		buf = append(buf, fmt.Sprintf("                    %s %s: %v\n", branch, attr.Key, attr.Value.Any())...)
	}
	return buf
}

func (h *Handler) renderJSON(r slog.Record, attrs []slog.Attr) ([]byte, error) {
	data := attrsToMap(attrs)
	data["time"] = r.Time.Format("2006-01-02T15:04:05.000Z07:00")
	data["level"] = levelString(r.Level)
	data["msg"] = r.Message

	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(encoded, '\n'), nil
}

func (h *Handler) appendLevel(buf []byte, level slog.Level, layout string) []byte {
	label := fmt.Sprintf(layout, levelString(level))
	if !h.colors {
		return append(buf, label...)
	}
	buf = append(buf, colorForLevel(level)...)
	buf = append(buf, label...)
	return append(buf, colorReset...)
}

// collectAttrs returns handler attributes followed by record attributes,
// sorted by key so output is stable.
func (h *Handler) collectAttrs(r slog.Record) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(attr slog.Attr) bool {
		attrs = append(attrs, h.qualify([]slog.Attr{attr})...)
		return true
	})
	sort.SliceStable(attrs, func(i, j int) bool { return attrs[i].Key < attrs[j].Key })
	return attrs
}

func (h *Handler) qualify(attrs []slog.Attr) []slog.Attr {
	if len(h.groups) == 0 {
		return attrs
	}
	prefix := ""
	for _, group := range h.groups {
		prefix += group + "."
	}
	out := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		out[i] = slog.Attr{Key: prefix + attr.Key, Value: attr.Value}
	}
	return out
}

func attrsToMap(attrs []slog.Attr) map[string]any {
	out := make(map[string]any, len(attrs))
	for _, attr := range attrs {
		value := attr.Value.Resolve().Any()
		switch v := value.(type) {
		case error:
			value = v.Error()
		case fmt.Stringer:
			value = v.String()
		}
		out[attr.Key] = value
	}
	return out
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
)

func colorForLevel(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return colorGray
	case level < slog.LevelInfo:
		return colorBlue
	case level < slog.LevelWarn:
		return colorGreen
	case level < slog.LevelError:
		return colorYellow
	default:
		return colorRed
	}
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
