package database

import (
	"strings"
	"unicode/utf8"

	"github.com/koustreak/brewery/internal/logger"
)

// Sink is an append-only, ordered list of log lines. Connections report
// engine failures here; UI panels and the console read it back.
type Sink struct {
	lines     []string
	width     int
	formatter *Formatter
	log       *logger.Logger
}

// NewSink returns an empty sink that mirrors every line to log.
// A nil log discards the mirror.
func NewSink(log *logger.Logger) *Sink {
	if log == nil {
		log = logger.Nop()
	}
	return &Sink{
		width:     DefaultColumnWidth,
		formatter: NewFormatter(0),
		log:       log,
	}
}

// SetColumnWidth sets the field width LogCursor right-aligns columns in.
func (s *Sink) SetColumnWidth(width int) {
	if width < 1 {
		width = 1
	}
	s.width = width
}

// Log renders template with the statement substitution rules and appends
// the result as one line. A template that fails to render is recorded
// as-is with the render error appended.
func (s *Sink) Log(template string, args ...any) {
	st, err := s.formatter.Format(template, args...)
	if err != nil {
		s.append(template + " (" + err.Error() + ")")
		return
	}
	s.append(st.SQL())
}

// LogCursor appends one line per row of cur. The rows are read from an
// independent clone, so cur keeps its position.
func (s *Sink) LogCursor(cur *Cursor) {
	rows := cur.Clone()
	defer rows.Close()

	for ; rows.Valid(); rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return
		}
		s.append(s.renderRow(values))
	}
}

// renderRow joins values with every column after the first right-aligned
// in a field of s.width, always separated by at least one space.
func (s *Sink) renderRow(values []string) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			pad := s.width - utf8.RuneCountInString(v)
			if pad < 1 {
				pad = 1
			}
			b.WriteString(strings.Repeat(" ", pad))
		}
		b.WriteString(v)
	}
	return b.String()
}

func (s *Sink) append(line string) {
	s.lines = append(s.lines, line)
	s.log.Info(line)
}

// Lines returns a copy of all lines in insertion order.
func (s *Sink) Lines() []string {
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

// Since returns the lines appended after the first n.
func (s *Sink) Since(n int) []string {
	if n < 0 {
		n = 0
	}
	if n >= len(s.lines) {
		return nil
	}
	out := make([]string, len(s.lines)-n)
	copy(out, s.lines[n:])
	return out
}

// Len returns the number of lines.
func (s *Sink) Len() int {
	return len(s.lines)
}

// Clear drops every line.
func (s *Sink) Clear() {
	s.lines = nil
}

func (s *Sink) logger() *logger.Logger {
	return s.log
}
