// Package output provides output formatters for the scheduler state and the
// firing history.
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/jmylchreest/azkar/internal/model"
)

// Formatter formats a state snapshot for output.
type Formatter interface {
	// Format writes the formatted state to the writer.
	Format(w io.Writer, st model.SchedulerState) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatJSON   FormatType = "json"
	FormatYAML   FormatType = "yaml"
	FormatPlain  FormatType = "plain"
	FormatIDs    FormatType = "ids"
	FormatWaybar FormatType = "waybar"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (FormatType, error) {
	switch f := FormatType(s); f {
	case FormatJSON, FormatYAML, FormatPlain, FormatIDs, FormatWaybar:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want json, yaml, plain, ids or waybar)", s)
	}
}

// NewFormatter creates a formatter for the specified format type.
// Unknown formats fall back to plain text.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter(opts)
	case FormatIDs:
		return NewIDsFormatter()
	case FormatWaybar:
		return NewWaybarFormatter(opts)
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template   string           // Custom per-item template for plain format
	ItemsOnly  bool             // Plain: list items without the status header
	ShowIDs    bool             // Plain: show item ids next to the index
	TextMaxLen int              // Maximum item text length in runes (0 = unlimited)
	Now        func() time.Time // Reference time for relative times; nil = time.Now
}

// DefaultFormatterOptions returns sensible defaults for terminal output.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIDs:    true,
		TextMaxLen: 80,
	}
}

func (o FormatterOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}
