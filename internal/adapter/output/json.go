package output

import (
	"encoding/json"
	"io"

	"github.com/jmylchreest/azkar/internal/model"
)

// JSONFormatter formats the state as JSON, in the same shape as the state file.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes the state as indented JSON.
func (f *JSONFormatter) Format(w io.Writer, st model.SchedulerState) error {
	return writeJSON(w, st)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
