package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jmylchreest/azkar/internal/model"
)

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text    string `json:"text"`
	Alt     string `json:"alt,omitempty"`
	Tooltip string `json:"tooltip,omitempty"`
	Class   string `json:"class,omitempty"`
}

// NewWaybarStatus builds the status module output: today's count as text and
// the paused flag as alt and class.
func NewWaybarStatus(st model.SchedulerState, opts FormatterOptions) WaybarStatus {
	now := opts.now()

	state := "active"
	if st.IsPaused {
		state = "paused"
	}

	var tooltip strings.Builder
	fmt.Fprintf(&tooltip, "Azkar today: %d\n", st.DailyCount)
	fmt.Fprintf(&tooltip, "Every %s", FormatInterval(st.IntervalSeconds))
	if st.IsPaused {
		tooltip.WriteString(" (paused)")
	}
	fmt.Fprintf(&tooltip, "\nLast: %s", lastShown(st, now))

	return WaybarStatus{
		Text:    fmt.Sprintf("%d", st.DailyCount),
		Alt:     state,
		Tooltip: tooltip.String(),
		Class:   state,
	}
}

// WaybarFormatter writes a single-line WaybarStatus JSON object.
type WaybarFormatter struct {
	opts FormatterOptions
}

// NewWaybarFormatter creates a new Waybar formatter.
func NewWaybarFormatter(opts FormatterOptions) *WaybarFormatter {
	return &WaybarFormatter{opts: opts}
}

// Format writes the Waybar status. Waybar reads one JSON object per line.
func (f *WaybarFormatter) Format(w io.Writer, st model.SchedulerState) error {
	return writeCompactJSON(w, NewWaybarStatus(st, f.opts))
}
