package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/azkar/internal/model"
)

// IDsFormatter outputs just the item IDs, one per line.
// Useful for piping to other commands (e.g., azkar items remove).
type IDsFormatter struct{}

// NewIDsFormatter creates a new IDs formatter.
func NewIDsFormatter() *IDsFormatter {
	return &IDsFormatter{}
}

// Format writes item IDs to the writer, one per line.
func (f *IDsFormatter) Format(w io.Writer, st model.SchedulerState) error {
	for _, item := range st.Items {
		if _, err := fmt.Fprintln(w, item.ID); err != nil {
			return err
		}
	}
	return nil
}
