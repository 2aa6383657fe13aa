package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/azkar/internal/model"
)

type yamlItem struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
}

type yamlState struct {
	Items                []yamlItem `yaml:"items"`
	IntervalSeconds      int64      `yaml:"interval_seconds"`
	DailyCount           int64      `yaml:"daily_count"`
	LastResetDate        string     `yaml:"last_reset_date"`
	LastNotificationTime int64      `yaml:"last_notification_time"`
	IsPaused             bool       `yaml:"is_paused"`
	LastShownItemID      string     `yaml:"last_shown_item_id,omitempty"`
}

// YAMLFormatter formats the state as YAML using the state file's key names.
type YAMLFormatter struct {
	opts FormatterOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(opts FormatterOptions) *YAMLFormatter {
	return &YAMLFormatter{opts: opts}
}

// Format writes the state as YAML.
func (f *YAMLFormatter) Format(w io.Writer, st model.SchedulerState) error {
	out := yamlState{
		Items:                make([]yamlItem, 0, len(st.Items)),
		IntervalSeconds:      st.IntervalSeconds,
		DailyCount:           st.DailyCount,
		LastResetDate:        st.LastResetDate,
		LastNotificationTime: st.LastNotificationTime,
		IsPaused:             st.IsPaused,
		LastShownItemID:      st.LastShownItemID,
	}
	for _, item := range st.Items {
		out.Items = append(out.Items, yamlItem(item))
	}
	return writeYAML(w, out)
}

func writeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}
