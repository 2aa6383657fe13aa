package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/azkar/internal/model"
)

type yamlRecord struct {
	ItemID  string `yaml:"item_id"`
	Text    string `yaml:"text"`
	FiredAt int64  `yaml:"fired_at"`
}

// FormatHistory writes firing records, newest last, in the given format.
// The ids and waybar formats are not meaningful for history and print plain text.
func FormatHistory(w io.Writer, records []model.FiringRecord, format FormatType, opts FormatterOptions) error {
	switch format {
	case FormatJSON:
		if records == nil {
			records = []model.FiringRecord{}
		}
		return writeJSON(w, records)
	case FormatYAML:
		out := make([]yamlRecord, 0, len(records))
		for _, r := range records {
			out = append(out, yamlRecord(r))
		}
		return writeYAML(w, out)
	default:
		now := opts.now()
		for _, r := range records {
			line := fmt.Sprintf("%s  %s  %s\n",
				r.FiredTime().Format("2006-01-02 15:04:05"),
				humanize.RelTime(r.FiredTime(), now, "ago", "from now"),
				sanitizeText(r.Text, opts.TextMaxLen))
			if _, err := io.WriteString(w, line); err != nil {
				return err
			}
		}
		return nil
	}
}

func writeCompactJSON(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
