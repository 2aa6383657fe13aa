package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/azkar/internal/model"
)

// PlainFormatter formats the state as human-readable text.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes the status header followed by the numbered item list.
func (f *PlainFormatter) Format(w io.Writer, st model.SchedulerState) error {
	if !f.opts.ItemsOnly {
		if err := f.formatHeader(w, st); err != nil {
			return err
		}
	}
	for i, item := range st.Items {
		if err := f.formatItem(w, i+1, item, item.ID == st.LastShownItemID); err != nil {
			return err
		}
	}
	return nil
}

func (f *PlainFormatter) formatHeader(w io.Writer, st model.SchedulerState) error {
	now := f.opts.now()

	var sb strings.Builder
	status := "active"
	if st.IsPaused {
		status = "paused"
	}
	fmt.Fprintf(&sb, "Status:   %s\n", status)
	fmt.Fprintf(&sb, "Today:    %d (%s)\n", st.DailyCount, st.LastResetDate)
	fmt.Fprintf(&sb, "Interval: %s\n", FormatInterval(st.IntervalSeconds))
	fmt.Fprintf(&sb, "Last:     %s\n", lastShown(st, now))
	if !st.IsPaused && len(st.Items) > 0 {
		fmt.Fprintf(&sb, "Next:     %s\n", nextDue(st, now))
	}
	fmt.Fprintf(&sb, "Items:    %d\n", len(st.Items))

	_, err := io.WriteString(w, sb.String())
	return err
}

func (f *PlainFormatter) formatItem(w io.Writer, index int, item model.ReminderItem, last bool) error {
	// Use custom template if available
	if f.template != nil {
		data := templateData{Index: index, Item: item, LastShown: last}
		if err := f.template.Execute(w, data); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}

	var sb strings.Builder
	marker := " "
	if last {
		marker = "*"
	}
	fmt.Fprintf(&sb, "%s[%d] ", marker, index)
	if f.opts.ShowIDs {
		fmt.Fprintf(&sb, "%s ", item.ID)
	}
	sb.WriteString(sanitizeText(item.Text, f.opts.TextMaxLen))
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// templateData provides data for custom templates.
type templateData struct {
	Index     int
	Item      model.ReminderItem
	LastShown bool
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": func(s string, maxLen int) string {
			return truncate(s, maxLen)
		},
	}
}

// FormatInterval renders an interval in seconds as a short duration ("1m", "1m30s", "2h").
func FormatInterval(seconds int64) string {
	s := (time.Duration(seconds) * time.Second).String()
	if strings.HasSuffix(s, "m0s") {
		s = s[:len(s)-2]
	}
	if strings.HasSuffix(s, "h0m") {
		s = s[:len(s)-2]
	}
	return s
}

func lastShown(st model.SchedulerState, now time.Time) string {
	if !st.HasFired() {
		return "never"
	}
	when := humanize.RelTime(st.LastNotificationAt(), now, "ago", "from now")
	if item, ok := st.LastShownItem(); ok {
		return fmt.Sprintf("%s (%s)", when, sanitizeText(item.Text, 40))
	}
	return when
}

func nextDue(st model.SchedulerState, now time.Time) string {
	due := st.NextDueAt()
	if !due.After(now) {
		return "now"
	}
	return humanize.RelTime(due, now, "ago", "from now")
}

// sanitizeText collapses whitespace for single-line display and truncates to maxLen runes.
func sanitizeText(text string, maxLen int) string {
	return truncate(strings.Join(strings.Fields(text), " "), maxLen)
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if maxLen <= 0 || len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
