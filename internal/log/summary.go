package log

import (
	"fmt"
	"time"

	"github.com/samber/lo"
)

// SessionSummary pairs a stored session with display fields.
type SessionSummary struct {
	Session      *HistorySession
	RelativeTime string
	Command      string
}

// Summaries returns up to limit sessions, newest first, ready for display.
func Summaries(limit int) ([]SessionSummary, error) {
	sessions, err := ReadSessions(limit)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return lo.Map(sessions, func(s *HistorySession, _ int) SessionSummary {
		return Summarize(s, now)
	}), nil
}

// Summarize builds the summary of one session relative to now.
func Summarize(s *HistorySession, now time.Time) SessionSummary {
	command := "unknown"
	if len(s.Metadata.CommandArgs) > 0 {
		command = s.Metadata.CommandArgs[0]
	}
	return SessionSummary{
		Session:      s,
		RelativeTime: FormatRelativeTime(s.Metadata.Timestamp, now),
		Command:      command,
	}
}

// FormatRelativeTime renders t as "just now", "5 minutes ago" and so on.
// Anything older than a week is shown as a date.
func FormatRelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		return fmt.Sprintf("%d minute%s ago", mins, plural(mins))
	case d < 24*time.Hour:
		hours := int(d.Hours())
		return fmt.Sprintf("%d hour%s ago", hours, plural(hours))
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		return fmt.Sprintf("%d day%s ago", days, plural(days))
	default:
		return t.Format("Jan 2, 2006")
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
