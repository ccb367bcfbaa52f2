package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"IVSolver/internal/model"
)

// FormatBatchReport formats a finished batch into a Telegram message.
func FormatBatchReport(s *model.BatchSummary) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>IVSolver batch</b> | %s\n\n", s.StartedAt.Format("2006-01-02 15:04")))
	if s.Source != "" {
		b.WriteString(fmt.Sprintf("Input: %s\n", html.EscapeString(s.Source)))
	}
	if s.Output != "" {
		b.WriteString(fmt.Sprintf("Output: %s\n", html.EscapeString(s.Output)))
	}
	b.WriteString(fmt.Sprintf("Trades: %d\n", s.Total))

	ratio := 0.0
	if s.Total > 0 {
		ratio = float64(s.Solved) / float64(s.Total) * 100
	}
	b.WriteString(fmt.Sprintf("Solved: %d (%.1f%%)\n", s.Solved, ratio))
	b.WriteString(fmt.Sprintf("NaN results: %d\n", s.NaNCount))
	if s.Solved > 0 {
		b.WriteString(fmt.Sprintf("Avg iterations: %.1f\n", float64(s.Iterations)/float64(s.Solved)))
	}
	b.WriteString(fmt.Sprintf("Took: %s\n", s.Duration.Round(time.Millisecond)))

	if s.Total > 0 && s.NaNCount*2 > s.Total {
		b.WriteString("\n⚠️ More than half of the trades have no solution in the searched range")
	}
	return b.String()
}

// FormatFailure formats a batch that could not complete. Messages are sent in
// HTML mode, so the error text is escaped.
func FormatFailure(stage string, err error) string {
	return fmt.Sprintf("❌ <b>IVSolver batch failed</b> at %s: %s",
		html.EscapeString(stage), html.EscapeString(err.Error()))
}

// FormatHelp lists the supported chat commands.
func FormatHelp() string {
	return "Available commands:\n• /run  solve the configured input now\n• /last  show the previous batch"
}
