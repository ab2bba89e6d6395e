// Package report renders finished audits as plain-text tables.
package report

import (
	"fmt"
	"io"

	"chatguard/domain"

	"github.com/olekukonko/tablewriter"
)

// WriteResult renders the per-message breakdown followed by the summary line.
func WriteResult(w io.Writer, result domain.AuditResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Sender", "Message", "Severity", "Toxic", "Sentiment", "Score"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, analysis := range result.Messages {
		table.Append([]string{
			fmt.Sprintf("%d", analysis.Message.Order),
			analysis.Message.Sender,
			clip(analysis.Message.RawText, 60),
			string(analysis.Toxicity.Level),
			yesNo(analysis.Toxicity.IsToxic),
			string(analysis.Sentiment.Label),
			fmt.Sprintf("%.4f", analysis.Sentiment.Score),
		})
	}
	table.Render()

	fmt.Fprintf(w, "\nMessages: %d\tToxic: %d\tSafety score: %d/100\n",
		result.TotalMessages, result.ToxicMessages, result.SafetyScore)
}

// WriteHistory renders archived sessions, one row each.
func WriteHistory(w io.Writer, sessions []domain.Session) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Session", "Created", "Source", "Messages", "Toxic", "Safety", "Elapsed (s)"})
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, session := range sessions {
		table.Append([]string{
			clip(session.ID, 8),
			session.CreatedAt.Format("2006-01-02 15:04:05"),
			string(session.Source),
			fmt.Sprintf("%d", session.TotalMessages),
			fmt.Sprintf("%d", session.ToxicMessages),
			fmt.Sprintf("%d", session.SafetyScore),
			fmt.Sprintf("%.2f", session.ElapsedSeconds),
		})
	}
	table.Render()
}

func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
