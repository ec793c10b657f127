package exporter

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/aggregate"
)

// MarkdownTopN limits the campaign and anomaly tables of the Markdown report.
const MarkdownTopN = 10

// WriteMarkdown renders the report as Markdown.
func WriteMarkdown(w io.Writer, report *Report) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# Campaign report: %s\n\n", report.Name)
	if !report.GeneratedAt.IsZero() {
		fmt.Fprintf(bw, "_Generated %s_\n\n", report.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))
	}

	bw.WriteString("## Summary\n\n")
	var rows [][]string
	for _, kv := range summaryRows(report.Summary) {
		rows = append(rows, []string{kv[0], kv[1]})
	}
	writeTable(bw, []string{"Metric", "Value"}, rows)

	if report.Platforms != nil && len(report.Platforms.Groups) > 0 {
		bw.WriteString("\n## Platforms\n\n")
		rows = rows[:0]
		for _, g := range report.Platforms.Groups {
			rows = append(rows, []string{
				fmt.Sprint(g.Rank), g.Key, formatFloat(g.Spend), formatFloat(g.SpendShare) + "%",
				formatCount(g.Conversions), formatPercent(g.CTR), formatFloat(g.CPA), formatRatio(g.ROAS),
			})
		}
		writeTable(bw, []string{"Rank", "Platform", "Spend", "Share", "Conversions", "CTR", "CPA", "ROAS"}, rows)
	}

	if report.Campaigns != nil && len(report.Campaigns.Groups) > 0 {
		bw.WriteString("\n## Top campaigns by spend\n\n")
		rows = rows[:0]
		for _, g := range topBySpend(report.Campaigns.Groups, MarkdownTopN) {
			rows = append(rows, []string{
				g.Key, formatFloat(g.Spend), formatCount(g.Clicks), formatCount(g.Conversions),
				formatFloat(g.CPA), formatRatio(g.ROAS),
			})
		}
		writeTable(bw, []string{"Campaign", "Spend", "Clicks", "Conversions", "CPA", "ROAS"}, rows)
	}

	if q := report.Quality; q != nil {
		bw.WriteString("\n## Data quality\n\n")
		if q.OverallScore != nil {
			fmt.Fprintf(bw, "Overall score **%s** (grade %s)\n\n", formatFloat(*q.OverallScore), q.Grade)
		} else {
			fmt.Fprintf(bw, "Not enough data to score (%s)\n\n", q.Status)
		}
		rows = rows[:0]
		for _, d := range q.Dimensions {
			rows = append(rows, []string{d.Name, formatFloat(d.Score), d.Status, d.Details})
		}
		if len(rows) > 0 {
			writeTable(bw, []string{"Dimension", "Score", "Status", "Details"}, rows)
		}
		for _, rec := range q.Recommendations {
			fmt.Fprintf(bw, "- %s\n", rec)
		}
	}

	if report.Anomalies != nil || len(report.Performance) > 0 {
		bw.WriteString("\n## Anomalies\n\n")
		if report.Anomalies != nil {
			list := report.Anomalies.Anomalies
			fmt.Fprintf(bw, "%d statistical anomalies", len(list))
			if len(list) > MarkdownTopN {
				fmt.Fprintf(bw, ", showing the %d most severe", MarkdownTopN)
				list = list[:MarkdownTopN]
			}
			bw.WriteString("\n\n")
			rows = rows[:0]
			for _, a := range list {
				rows = append(rows, []string{
					string(a.Severity), a.Metric, a.Campaign, a.Date.String(), formatFloat(a.Value),
					strings.Join(a.Methods, ", "),
				})
			}
			if len(rows) > 0 {
				writeTable(bw, []string{"Severity", "Metric", "Campaign", "Date", "Value", "Methods"}, rows)
				bw.WriteString("\n")
			}
		}
		if len(report.Performance) > 0 {
			rows = rows[:0]
			for _, p := range report.Performance {
				rows = append(rows, []string{p.Kind, string(p.Severity), p.Campaign, p.Date.String(), p.Message})
			}
			writeTable(bw, []string{"Alert", "Severity", "Campaign", "Date", "Message"}, rows)
		}
	}

	if in := report.Insights; in != nil {
		bw.WriteString("\n## Insights\n\n")
		for _, i := range in.Insights {
			fmt.Fprintf(bw, "- **%s** %s\n", i.Type, i.Message)
		}
		if len(in.Recommendations) > 0 {
			bw.WriteString("\n### Recommendations\n\n")
			for _, rec := range in.Recommendations {
				fmt.Fprintf(bw, "- [%s] %s: %s\n", rec.Priority, rec.Action, rec.ExpectedImpact)
			}
		}
		if in.Answer != "" {
			fmt.Fprintf(bw, "\n> %s\n", in.Answer)
		}
	}

	return bw.Flush()
}

// writeTable writes an aligned Markdown table. Widths are measured in display columns so that
// wide characters in campaign names keep the pipes aligned.
func writeTable(w io.StringWriter, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = max(3, runewidth.StringWidth(h))
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], runewidth.StringWidth(escapeCell(row[i])))
		}
	}

	line := func(cells []string) {
		var sb strings.Builder
		sb.WriteString("|")
		for i := range widths {
			content := ""
			if i < len(cells) {
				content = escapeCell(cells[i])
			}
			sb.WriteString(" ")
			sb.WriteString(runewidth.FillRight(content, widths[i]))
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
		w.WriteString(sb.String())
	}

	line(headers)
	sep := make([]string, len(widths))
	for i, n := range widths {
		sep[i] = strings.Repeat("-", n)
	}
	line(sep)
	for _, row := range rows {
		line(row)
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func topBySpend(groups []aggregate.Group, n int) []aggregate.Group {
	out := append([]aggregate.Group(nil), groups...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Spend > out[j].Spend })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
