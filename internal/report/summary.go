// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/pdiddy/citecheck/internal/run"
	"github.com/pdiddy/citecheck/pkg/types"
)

// statusOrder fixes the row order of the counts table.
var statusOrder = []types.Status{
	types.StatusVerified,
	types.StatusMissingInBib,
	types.StatusNotFound,
	types.StatusTitleMismatch,
	types.StatusAuthorMismatch,
}

// maxCellWidth truncates long titles so the table fits a terminal.
const maxCellWidth = 48

// Summary writes the issues table (when there are issues) followed by the
// per-status counts.
func Summary(w io.Writer, res *run.Result) {
	if res.HasIssues() {
		IssuesTable(w, res.Issues)
	}

	counts := res.Counts()
	rows := make([][]string, 0, len(statusOrder)+1)
	for _, s := range statusOrder {
		rows = append(rows, []string{string(s), fmt.Sprint(counts[s])})
	}
	rows = append(rows, []string{"Total", fmt.Sprint(len(res.Outcomes))})
	fmt.Fprintln(w, renderTable(
		[]string{"Status", "Count"},
		rows,
		[]text.Align{text.AlignLeft, text.AlignRight},
	))
}

// IssuesTable renders one row per issue.
func IssuesTable(w io.Writer, issues []types.Issue) {
	rows := make([][]string, 0, len(issues))
	for _, is := range issues {
		rows = append(rows, []string{
			is.Key,
			string(is.Status),
			string(is.Risk),
			formatScore(is.SimilarityScore),
			truncate(detail(is), maxCellWidth),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Key", "Status", "Risk", "Score", "Detail"},
		rows,
		[]text.Align{text.AlignLeft, text.AlignLeft, text.AlignLeft, text.AlignRight, text.AlignLeft},
	))
}

// Banner writes the closing lines of a run: the issue count or the
// all-clear, then where the full report lives. color adds ANSI styling
// for terminals.
func Banner(w io.Writer, res *run.Result, paths Paths, color bool) {
	fmt.Fprintln(w, strings.Repeat("=", 50))
	var headline string
	style := text.Colors{text.FgGreen, text.Bold}
	if res.HasIssues() {
		headline = fmt.Sprintf("FOUND %d ISSUES. Check %s", len(res.Issues), paths.Issues)
		style = text.Colors{text.FgRed, text.Bold}
	} else {
		headline = "No hallucinations found."
	}
	if color {
		headline = style.Sprint(headline)
	}
	fmt.Fprintln(w, headline)
	fmt.Fprintf(w, "Full report saved to %s\n", paths.All)
}

// HistoryTable renders past runs, newest first.
func HistoryTable(w io.Writer, records []RunRecord) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.ID,
			r.Started.Local().Format("2006-01-02 15:04:05"),
			r.Finished.Sub(r.Started).Round(time.Millisecond).String(),
			fmt.Sprint(r.Total),
			fmt.Sprint(r.Issues),
			r.TexPath,
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Run", "Started", "Duration", "Keys", "Issues", "TeX"},
		rows,
		[]text.Align{text.AlignLeft, text.AlignLeft, text.AlignRight, text.AlignRight, text.AlignRight, text.AlignLeft},
	))
}

// detail picks the most informative text for an issue row.
func detail(is types.Issue) string {
	switch is.Status {
	case types.StatusTitleMismatch:
		return is.FoundTitle
	case types.StatusAuthorMismatch:
		return strings.Join(is.FoundAuthors, "; ")
	case types.StatusNotFound:
		return is.BibTitle
	default:
		return is.Reason
	}
}

func formatScore(score *float64) string {
	if score == nil {
		return ""
	}
	return fmt.Sprintf("%.1f", *score)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:max(n, 0)])
	}
	return string(r[:n-3]) + "..."
}

func renderTable(headers []string, rows [][]string, aligns []text.Align) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if i < len(aligns) {
			align = aligns[i]
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
