package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"

	"clipharvest/internal/history"
	"clipharvest/internal/media"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// maxURLWidth truncates long asset URLs in table cells.
const maxURLWidth = 72

var (
	countStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func renderAssets(rs *media.ResultSet) string {
	headers := []string{"#", "Quality", "Resolution", "Format", "Content", "Size", "URL"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}

	rows := make([][]string, 0, rs.Len())
	for i, a := range rs.Assets {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			a.Quality,
			a.Resolution,
			a.Format,
			a.ContentType.Description,
			a.EstimatedSize,
			truncate(a.URL, maxURLWidth),
		})
	}
	return renderTable(headers, rows, aligns)
}

func renderHistory(entries []history.Entry) string {
	headers := []string{"ID", "When", "Source", "Input", "Found", "Returned", "Took", "Top URL"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			shortID(e.ID),
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.Source,
			strconv.Itoa(e.InputBytes),
			strconv.Itoa(e.TotalFound),
			strconv.Itoa(e.Returned),
			fmt.Sprintf("%dms", e.DurationMS),
			truncate(e.TopURL, maxURLWidth),
		})
	}
	return renderTable(headers, rows, aligns)
}

// summaryLine describes a result set in one line, styled for terminals.
func summaryLine(rs *media.ResultSet, styled bool) string {
	if rs.Len() == 0 {
		msg := "No matching videos found"
		if styled {
			return emptyStyle.Render(msg)
		}
		return msg
	}

	count := fmt.Sprintf("Found %d video(s)", rs.Len())
	detail := fmt.Sprintf("(%d accepted, %d filtered)", rs.TotalFound, rs.Filtered())
	if styled {
		return countStyle.Render(count) + " " + dimStyle.Render(detail)
	}
	return count + " " + detail
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
