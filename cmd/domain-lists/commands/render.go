package commands

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/terra-clan/domain-lists/internal/models"
	"github.com/terra-clan/domain-lists/internal/view"
)

var (
	borderColor = lipgloss.Color("#2a3850")
	errorColor  = lipgloss.Color("#e53935")

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
)

// renderView draws a view for the terminal: the table, or the empty or error
// message, followed by the pagination controls
func renderView(v models.View) string {
	var b strings.Builder

	switch v.State {
	case models.ViewError:
		b.WriteString(errorStyle.Render(v.Message))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(view.RetryHint))
		b.WriteString("\n")
		return b.String()
	case models.ViewEmpty:
		b.WriteString(mutedStyle.Render(v.Message))
		b.WriteString("\n")
		return b.String()
	}

	rows := make([][]string, 0, len(v.Rows))
	for _, r := range v.Rows {
		rows = append(rows, r.Cells())
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(v.Columns...).
		Rows(rows...)

	b.WriteString(t.Render())
	b.WriteString("\n")

	if line := renderPagination(v.Pagination); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// renderPagination renders controls like "< Prev  1 ... 4 5 [6] 7 8 ... 42  Next >".
func renderPagination(p models.PaginationModel) string {
	if p.IsEmpty() {
		return ""
	}

	parts := make([]string, 0, len(p.Items)+2)
	if p.Prev > 0 {
		parts = append(parts, "< Prev ")
	}
	for _, item := range p.Items {
		if !item.Ellipsis && item.Page == p.Current {
			parts = append(parts, "["+item.String()+"]")
			continue
		}
		parts = append(parts, item.String())
	}
	if p.Next > 0 {
		parts = append(parts, " Next >")
	}
	return strings.Join(parts, " ")
}
