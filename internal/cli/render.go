package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/the-spice-must-talk/internal/analytics"
	"github.com/Veraticus/the-spice-must-talk/internal/model"
)

// RenderResult writes the response and, when showTrace is set, the
// thinking trace that led to it.
func RenderResult(w io.Writer, result *model.QueryResult, showTrace bool) error {
	var b strings.Builder
	if showTrace && len(result.Trace) > 0 {
		b.WriteString(SubtleStyle.Render("Thinking"))
		b.WriteString("\n")
		for _, step := range result.Trace {
			b.WriteString(FormatStep(step))
			b.WriteString("\n")
		}
	}

	if result.Intent == model.IntentError {
		b.WriteString(FormatError(result.Response))
	} else {
		b.WriteString(ResponseStyle.Render(result.Response))
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderExpenses writes a month's expenses as a table with its total.
func RenderExpenses(w io.Writer, month string, expenses []model.Expense) error {
	title := FormatTitle(analytics.MonthLabel(month))
	if len(expenses) == 0 {
		_, err := fmt.Fprintf(w, "%s\n%s\n", title, FormatInfo("No expenses recorded."))
		return err
	}

	indexCol := []string{TableHeaderStyle.Render("#")}
	dateCol := []string{TableHeaderStyle.Render("Date")}
	amountCol := []string{TableHeaderStyle.Render("Amount")}
	descCol := []string{TableHeaderStyle.Render("Description")}
	for i, x := range expenses {
		indexCol = append(indexCol, TableCellStyle.Render(fmt.Sprint(i+1)))
		dateCol = append(dateCol, TableCellStyle.Render(analytics.FormatDate(x.Date)))
		amountCol = append(amountCol, TableCellStyle.Align(lipgloss.Right).Render(analytics.FormatMoney(x.Amount)))
		descCol = append(descCol, TableCellStyle.Render(x.Description))
	}

	table := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.JoinVertical(lipgloss.Right, indexCol...),
		lipgloss.JoinVertical(lipgloss.Left, dateCol...),
		lipgloss.JoinVertical(lipgloss.Right, amountCol...),
		lipgloss.JoinVertical(lipgloss.Left, descCol...),
	)
	total := fmt.Sprintf("Total: %s across %d expenses", analytics.FormatMoney(analytics.Total(expenses)), len(expenses))

	_, err := fmt.Fprintf(w, "%s\n%s\n\n%s\n", title, table, SubtleStyle.Render(total))
	return err
}
