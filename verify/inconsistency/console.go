package inconsistency

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/cockroachdb/tablecmp/csvtable"
)

var (
	consoleTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#7D56F4")).
				Bold(true).
				Underline(true)
	consoleHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFAA00")).
				Bold(true).
				Padding(0, 1)
	consoleCellStyle = lipgloss.NewStyle().Padding(0, 1)
	consoleOKStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	consoleFailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	consoleInfoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// ConsoleReporter renders a table of mismatching cells followed by the check
// outcomes for each pair once the pair completes.
type ConsoleReporter struct {
	mu      sync.Mutex
	w       io.Writer
	maxRows int
	cells   map[csvtable.Name][]MismatchingCell
}

var _ Reporter = (*ConsoleReporter)(nil)

// NewConsoleReporter returns a reporter writing to w. At most maxRows
// mismatching cells are printed per pair; maxRows <= 0 prints all of them.
func NewConsoleReporter(w io.Writer, maxRows int) *ConsoleReporter {
	return &ConsoleReporter{
		w:       w,
		maxRows: maxRows,
		cells:   make(map[csvtable.Name][]MismatchingCell),
	}
}

func (c *ConsoleReporter) Report(obj ReportableObject) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch obj := obj.(type) {
	case MismatchingCell:
		c.cells[obj.Name] = append(c.cells[obj.Name], obj)
	case PairSummary:
		cells := c.cells[obj.Name]
		delete(c.cells, obj.Name)
		_, _ = fmt.Fprintln(c.w, c.render(obj, cells))
	case PairFailure:
		delete(c.cells, obj.Name)
		_, _ = fmt.Fprintln(
			c.w,
			consoleFailStyle.Render(fmt.Sprintf("%s: %s: %v", obj.Name, obj.Kind, obj.Err)),
		)
	}
}

func (c *ConsoleReporter) render(summary PairSummary, cells []MismatchingCell) string {
	var sb strings.Builder
	sb.WriteString(consoleTitleStyle.Render(string(summary.Name)))
	sb.WriteString("\n")

	if len(cells) == 0 {
		sb.WriteString(consoleInfoStyle.Render("no mismatching values"))
		sb.WriteString("\n")
	} else {
		shown := cells
		if c.maxRows > 0 && len(shown) > c.maxRows {
			shown = shown[:c.maxRows]
		}
		rows := make([][]string, len(shown))
		for i, cell := range shown {
			rows[i] = []string{
				csvtable.FormatDatum(cell.Key),
				cell.Column,
				csvtable.FormatDatum(cell.SourceVal),
				csvtable.FormatDatum(cell.ComparisonVal),
				string(cell.Issue),
			}
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("Primary Key", "Column", "Source Value", "Comparison Value", "Issue").
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == 0 {
					return consoleHeaderStyle
				}
				return consoleCellStyle
			})
		sb.WriteString(t.String())
		sb.WriteString("\n")
		if len(shown) < len(cells) {
			sb.WriteString(consoleInfoStyle.Render(
				fmt.Sprintf("... %d more mismatching values", len(cells)-len(shown)),
			))
			sb.WriteString("\n")
		}
	}

	for _, check := range summary.Checks {
		style := consoleOKStyle
		if !check.OK {
			style = consoleFailStyle
		}
		sb.WriteString(style.Render(fmt.Sprintf("%s: %t", check.Name, check.OK)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (c *ConsoleReporter) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cells = make(map[csvtable.Name][]MismatchingCell)
}
