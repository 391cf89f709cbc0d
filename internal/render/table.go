package render

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"compensa/internal"
	"compensa/internal/collector"
	"compensa/internal/util"
)

var (
	accent      = lipgloss.Color("#8BC34A")
	destructive = lipgloss.Color("#e53935")
	warning     = lipgloss.Color("#FFC107")

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(accent)
	errorStyle  = lipgloss.NewStyle().Foreground(destructive)
	totalStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	warnStyle   = lipgloss.NewStyle().Foreground(warning)
)

// Terminal renders tables and messages for a terminal. With Color off the
// output carries no styling at all.
type Terminal struct {
	Color bool
}

// Rows renders a domain table with a leading position column, the handle
// used by the remove command.
func (t Terminal) Rows(domain internal.Domain, rows []collector.Row) string {
	headers := append([]string{"#"}, collector.Headers(domain)...)
	body := make([][]string, 0, len(rows))
	for _, row := range rows {
		body = append(body, append([]string{strconv.Itoa(row.Position)}, row.Cells...))
	}
	numeric := numericColumns(domain)
	return t.table(headers, body, func(col int) bool { return col == 0 || numeric[col-1] })
}

// Species renders lookup records; blank fields show as "-".
func (t Terminal) Species(records []internal.SpeciesStatus) string {
	body := make([][]string, 0, len(records))
	for _, r := range records {
		body = append(body, []string{dash(r.Family), dash(r.Specie), dash(r.Status), dash(r.Description)})
	}
	return t.table([]string{"Família", "Espécie", "Status", "Descrição"}, body, func(int) bool { return false })
}

func (t Terminal) Runs(runs []internal.RunRecord) string {
	body := make([][]string, 0, len(runs))
	for _, r := range runs {
		total := ""
		if r.Total != nil {
			total = util.FormatNumber(*r.Total)
		}
		body = append(body, []string{
			r.CreatedAt, string(r.Status), strconv.Itoa(r.ItemCount), strconv.Itoa(r.Applied),
			strconv.Itoa(r.Unmatched), total, r.Message,
		})
	}
	numeric := map[int]bool{2: true, 3: true, 4: true, 5: true}
	return t.table([]string{"Quando", "Status", "Itens", "Aplicados", "Sem regra", "Total", "Mensagem"}, body, func(col int) bool { return numeric[col] })
}

// Status renders the two message slots, skipping empty ones.
func (t Terminal) Status(s StatusArea) string {
	out := ""
	if s.Total != "" {
		out += t.style(totalStyle, s.Total) + "\n"
	}
	if s.Error != "" {
		out += t.style(errorStyle, s.Error) + "\n"
	}
	return out
}

func (t Terminal) Warn(msg string) string {
	return t.style(warnStyle, msg)
}

func (t Terminal) table(headers []string, body [][]string, numeric func(col int) bool) string {
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(body...)
	if t.Color {
		tbl = tbl.BorderStyle(borderStyle)
	}
	tbl = tbl.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if numeric(col) {
			return numberStyle
		}
		return cellStyle
	})
	return tbl.String()
}

func (t Terminal) style(s lipgloss.Style, text string) string {
	if !t.Color {
		return text
	}
	return s.Render(text)
}

func numericColumns(domain internal.Domain) map[int]bool {
	switch domain {
	case internal.DomainIsolated:
		return map[int]bool{0: true, 3: true, 4: true}
	default:
		return map[int]bool{1: true, 2: true, 3: true}
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
