package collector

import (
	"compensa/internal"
	"compensa/internal/util"
)

// Row is one line of the derived display table.
type Row struct {
	Position int
	ID       string
	Cells    []string
}

// Headers lists the table columns for a domain; the last two always hold
// the unit and total compensation.
func Headers(domain internal.Domain) []string {
	switch domain {
	case internal.DomainPatch:
		return []string{"Município", "Área (m²)", "Compensação por m²", "Compensação total"}
	case internal.DomainApp:
		return []string{"Município", "Quantidade", "Compensação por unidade", "Compensação total"}
	default:
		return []string{"Quantidade", "Grupo", "Município", "Compensação por árvore", "Compensação total"}
	}
}

// Cells renders one item as table cells. Missing results are empty strings.
func Cells(item internal.LineItem) []string {
	var unit, total string
	if item.Result != nil {
		unit = util.FormatOptional(item.Result.Unit)
		total = util.FormatOptional(item.Result.Total)
	}

	switch item.Domain {
	case internal.DomainPatch:
		return []string{item.Municipality, util.FormatNumber(item.AreaM2), unit, total}
	case internal.DomainApp:
		return []string{item.Municipality, util.FormatNumber(item.Quantity), unit, total}
	default:
		return []string{util.FormatNumber(item.Quantity), item.Group, item.Municipality, unit, total}
	}
}

// Rows derives the display table from the current list. Position is 1-based.
func (c *Collector) Rows() []Row {
	items := c.Items()
	rows := make([]Row, 0, len(items))
	for i, item := range items {
		rows = append(rows, Row{Position: i + 1, ID: item.ID, Cells: Cells(item)})
	}
	return rows
}
