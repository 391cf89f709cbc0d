package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"compensa/internal"
	"compensa/internal/collector"
)

// ExportRowsToXLSX writes the result table of one domain. The header row
// uses the same labels as the screen table so the file can be imported
// again. A non-nil total adds a closing total row.
func ExportRowsToXLSX(domain internal.Domain, rows []internal.ExportRow, total *float64, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := exportHeaders(domain)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		values := []any{row.Position}
		switch domain {
		case internal.DomainPatch:
			values = append(values, row.Municipality, derefFloat(row.AreaM2))
		case internal.DomainApp:
			values = append(values, row.Municipality, derefFloat(row.Quantity))
		default:
			values = append(values, derefFloat(row.Quantity), row.Group, row.Municipality, yesNo(row.Endangered))
		}
		values = append(values, derefFloat(row.Unit), derefFloat(row.Total))
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	if total != nil {
		r := len(rows) + 3
		label, _ := excelize.CoordinatesToCellName(len(headers)-1, r)
		value, _ := excelize.CoordinatesToCellName(len(headers), r)
		_ = f.SetCellValue(sheet, label, "Total")
		_ = f.SetCellValue(sheet, value, *total)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func exportHeaders(domain internal.Domain) []string {
	headers := append([]string{"#"}, collector.Headers(domain)...)
	if domain != internal.DomainIsolated && domain != "" {
		return headers
	}
	// Isolated rows carry the endangered flag ahead of the result columns.
	n := len(headers)
	out := append([]string{}, headers[:n-2]...)
	out = append(out, "Ameaçada")
	return append(out, headers[n-2:]...)
}

func derefFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func yesNo(v bool) string {
	if v {
		return "sim"
	}
	return "não"
}
