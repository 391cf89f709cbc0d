package pipeline

import (
	"fmt"

	"go.uber.org/zap"
)

type RowError struct {
	Line   int
	Source string
	Err    error
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s line %d: %v", e.Source, e.Line, e.Err)
}

type ImportReport struct {
	Added    int
	Rejected []RowError
}

// Import validates and appends rows in file order. Rejected rows are
// reported and skipped; the rest are kept.
func (p *Panel) Import(batch ImportBatch) (ImportReport, error) {
	if batch.Domain != "" && batch.Domain != p.domain {
		return ImportReport{}, fmt.Errorf("file holds %s rows, not %s", batch.Domain, p.domain)
	}

	var report ImportReport
	for _, row := range batch.Rows {
		if _, err := p.items.Add(row.Fields); err != nil {
			report.Rejected = append(report.Rejected, RowError{Line: row.Line, Source: row.Source, Err: err})
			continue
		}
		report.Added++
	}
	p.log.Info("rows imported", zap.Int("added", report.Added), zap.Int("rejected", len(report.Rejected)))
	return report, nil
}
