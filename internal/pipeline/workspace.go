package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"compensa/internal"
	"compensa/internal/api"
	"compensa/internal/catalog"
	"compensa/internal/config"
	"compensa/internal/logging"
	"compensa/internal/render"
	"compensa/internal/storage"
)

// Workspace opens panels backed by the local database, so rows entered by
// one command are there for the next.
type Workspace struct {
	db      *storage.DB
	client  *api.Client
	catalog *catalog.SyncService
	cfg     config.Config
	log     *zap.Logger
}

func NewWorkspace(db *storage.DB, client *api.Client, cfg config.Config, logger *zap.Logger) *Workspace {
	logger = logging.OrNop(logger)
	return &Workspace{
		db:      db,
		client:  client,
		catalog: catalog.NewSyncService(db, client, cfg, logger),
		cfg:     cfg,
		log:     logger,
	}
}

func (w *Workspace) Catalog() *catalog.SyncService {
	return w.catalog
}

// Panel restores the saved rows of a domain. With withOptions the
// municipality list is installed too; a list that cannot be loaded leaves
// its message on the panel's error line rather than failing.
func (w *Workspace) Panel(ctx context.Context, domain internal.Domain, withOptions bool) (*Panel, error) {
	p := NewPanel(domain, w.client, w.db, w.log)
	if err := p.Load(); err != nil {
		return nil, fmt.Errorf("load %s rows: %w", domain, err)
	}
	if withOptions {
		_ = p.LoadOptions(ctx, w.catalog, false)
	}
	return p, nil
}

func (w *Workspace) History(domain internal.Domain, limit int) ([]internal.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return w.db.ListRuns(domain, limit)
}

// LastTotal is the total of the most recent successful submission, or nil.
func (w *Workspace) LastTotal(domain internal.Domain) (*float64, error) {
	runs, err := w.db.ListRuns(domain, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	if runs[0].Status != internal.RunOK && runs[0].Status != internal.RunPartial {
		return nil, nil
	}
	return runs[0].Total, nil
}

// Export writes the saved table of a domain to path, as xlsx or HTML
// depending on the extension.
func (w *Workspace) Export(ctx context.Context, domain internal.Domain, path string) error {
	total, err := w.LastTotal(domain)
	if err != nil {
		return err
	}

	switch format, _ := FormatFromPath(path); format {
	case FormatXLSX:
		rows, err := w.db.GetExportRows(domain)
		if err != nil {
			return err
		}
		return ExportRowsToXLSX(domain, rows, total, path)
	case FormatHTML:
		p, err := w.Panel(ctx, domain, true)
		if err != nil {
			return err
		}
		var options []api.Option
		if names := p.Collector().Options(); len(names) > 0 {
			options = api.Options(names)
		}
		var status render.StatusArea
		if total != nil {
			status.Total = render.TotalLine(domain, *total)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return render.HTML(f, domain, p.Rows(), status, options)
	default:
		return fmt.Errorf("unsupported export file: %s", path)
	}
}

func (w *Workspace) Species(ctx context.Context, family, specie string) ([]internal.SpeciesStatus, error) {
	return w.client.SpeciesStatus(ctx, family, specie)
}
