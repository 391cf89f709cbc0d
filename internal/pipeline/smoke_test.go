package pipeline

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"compensa/internal"
	"compensa/internal/api"
	"compensa/internal/config"
	"compensa/internal/storage"
)

func TestSmokeImportSubmitExport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/municipios":
			_, _ = io.WriteString(w, `["Avaré","Botucatu"]`)
		case "/api/compensacao/lote":
			_, _ = io.WriteString(w, `{"processed_items":[
				{"compensacao_por_arvore":2,"compensacao_total_item":10},
				{"compensacao_por_arvore":3,"compensacao_total_item":3}],
				"total_compensation":13}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "compensa.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	cfg, _ := config.Load()
	cfg.APIBaseURL = srv.URL
	cfg.APIRateLimit = 1000
	logger := zaptest.NewLogger(t)
	ws := NewWorkspace(db, api.NewClient(cfg, logger), cfg, logger)
	ctx := context.Background()

	input := filepath.Join(tmp, "lote.yaml")
	doc := "domain: isolated\nitems:\n  - {quantidade: 5, group: native, municipality: avare}\n  - {quantidade: 1, group: exotic, municipality: BOTUCATU}\n  - {quantidade: 1, group: native, municipality: Lins}\n"
	if err := os.WriteFile(input, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	batch, err := ReadImportFile(input)
	if err != nil {
		t.Fatal(err)
	}

	p, err := ws.Panel(ctx, internal.DomainIsolated, true)
	if err != nil {
		t.Fatal(err)
	}
	report, err := p.Import(batch)
	if err != nil {
		t.Fatal(err)
	}
	if report.Added != 2 || len(report.Rejected) != 1 {
		t.Fatalf("report=%+v", report)
	}
	if err := p.Save(); err != nil {
		t.Fatal(err)
	}

	// A later command sees the saved rows with canonical names.
	p, err = ws.Panel(ctx, internal.DomainIsolated, true)
	if err != nil {
		t.Fatal(err)
	}
	items := p.Collector().Items()
	if len(items) != 2 || items[0].Municipality != "Avaré" || items[1].Municipality != "Botucatu" {
		t.Fatalf("items=%+v", items)
	}

	out := p.Submit(ctx)
	if out.Err != nil || out.StoreErr != nil {
		t.Fatalf("outcome=%+v", out)
	}

	xlsx := filepath.Join(tmp, "out", "lote.xlsx")
	if err := ws.Export(ctx, internal.DomainIsolated, xlsx); err != nil {
		t.Fatal(err)
	}
	again, err := ReadImportFile(xlsx)
	if err != nil {
		t.Fatal(err)
	}
	if again.Domain != internal.DomainIsolated || len(again.Rows) != 2 {
		t.Fatalf("reimport=%+v", again)
	}

	html := filepath.Join(tmp, "out", "lote.html")
	if err := ws.Export(ctx, internal.DomainIsolated, html); err != nil {
		t.Fatal(err)
	}
	blob, err := os.ReadFile(html)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(blob), "Compensação total do lote: 13") {
		t.Fatalf("html missing total")
	}

	runs, err := ws.History(internal.DomainIsolated, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != internal.RunOK || runs[0].Applied != 2 {
		t.Fatalf("runs=%+v", runs)
	}
}
