package pipeline

import (
	"bytes"
	"testing"

	"compensa/internal"
	"compensa/internal/collector"
	"compensa/internal/render"
)

func TestParseHTMLTable(t *testing.T) {
	html := `<p>intro</p><table><tr><th>Município</th><th>Área (m²)</th></tr>
<tr><td> Avaré </td><td>1.250,5</td></tr><tr><td></td><td></td></tr></table>`
	batch, err := parseHTMLTable(html)
	if err != nil {
		t.Fatal(err)
	}
	if batch.Domain != internal.DomainPatch {
		t.Fatalf("domain=%q", batch.Domain)
	}
	if len(batch.Rows) != 1 {
		t.Fatalf("len=%d", len(batch.Rows))
	}
	if got := batch.Rows[0].Fields; got.Municipality != "Avaré" || got.Area != "1.250,5" {
		t.Fatalf("fields=%+v", got)
	}
}

func TestRenderedHTMLImportsAgain(t *testing.T) {
	c := collector.New(internal.DomainApp)
	if _, err := c.Add(collector.RawFields{Quantity: "4", Municipality: "Avaré"}); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := render.HTML(&buf, internal.DomainApp, c.Rows(), render.StatusArea{}, nil); err != nil {
		t.Fatal(err)
	}

	batch, err := ParseImport(FormatHTML, buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if batch.Domain != internal.DomainApp {
		t.Fatalf("domain=%q", batch.Domain)
	}
	if len(batch.Rows) != 1 || batch.Rows[0].Fields.Quantity != "4" {
		t.Fatalf("rows=%+v", batch.Rows)
	}
}

func TestParseHTMLWithoutTable(t *testing.T) {
	if _, err := parseHTMLTable("<p>nothing</p>"); err == nil {
		t.Fatal("expected error")
	}
}
