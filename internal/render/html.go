package render

import (
	"html/template"
	"io"

	"compensa/internal"
	"compensa/internal/api"
	"compensa/internal/collector"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Options}}<select name="municipality">{{range .Options}}<option value="{{.Value}}">{{.Label}}</option>{{end}}</select>{{end}}
<table id="{{.TableID}}">
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr data-id="{{.ID}}">{{range .Cells}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
<p class="total">{{.Status.Total}}</p>
<p class="error">{{.Status.Error}}</p>
</body>
</html>
`))

var tableIDs = map[internal.Domain]string{
	internal.DomainIsolated: "myTable",
	internal.DomainPatch:    "patchTable",
	internal.DomainApp:      "appTable",
}

var titles = map[internal.Domain]string{
	internal.DomainIsolated: "Árvores isoladas",
	internal.DomainPatch:    "Fragmentos (patches)",
	internal.DomainApp:      "Áreas de preservação permanente (APP)",
}

type pageData struct {
	Title   string
	TableID string
	Headers []string
	Rows    []collector.Row
	Status  StatusArea
	Options []api.Option
}

// HTML writes a standalone page with the domain table and its status lines.
// The markup can be read back by the HTML importer.
func HTML(w io.Writer, domain internal.Domain, rows []collector.Row, status StatusArea, options []api.Option) error {
	return pageTemplate.Execute(w, pageData{
		Title:   titles[domain],
		TableID: tableIDs[domain],
		Headers: collector.Headers(domain),
		Rows:    rows,
		Status:  status,
		Options: options,
	})
}
