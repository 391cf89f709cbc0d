package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"compensa/internal"
	"compensa/internal/collector"
	"compensa/internal/util"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ImportRow is one row read from a file, still unvalidated.
type ImportRow struct {
	Line   int
	Source string
	Fields collector.RawFields
}

// ImportBatch is what a file yields. Domain is empty when the file does not
// say and the headers do not give it away.
type ImportBatch struct {
	Domain  internal.Domain
	Headers []string
	Rows    []ImportRow
}

func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".html", ".htm":
		return FormatHTML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported import file: %s", path)
	}
}

func ReadImportFile(path string) (ImportBatch, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return ImportBatch{}, err
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return ImportBatch{}, err
	}
	return ParseImport(format, blob)
}

func ParseImport(format Format, content []byte) (ImportBatch, error) {
	switch format {
	case FormatXLSX:
		return parseXLSX(content)
	case FormatHTML:
		return parseHTMLTable(string(content))
	case FormatYAML, FormatJSON:
		return parseDocument(content)
	default:
		return ImportBatch{}, fmt.Errorf("unsupported import format: %s", format)
	}
}

type columns struct {
	quantity, group, municipality, endangered, area int
}

var headerProbes = struct {
	quantity, group, municipality, endangered, area []string
}{
	quantity:     []string{"quantidade", "qtd", "quantity", "qty"},
	group:        []string{"grupo", "group"},
	municipality: []string{"municipio", "municipality", "cidade"},
	endangered:   []string{"ameacad", "endangered"},
	area:         []string{"area"},
}

func inferColumns(headers []string) (columns, bool) {
	norm := make([]string, 0, len(headers))
	for _, h := range headers {
		norm = append(norm, util.NormalizeName(h))
	}
	cols := columns{
		quantity:     findHeaderIndex(norm, headerProbes.quantity),
		group:        findHeaderIndex(norm, headerProbes.group),
		municipality: findHeaderIndex(norm, headerProbes.municipality),
		endangered:   findHeaderIndex(norm, headerProbes.endangered),
		area:         findHeaderIndex(norm, headerProbes.area),
	}
	return cols, cols.municipality >= 0
}

func (c columns) fields(cells []string) collector.RawFields {
	return collector.RawFields{
		Quantity:     pickCell(cells, c.quantity),
		Group:        pickCell(cells, c.group),
		Municipality: pickCell(cells, c.municipality),
		Endangered:   parseFlag(pickCell(cells, c.endangered)),
		Area:         pickCell(cells, c.area),
	}
}

func parseHTMLTable(html string) (ImportBatch, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ImportBatch{}, err
	}

	var (
		batch ImportBatch
		found bool
	)
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := table.Find("tr")
		if rows.Length() < 1 {
			return true
		}

		headers := []string{}
		rows.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, util.CollapseSpaces(cell.Text()))
		})
		cols, ok := inferColumns(headers)
		if !ok {
			return true
		}

		found = true
		batch.Headers = headers
		batch.Domain = tableDomains[table.AttrOr("id", "")]
		if batch.Domain == "" {
			batch.Domain = DetectDomain(headers)
		}
		rows.Slice(1, rows.Length()).Each(func(i int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, util.CollapseSpaces(cell.Text()))
			})
			if blank(cells) {
				return
			}
			batch.Rows = append(batch.Rows, ImportRow{
				Line:   i + 2,
				Source: "html",
				Fields: cols.fields(cells),
			})
		})
		return false
	})
	if !found {
		return ImportBatch{}, fmt.Errorf("no table with a municipality column")
	}
	return batch, nil
}

var tableDomains = map[string]internal.Domain{
	"myTable":    internal.DomainIsolated,
	"patchTable": internal.DomainPatch,
	"appTable":   internal.DomainApp,
}

func parseXLSX(content []byte) (ImportBatch, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return ImportBatch{}, err
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}

		// The header may sit below a title row or two.
		headerAt := -1
		var cols columns
		for i := 0; i < len(rows) && i < 3; i++ {
			if c, ok := inferColumns(normalizeCells(rows[i])); ok {
				headerAt, cols = i, c
				break
			}
		}
		if headerAt < 0 {
			continue
		}

		headers := normalizeCells(rows[headerAt])
		batch := ImportBatch{Headers: headers, Domain: DetectDomain(headers)}
		for i := headerAt + 1; i < len(rows); i++ {
			cells := normalizeCells(rows[i])
			if blank(cells) {
				// A blank row after data ends the table; a total row may follow.
				if len(batch.Rows) > 0 {
					break
				}
				continue
			}
			batch.Rows = append(batch.Rows, ImportRow{
				Line:   i + 1,
				Source: sheet,
				Fields: cols.fields(cells),
			})
		}
		return batch, nil
	}
	return ImportBatch{}, fmt.Errorf("no sheet with a municipality column")
}

type documentItem struct {
	Quantity     any    `yaml:"quantidade"`
	Group        string `yaml:"group"`
	Municipality string `yaml:"municipality"`
	Endangered   any    `yaml:"endangered"`
	Area         any    `yaml:"area_m2"`
}

type document struct {
	Domain  string         `yaml:"domain"`
	Items   []documentItem `yaml:"items"`
	Patches []documentItem `yaml:"patches"`
	Apps    []documentItem `yaml:"apps"`
}

// parseDocument reads YAML or JSON: a bare item list, {domain, items}, or a
// request body as the API receives it ({"patches": [...]} and so on). JSON is
// read through the YAML decoder.
func parseDocument(content []byte) (ImportBatch, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(content, &root); err != nil {
		return ImportBatch{}, err
	}
	if len(root.Content) == 0 {
		return ImportBatch{}, nil
	}

	var doc document
	node := root.Content[0]
	switch node.Kind {
	case yaml.SequenceNode:
		if err := node.Decode(&doc.Items); err != nil {
			return ImportBatch{}, err
		}
	case yaml.MappingNode:
		if err := node.Decode(&doc); err != nil {
			return ImportBatch{}, err
		}
	default:
		return ImportBatch{}, fmt.Errorf("expected a list or a mapping, got %s", node.ShortTag())
	}

	batch := ImportBatch{}
	switch {
	case len(doc.Patches) > 0:
		doc.Items, batch.Domain = doc.Patches, internal.DomainPatch
	case len(doc.Apps) > 0:
		doc.Items, batch.Domain = doc.Apps, internal.DomainApp
	}
	if strings.TrimSpace(doc.Domain) != "" {
		d, err := internal.ParseDomain(doc.Domain)
		if err != nil {
			return ImportBatch{}, err
		}
		batch.Domain = d
	}
	for i, it := range doc.Items {
		batch.Rows = append(batch.Rows, ImportRow{
			Line:   i + 1,
			Source: "document",
			Fields: collector.RawFields{
				Quantity:     scalarText(it.Quantity),
				Group:        it.Group,
				Municipality: it.Municipality,
				Endangered:   parseFlag(scalarText(it.Endangered)),
				Area:         scalarText(it.Area),
			},
		})
	}
	if batch.Domain == "" {
		batch.Domain = detectFromRows(batch.Rows)
	}
	return batch, nil
}

func detectFromRows(rows []ImportRow) internal.Domain {
	var hasArea, hasGroup bool
	for _, r := range rows {
		hasArea = hasArea || r.Fields.Area != ""
		hasGroup = hasGroup || r.Fields.Group != "" || r.Fields.Endangered
	}
	switch {
	case hasArea && !hasGroup:
		return internal.DomainPatch
	case hasGroup && !hasArea:
		return internal.DomainIsolated
	default:
		return ""
	}
}

func scalarText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func parseFlag(v string) bool {
	switch util.NormalizeName(v) {
	case "1", "true", "sim", "s", "yes", "y", "x":
		return true
	default:
		return false
	}
}

func findHeaderIndex(headers []string, probes []string) int {
	for i, h := range headers {
		for _, probe := range probes {
			if strings.Contains(h, probe) {
				return i
			}
		}
	}
	return -1
}

func pickCell(cells []string, idx int) string {
	if idx >= 0 && idx < len(cells) {
		return strings.TrimSpace(cells[idx])
	}
	return ""
}

func normalizeCells(row []string) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		out = append(out, util.CollapseSpaces(c))
	}
	return out
}

func blank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
