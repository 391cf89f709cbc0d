package internal

import (
	"fmt"
	"strings"
)

type Domain string

const (
	DomainIsolated Domain = "isolated"
	DomainPatch    Domain = "patch"
	DomainApp      Domain = "app"
)

var Domains = []Domain{DomainIsolated, DomainPatch, DomainApp}

func ParseDomain(value string) (Domain, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "isolated", "isoladas", "lote", "trees":
		return DomainIsolated, nil
	case "patch", "patches":
		return DomainPatch, nil
	case "app", "apps":
		return DomainApp, nil
	default:
		return "", fmt.Errorf("unsupported domain: %s", value)
	}
}

// ComputedResult holds the per-item values returned by the backend. A nil
// field was absent or null in the response and renders as an empty cell.
type ComputedResult struct {
	Unit  *float64 `json:"unit,omitempty"`
	Total *float64 `json:"total,omitempty"`
}

type LineItem struct {
	ID           string          `json:"id"`
	Domain       Domain          `json:"domain"`
	Quantity     float64         `json:"quantidade,omitempty"`
	Group        string          `json:"group,omitempty"`
	Municipality string          `json:"municipality"`
	Endangered   bool            `json:"endangered,omitempty"`
	AreaM2       float64         `json:"area_m2,omitempty"`
	Result       *ComputedResult `json:"result,omitempty"`
}

// Payload returns the request-body representation of the item for its domain.
func (it LineItem) Payload() map[string]any {
	switch it.Domain {
	case DomainPatch:
		return map[string]any{"municipality": it.Municipality, "area_m2": it.AreaM2}
	case DomainApp:
		return map[string]any{"municipality": it.Municipality, "quantidade": it.Quantity}
	default:
		return map[string]any{
			"quantidade":   it.Quantity,
			"group":        it.Group,
			"municipality": it.Municipality,
			"endangered":   it.Endangered,
		}
	}
}

type ItemResult struct {
	Unit  *float64
	Total *float64
	Raw   map[string]any
}

type UnmatchedItem struct {
	Index  *int
	Reason string
	Item   map[string]any
}

type BatchResult struct {
	Results   []ItemResult
	Total     float64
	Unmatched []UnmatchedItem
}

type SpeciesStatus struct {
	Family      string `json:"family"`
	Specie      string `json:"specie"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

type RunStatus string

const (
	RunOK       RunStatus = "ok"
	RunPartial  RunStatus = "partial"
	RunFailed   RunStatus = "failed"
	RunRejected RunStatus = "rejected"
	RunEmpty    RunStatus = "empty"
)

type RunRecord struct {
	ID        int
	TraceID   string
	Domain    Domain
	ItemCount int
	Applied   int
	Unmatched int
	Total     *float64
	Status    RunStatus
	Message   string
	Timings   map[string]float64
	CreatedAt string
}

type ExportRow struct {
	Position     int
	Domain       Domain
	Municipality string
	Group        string
	Endangered   bool
	Quantity     *float64
	AreaM2       *float64
	Unit         *float64
	Total        *float64
}
