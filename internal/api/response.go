package api

import (
	"encoding/json"
	"strconv"
	"strings"

	"compensa/internal"
)

// responseSchema lists, per concept, every key spelling the backend has used.
// The first key holding a usable value wins: a non-null array for results and
// unmatched items, a number (or numeric string) for the total.
type responseSchema struct {
	results   []string
	total     []string
	unmatched []string
	unitKey   string
	totalKey  string
}

var schemas = map[internal.Domain]responseSchema{
	internal.DomainIsolated: {
		results:   []string{"processed_items", "processed items", "itens_processados", "patches_processados", "processed_patches", "apps_processados", "processed_apps"},
		total:     []string{"total_compensation", "total compensation", "total_compensacao_geral", "total_compensacao_lote", "total"},
		unmatched: []string{"items_without_compensation", "items without compensation", "itens_sem_regra"},
		unitKey:   "compensacao_por_arvore",
		totalKey:  "compensacao_total_item",
	},
	internal.DomainPatch: {
		results:   []string{"patches_processados", "processed_patches", "processed items", "itens_processados", "processed_items", "apps_processados", "processed_apps"},
		total:     []string{"total_compensacao_geral", "total_compensation", "total compensation", "total_compensacao_lote", "total"},
		unmatched: []string{"items_without_compensation", "items without compensation", "itens_sem_regra", "patches_sem_regra", "patches_without_compensation"},
		unitKey:   "compensacao_por_m2",
		totalKey:  "compensacao_total_patch",
	},
	internal.DomainApp: {
		results:   []string{"apps_processados", "processed_apps", "processed items", "itens_processados", "processed_items", "patches_processados", "processed_patches"},
		total:     []string{"total_compensacao_geral", "total_compensation", "total compensation", "total_compensacao_lote", "total"},
		unmatched: []string{"items_without_compensation", "items without compensation", "itens_sem_regra", "apps_sem_regra", "apps_without_compensation"},
		unitKey:   "compensacao_por_unidade",
		totalKey:  "compensacao_total_app",
	},
}

// Normalize maps a decoded response of any known shape onto BatchResult.
// Result entries that are not objects are kept as empty results so that
// positions stay aligned.
func Normalize(domain internal.Domain, doc map[string]any) internal.BatchResult {
	schema, ok := schemas[domain]
	if !ok {
		schema = schemas[internal.DomainIsolated]
	}

	out := internal.BatchResult{}
	if arr, ok := firstPresent(doc, schema.results).([]any); ok {
		out.Results = make([]internal.ItemResult, 0, len(arr))
		for _, entry := range arr {
			m, _ := entry.(map[string]any)
			out.Results = append(out.Results, internal.ItemResult{
				Unit:  toFloatPtr(m[schema.unitKey]),
				Total: toFloatPtr(m[schema.totalKey]),
				Raw:   m,
			})
		}
	}

	for _, key := range schema.total {
		if v := toFloatPtr(doc[key]); v != nil {
			out.Total = *v
			break
		}
	}

	if arr, ok := firstPresent(doc, schema.unmatched).([]any); ok {
		out.Unmatched = make([]internal.UnmatchedItem, 0, len(arr))
		for _, entry := range arr {
			out.Unmatched = append(out.Unmatched, toUnmatched(entry))
		}
	}

	return out
}

func firstPresent(doc map[string]any, keys []string) any {
	for _, key := range keys {
		if v, ok := doc[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func toUnmatched(entry any) internal.UnmatchedItem {
	m, ok := entry.(map[string]any)
	if !ok {
		return internal.UnmatchedItem{}
	}
	u := internal.UnmatchedItem{}
	if idx, ok := toInt(m["index"]); ok {
		u.Index = &idx
	}
	for _, key := range []string{"motivo", "reason", "message"} {
		if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
			u.Reason = strings.TrimSpace(s)
			break
		}
	}
	for _, key := range []string{"item", "Filters used:", "filters"} {
		if item, ok := m[key].(map[string]any); ok {
			u.Item = item
			break
		}
	}
	return u
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case json.Number:
		i, err := t.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}

func toFloatPtr(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case int:
		f := float64(t)
		return &f
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return &f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return &f
		}
	}
	return nil
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}
