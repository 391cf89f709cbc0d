package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"compensa/internal"
)

// The lookup has been published under two paths; the second is tried when
// the first is not routed.
var speciesPaths = []string{"/api/species-status", "/api/species/status"}

func (c *Client) SpeciesStatus(ctx context.Context, family, specie string) ([]internal.SpeciesStatus, error) {
	family = strings.TrimSpace(family)
	specie = strings.TrimSpace(specie)
	if family == "" && specie == "" {
		return nil, ErrEmptyQuery
	}
	params := map[string]string{"family": family, "specie": specie}

	var lastErr error
	for _, path := range speciesPaths {
		status, raw, err := c.do(ctx, http.MethodGet, path, params, nil)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNotFound || status == http.StatusMethodNotAllowed {
			lastErr = &HTTPError{Status: status, Message: serverMessage(raw)}
			c.log.Debug("species path not available", zap.String("path", path), zap.Int("status", status))
			continue
		}
		if status < 200 || status >= 300 {
			return nil, &HTTPError{Status: status, Message: serverMessage(raw)}
		}
		records, err := parseSpecies(raw)
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		return records, nil
	}
	return nil, lastErr
}

func parseSpecies(raw []byte) ([]internal.SpeciesStatus, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	var entries []any
	switch t := doc.(type) {
	case []any:
		entries = t
	case map[string]any:
		entries = []any{t}
	case nil:
		return nil, nil
	default:
		return nil, errors.New("unexpected species payload")
	}

	out := make([]internal.SpeciesStatus, 0, len(entries))
	for _, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		rec := internal.SpeciesStatus{
			Family: toString(m["family"]),
			Specie: toString(m["specie"]),
			Status: toString(m["status"]),
		}
		rec.Description = toString(m["description"])
		if rec.Description == "" {
			rec.Description = toString(m["descricao"])
		}
		out = append(out, rec)
	}
	return out, nil
}
