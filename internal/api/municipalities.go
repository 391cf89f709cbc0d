package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"compensa/internal"
)

const (
	PathMunicipalities    = "/api/municipios"
	PathAppMunicipalities = "/api/app_municipios"

	PlaceholderLabel = "Selecione o município"
)

// Option is one entry of a municipality selection control.
type Option struct {
	Value string
	Label string
}

// MunicipalityLists carries both lists; a failed fetch leaves its list nil
// and its error set without affecting the other.
type MunicipalityLists struct {
	General    []string
	App        []string
	GeneralErr error
	AppErr     error
}

// For returns the list and error that feed the given domain's control.
func (l MunicipalityLists) For(domain internal.Domain) ([]string, error) {
	if domain == internal.DomainApp {
		return l.App, l.AppErr
	}
	return l.General, l.GeneralErr
}

// MunicipalityPath is the endpoint listing valid names for a domain. Trees
// and patches share the general list.
func MunicipalityPath(domain internal.Domain) string {
	if domain == internal.DomainApp {
		return PathAppMunicipalities
	}
	return PathMunicipalities
}

func (c *Client) Municipalities(ctx context.Context, path string) ([]string, error) {
	status, raw, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &HTTPError{Status: status, Message: serverMessage(raw)}
	}
	names, err := ParseMunicipalities(raw)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	c.log.Debug("municipalities loaded", zap.String("path", path), zap.Int("count", len(names)))
	return names, nil
}

// LoadMunicipalities fetches the general and APP lists concurrently.
func (c *Client) LoadMunicipalities(ctx context.Context) MunicipalityLists {
	var (
		g   errgroup.Group
		out MunicipalityLists
	)
	g.Go(func() error {
		out.General, out.GeneralErr = c.Municipalities(ctx, PathMunicipalities)
		return nil
	})
	g.Go(func() error {
		out.App, out.AppErr = c.Municipalities(ctx, PathAppMunicipalities)
		return nil
	})
	_ = g.Wait()

	if out.GeneralErr != nil {
		c.log.Warn("municipality list unavailable", zap.String("path", PathMunicipalities), zap.Error(out.GeneralErr))
	}
	if out.AppErr != nil {
		c.log.Warn("municipality list unavailable", zap.String("path", PathAppMunicipalities), zap.Error(out.AppErr))
	}
	return out
}

// ParseMunicipalities accepts a bare array, {"municipios": [...]} or
// {"municipalities": [...]}. Blank and non-string entries are skipped.
func ParseMunicipalities(raw []byte) ([]string, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	var arr []any
	switch t := doc.(type) {
	case []any:
		arr = t
	case map[string]any:
		for _, key := range []string{"municipios", "municipalities"} {
			if list, ok := t[key].([]any); ok {
				arr = list
				break
			}
		}
		if arr == nil {
			return nil, errors.New("no municipality list in response")
		}
	default:
		return nil, fmt.Errorf("unexpected municipality payload %T", doc)
	}

	names := make([]string, 0, len(arr))
	for _, v := range arr {
		if name := strings.TrimSpace(toString(v)); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// Options builds the entries of a selection control, always led by the
// blank placeholder.
func Options(names []string) []Option {
	out := make([]Option, 0, len(names)+1)
	out = append(out, Option{Value: "", Label: PlaceholderLabel})
	for _, name := range names {
		out = append(out, Option{Value: name, Label: name})
	}
	return out
}
