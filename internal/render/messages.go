// Package render turns typed outcomes into the text, tables and files a
// user sees. Nothing here talks to the API or mutates rows.
package render

import (
	"errors"
	"fmt"

	"compensa/internal"
	"compensa/internal/api"
	"compensa/internal/util"
)

type domainText struct {
	empty     string
	httpErr   string
	parse     string
	network   string
	total     string
	unmatched string
	loadFail  string
}

var texts = map[internal.Domain]domainText{
	internal.DomainIsolated: {
		empty:     "Adicione pelo menos uma entrada antes de calcular.",
		httpErr:   "Erro HTTP %d na API.",
		parse:     "Resposta inválida da API.",
		network:   "Erro de conexão com a API.",
		total:     "Compensação total do lote: %s",
		unmatched: "Alguns itens não tiveram regra de compensação.",
		loadFail:  "Erro ao carregar municípios da API.",
	},
	internal.DomainPatch: {
		empty:     "Adicione pelo menos um patch antes de calcular.",
		httpErr:   "Erro HTTP %d na API (patch).",
		parse:     "Resposta inválida da API (patch).",
		network:   "Erro de conexão com a API (patch).",
		total:     "Compensação total dos patches: %s",
		unmatched: "Alguns patches não tiveram regra de compensação.",
		loadFail:  "Erro ao carregar municípios da API (patch).",
	},
	internal.DomainApp: {
		empty:     "Adicione pelo menos um item de APP.",
		httpErr:   "Erro HTTP %d na API (APP).",
		parse:     "Resposta inválida da API (APP).",
		network:   "Erro de conexão com a API (APP).",
		total:     "Compensação total de APP: %s",
		unmatched: "Alguns itens de APP não tiveram regra de compensação.",
		loadFail:  "Erro ao carregar municípios da API (APP).",
	},
}

const (
	InFlightMessage      = "Já existe um cálculo em andamento."
	SpeciesEmptyQuery    = "Informe pelo menos família ou espécie para buscar."
	SpeciesNotFound      = "Espécie não encontrada."
	SpeciesNoResults     = "Nenhum resultado encontrado."
	SpeciesRequestFailed = "Erro ao consultar status na API."
)

func textsFor(domain internal.Domain) domainText {
	if t, ok := texts[domain]; ok {
		return t
	}
	return texts[internal.DomainIsolated]
}

// SubmitError is the message shown for a failed submission. A server-supplied
// message is shown verbatim.
func SubmitError(domain internal.Domain, err error) string {
	t := textsFor(domain)

	var (
		httpErr  *api.HTTPError
		parseErr *api.ParseError
		netErr   *api.NetworkError
	)
	switch {
	case errors.Is(err, api.ErrEmptyBatch):
		return t.empty
	case errors.As(err, &httpErr):
		if httpErr.Message != "" {
			return httpErr.Message
		}
		return fmt.Sprintf(t.httpErr, httpErr.Status)
	case errors.As(err, &parseErr):
		return t.parse
	case errors.As(err, &netErr):
		return t.network
	default:
		return err.Error()
	}
}

func TotalLine(domain internal.Domain, total float64) string {
	return fmt.Sprintf(textsFor(domain).total, util.FormatNumber(total))
}

func UnmatchedWarning(domain internal.Domain) string {
	return textsFor(domain).unmatched
}

func MunicipalityLoadError(domain internal.Domain) string {
	return textsFor(domain).loadFail
}

// SpeciesError maps a lookup failure onto the status-area message.
func SpeciesError(err error) string {
	var httpErr *api.HTTPError
	switch {
	case errors.Is(err, api.ErrEmptyQuery):
		return SpeciesEmptyQuery
	case errors.As(err, &httpErr):
		return SpeciesNotFound
	default:
		return SpeciesRequestFailed
	}
}
