package pipeline

import (
	"compensa/internal"
	"compensa/internal/util"
)

// DetectDomain guesses the domain of a table from its headers. It returns
// "" when the columns fit more than one domain equally well.
func DetectDomain(headers []string) internal.Domain {
	norm := make([]string, 0, len(headers))
	for _, h := range headers {
		norm = append(norm, util.NormalizeName(h))
	}
	has := func(probes []string) bool { return findHeaderIndex(norm, probes) >= 0 }

	scores := map[internal.Domain]float64{}
	if has(headerProbes.area) {
		scores[internal.DomainPatch] += 0.6
	}
	if has(headerProbes.group) {
		scores[internal.DomainIsolated] += 0.5
	}
	if has(headerProbes.endangered) {
		scores[internal.DomainIsolated] += 0.3
	}
	if has([]string{"arvore"}) {
		scores[internal.DomainIsolated] += 0.2
	}
	if has([]string{"unidade", "app"}) {
		scores[internal.DomainApp] += 0.4
	}
	if has(headerProbes.quantity) {
		scores[internal.DomainIsolated] += 0.1
		scores[internal.DomainApp] += 0.1
	}

	var (
		best  internal.Domain
		score float64
		tie   bool
	)
	for _, d := range internal.Domains {
		switch s := scores[d]; {
		case s > score:
			best, score, tie = d, s, false
		case s == score && s > 0:
			tie = true
		}
	}
	if tie || score < 0.4 {
		return ""
	}
	return best
}
