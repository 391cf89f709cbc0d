package collector

import (
	"strings"

	"compensa/internal"
	"compensa/internal/util"
)

const (
	FieldQuantity     = "quantity"
	FieldArea         = "area"
	FieldMunicipality = "municipality"

	suggestThreshold = 0.6
)

type ValidationError struct {
	Domain  internal.Domain
	Field   string
	Message string
	// Suggestion is the closest listed municipality when the typed name
	// was not an option.
	Suggestion string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var messages = map[internal.Domain]map[string]string{
	internal.DomainIsolated: {
		FieldQuantity:     "Informe uma quantidade válida.",
		FieldMunicipality: "Selecione um município.",
	},
	internal.DomainPatch: {
		FieldArea:         "Informe uma área válida em m² para o patch.",
		FieldMunicipality: "Selecione um município para o patch.",
	},
	internal.DomainApp: {
		FieldQuantity:     "Informe uma quantidade / área válida.",
		FieldMunicipality: "Selecione um município.",
	},
}

func (c *Collector) invalid(field string) *ValidationError {
	return &ValidationError{Domain: c.domain, Field: field, Message: messages[c.domain][field]}
}

// validate checks fields in the order the entry form reports them: trees
// check quantity first, patches and APP check the municipality first.
func (c *Collector) validate(raw RawFields) (internal.LineItem, error) {
	switch c.domain {
	case internal.DomainPatch:
		muni, err := c.checkMunicipality(raw.Municipality)
		if err != nil {
			return internal.LineItem{}, err
		}
		area, err := c.checkPositive(raw.Area, FieldArea)
		if err != nil {
			return internal.LineItem{}, err
		}
		return internal.LineItem{Municipality: muni, AreaM2: area}, nil
	case internal.DomainApp:
		muni, err := c.checkMunicipality(raw.Municipality)
		if err != nil {
			return internal.LineItem{}, err
		}
		qty, err := c.checkPositive(raw.Quantity, FieldQuantity)
		if err != nil {
			return internal.LineItem{}, err
		}
		return internal.LineItem{Municipality: muni, Quantity: qty}, nil
	default:
		qty, err := c.checkPositive(raw.Quantity, FieldQuantity)
		if err != nil {
			return internal.LineItem{}, err
		}
		muni, err := c.checkMunicipality(raw.Municipality)
		if err != nil {
			return internal.LineItem{}, err
		}
		return internal.LineItem{
			Quantity:     qty,
			Group:        strings.TrimSpace(raw.Group),
			Municipality: muni,
			Endangered:   raw.Endangered,
		}, nil
	}
}

func (c *Collector) checkPositive(raw, field string) (float64, error) {
	v := util.ParseAmount(raw)
	if v == nil || *v <= 0 {
		return 0, c.invalid(field)
	}
	return *v, nil
}

func (c *Collector) checkMunicipality(raw string) (string, error) {
	name := util.CollapseSpaces(raw)
	if name == "" {
		return "", c.invalid(FieldMunicipality)
	}
	if len(c.byName) == 0 {
		return name, nil
	}
	if canonical, ok := c.byName[util.NormalizeName(name)]; ok {
		return canonical, nil
	}

	verr := c.invalid(FieldMunicipality)
	verr.Suggestion = c.closest(name)
	return "", verr
}

func (c *Collector) closest(name string) string {
	key := util.NormalizeName(name)
	best, bestScore := "", 0.0
	for _, option := range c.options {
		score := util.DiceCoefficient(key, util.NormalizeName(option))
		if score > bestScore {
			best, bestScore = option, score
		}
	}
	if bestScore < suggestThreshold {
		return ""
	}
	return best
}
