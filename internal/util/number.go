package util

import (
	"regexp"
	"strconv"
	"strings"
)

var reGroupedComma = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+,\d+$`)

// ParseAmount reads a user-typed quantity or area. A lone comma or a lone dot
// is always the decimal mark, so "1,500" and "1.500" are both 1.5. Dots are
// thousands only in front of a decimal comma ("12.500,75"); spaces always
// group ("1 000"). Returns nil when the input is not a finite number.
func ParseAmount(input string) *float64 {
	token := strings.TrimSpace(strings.ReplaceAll(input, "\u00A0", " "))
	if token == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(normalizeNumericToken(token), 64)
	if err != nil || parsed != parsed || parsed > 1e308 || parsed < -1e308 {
		return nil
	}
	return &parsed
}

// FormatNumber renders a value the way the result cells show it: no trailing
// zeros, no exponent for ordinary magnitudes.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatOptional renders nil as an empty cell.
func FormatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return FormatNumber(*v)
}

func normalizeNumericToken(token string) string {
	compact := strings.ReplaceAll(token, " ", "")
	if reGroupedComma.MatchString(compact) {
		compact = strings.ReplaceAll(compact, ".", "")
		return strings.ReplaceAll(compact, ",", ".")
	}
	if strings.Contains(compact, ",") && !strings.Contains(compact, ".") {
		return strings.ReplaceAll(compact, ",", ".")
	}
	return compact
}

func FloatPtr(v float64) *float64 { return &v }

func IntPtr(v int) *int { return &v }
