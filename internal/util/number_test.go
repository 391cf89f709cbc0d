package util

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "integer", input: "5", want: 5},
		{name: "decimal comma", input: "1,5", want: 1.5},
		{name: "decimal dot", input: "1.5", want: 1.5},
		{name: "lone dot is decimal", input: "1.500", want: 1.5},
		{name: "lone comma is decimal", input: "1,500", want: 1.5},
		{name: "leading zero comma", input: "0,125", want: 0.125},
		{name: "comma with three digits", input: "2,250", want: 2.25},
		{name: "thousand with space", input: "1 000", want: 1000},
		{name: "grouped with decimal comma", input: "12.500,75", want: 12500.75},
		{name: "surrounding spaces", input: "  42 ", want: 42},
		{name: "negative", input: "-3", want: -3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parsed := ParseAmount(tc.input)
			if parsed == nil {
				t.Fatalf("amount is nil")
			}
			if *parsed != tc.want {
				t.Fatalf("got %v want %v", *parsed, tc.want)
			}
		})
	}
}

func TestParseAmountRejects(t *testing.T) {
	for _, input := range []string{"", "   ", "abc", "1,2,3x", "NaN", "1,500,000", "1.000.000"} {
		if got := ParseAmount(input); got != nil {
			t.Fatalf("input %q parsed as %v", input, *got)
		}
	}
}

func TestFormatOptional(t *testing.T) {
	if got := FormatOptional(nil); got != "" {
		t.Fatalf("nil rendered as %q", got)
	}
	if got := FormatOptional(FloatPtr(2)); got != "2" {
		t.Fatalf("got %q", got)
	}
	if got := FormatOptional(FloatPtr(12.25)); got != "12.25" {
		t.Fatalf("got %q", got)
	}
}
