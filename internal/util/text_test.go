package util

import "testing"

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"São Paulo":             "sao paulo",
		"  AVARÉ ":              "avare",
		"Santa Bárbara d'Oeste": "santa barbara d'oeste",
		"Mogi-Guaçu":            "mogi-guacu",
		"Itaí,  SP":             "itai sp",
	}
	for input, want := range cases {
		if got := NormalizeName(input); got != want {
			t.Fatalf("NormalizeName(%q) = %q want %q", input, got, want)
		}
	}
}

func TestDiceCoefficient(t *testing.T) {
	if got := DiceCoefficient("avare", "avare"); got != 1 {
		t.Fatalf("identical got %v", got)
	}
	if got := DiceCoefficient("avare", ""); got != 0 {
		t.Fatalf("empty got %v", got)
	}
	near := DiceCoefficient("avare", "avarre")
	far := DiceCoefficient("avare", "botucatu")
	if near <= far {
		t.Fatalf("near=%v far=%v", near, far)
	}
}
