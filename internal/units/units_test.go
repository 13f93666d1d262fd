package units

import (
	"math"
	"testing"
)

func TestParseDimension(t *testing.T) {
	th := Thresholds{Length: 20, Width: 20, Height: 20}
	cases := []struct {
		name  string
		value any
		kind  Kind
		want  int
	}{
		{"feet inches shorthand", 10.6, Length, 126},
		{"not decimal feet", 10.5, Length, 125},
		{"already inches", 126, Length, 126},
		{"inches rounded", 126.4, Length, 126},
		{"string value", "10.6", Height, 126},
		{"at threshold is shorthand", 20.0, Width, 240},
		{"garbage", "abc", Length, 0},
		{"nil", nil, Length, 0},
		{"whole feet", 8, Width, 96},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseDimension(tc.value, tc.kind, th); got != tc.want {
				t.Fatalf("ParseDimension(%v) = %d, want %d", tc.value, got, tc.want)
			}
		})
	}
}

func TestParseDimensionMatchesFormula(t *testing.T) {
	th := Thresholds{Length: 50}
	for v := 0.0; v <= 50; v += 0.1 {
		v = math.Round(v*10) / 10
		want := int(math.Floor(v))*12 + int(math.Round((v-math.Floor(v))*10))
		if got := ParseDimension(v, Length, th); got != want {
			t.Fatalf("ParseDimension(%v) = %d, want %d", v, got, want)
		}
	}
}

func TestFormatFeetInches(t *testing.T) {
	if got := FormatFeetInches(126); got != `10' 6"` {
		t.Fatalf("unexpected format: %s", got)
	}
	if got := FormatFeetInches(120); got != "10'" {
		t.Fatalf("unexpected format: %s", got)
	}
}

func TestParseDimensionString(t *testing.T) {
	cases := map[string]int{
		`10'6"`:  126,
		`10' 6"`: 126,
		"10'":    120,
		"10-6":   126,
		"126":    126,
		"12 ft":  144,
		"":       0,
		"n/a":    0,
	}
	for in, want := range cases {
		if got := ParseDimensionString(in); got != want {
			t.Fatalf("ParseDimensionString(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseWeightString(t *testing.T) {
	cases := map[string]int{
		"20 tons":    40000,
		"1.5 ton":    3000,
		"48,000 lbs": 48000,
		"12500":      12500,
		"heavy":      0,
	}
	for in, want := range cases {
		if got := ParseWeightString(in); got != want {
			t.Fatalf("ParseWeightString(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestOversizeOverweight(t *testing.T) {
	if IsOversize(600, 100, 160, DefaultLimits) {
		t.Fatalf("expected legal size")
	}
	if !IsOversize(600, 110, 160, DefaultLimits) {
		t.Fatalf("expected oversize on width")
	}
	if IsOverweight(48000, DefaultLimits) {
		t.Fatalf("48000 is at the limit, not over")
	}
	if !IsOverweight(48001, DefaultLimits) {
		t.Fatalf("expected overweight")
	}
	dims := OversizeDimensions(700, 110, 100, DefaultLimits)
	if len(dims) != 2 || dims[0] != "length" || dims[1] != "width" {
		t.Fatalf("unexpected oversize dims: %v", dims)
	}
}
