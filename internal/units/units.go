// Package units normalizes the mixed measurement notations found in cargo
// lists into inches and pounds.
package units

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/heavyhaul/backend/internal/models"
)

type Kind string

const (
	Length Kind = "length"
	Width  Kind = "width"
	Height Kind = "height"
)

// Thresholds split plain-inch values from feet.inches shorthand per kind.
// A value above the threshold is already in inches.
type Thresholds struct {
	Length float64 `json:"length_threshold"`
	Width  float64 `json:"width_threshold"`
	Height float64 `json:"height_threshold"`
}

var DefaultThresholds = Thresholds{Length: 70, Width: 16, Height: 18}

// DefaultLimits are the road-legal envelope without an oversize permit.
var DefaultLimits = models.Dimensions{Length: 636, Width: 102, Height: 162, Weight: 48000}

func (t Thresholds) For(kind Kind) float64 {
	switch kind {
	case Length:
		return t.Length
	case Width:
		return t.Width
	case Height:
		return t.Height
	default:
		return 0
	}
}

// ParseDimension converts value to inches. Values up to the kind threshold
// are read as feet with the first decimal digit as inches, so 10.6 is
// 10 ft 6 in and 10.5 is 10 ft 5 in. Non-numeric input yields 0.
func ParseDimension(value any, kind Kind, th Thresholds) int {
	v, ok := toFloat(value)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v > th.For(kind) {
		return int(math.Round(v))
	}
	feet := math.Floor(v)
	inches := math.Round((v - feet) * 10)
	return int(feet)*12 + int(inches)
}

func toFloat(value any) (float64, bool) {
	switch t := value.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// FormatFeetInches renders inches as 10' 6" (or 10' on a whole foot).
func FormatFeetInches(inches int) string {
	if inches < 0 {
		inches = 0
	}
	feet := inches / 12
	rem := inches % 12
	if rem == 0 {
		return fmt.Sprintf("%d'", feet)
	}
	return fmt.Sprintf("%d' %d\"", feet, rem)
}

var (
	feetInchesPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:'|ft\b|feet\b)\s*(?:(\d+(?:\.\d+)?)\s*(?:"|''|in\b|inches\b)?)?`)
	dashPattern       = regexp.MustCompile(`^\s*(\d+)\s*-\s*(\d+(?:\.\d+)?)\s*$`)
	numberPattern     = regexp.MustCompile(`\d+(?:\.\d+)?`)
	tonsPattern       = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:tons?|t)\b`)
)

// ParseDimensionString reads free-text dimensions in priority order:
// 10'6", then 10-6, then a bare number taken as inches. Unparseable text
// yields 0.
func ParseDimensionString(s string) int {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0
	}
	if m := feetInchesPattern.FindStringSubmatch(s); m != nil {
		feet, _ := strconv.ParseFloat(m[1], 64)
		inches := 0.0
		if m[2] != "" {
			inches, _ = strconv.ParseFloat(m[2], 64)
		}
		return int(math.Round(feet*12 + inches))
	}
	if m := dashPattern.FindStringSubmatch(s); m != nil {
		feet, _ := strconv.ParseFloat(m[1], 64)
		inches, _ := strconv.ParseFloat(m[2], 64)
		return int(math.Round(feet*12 + inches))
	}
	if m := numberPattern.FindString(s); m != "" {
		v, _ := strconv.ParseFloat(m, 64)
		return int(math.Round(v))
	}
	return 0
}

// ParseWeightString reads "X tons" (2000 lb each) or a plain pound value.
// Thousand-separator commas are ignored.
func ParseWeightString(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	if m := tonsPattern.FindStringSubmatch(s); m != nil {
		tons, _ := strconv.ParseFloat(m[1], 64)
		return int(math.Round(tons * 2000))
	}
	if m := numberPattern.FindString(s); m != "" {
		v, _ := strconv.ParseFloat(m, 64)
		return int(math.Round(v))
	}
	return 0
}

// IsOversize reports whether any dimension exceeds its legal limit.
func IsOversize(length, width, height float64, limits models.Dimensions) bool {
	return length > limits.Length || width > limits.Width || height > limits.Height
}

func IsOverweight(weight float64, limits models.Dimensions) bool {
	return weight > limits.Weight
}

// OversizeDimensions names each of length, width and height above limits.
func OversizeDimensions(length, width, height float64, limits models.Dimensions) []string {
	d := models.Dimensions{Length: length, Width: width, Height: height}
	lim := limits
	lim.Weight = math.Inf(1)
	return d.Exceeded(lim)
}
