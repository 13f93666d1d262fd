package ai

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/heavyhaul/backend/internal/models"
	"github.com/heavyhaul/backend/internal/units"
	"github.com/heavyhaul/backend/internal/utils"
)

// MockAdapter is a deterministic line-oriented extractor used when no AI
// endpoint is configured. Each line that carries an LxWxH triple becomes
// one item.
type MockAdapter struct{}

var (
	quantityPattern = regexp.MustCompile(`(?i)^\s*(\d+)\s*(?:x\s+|pcs?\b|units?\b|ea\b)`)
	triplePattern   = regexp.MustCompile(`(?i)([\d.]+\s*(?:'\s*(?:[\d.]+\s*")?|ft|in|")?)\s*[x×]\s*([\d.]+\s*(?:'\s*(?:[\d.]+\s*")?|ft|in|")?)\s*[x×]\s*([\d.]+\s*(?:'\s*(?:[\d.]+\s*")?|ft|in|")?)`)
	weightPattern   = regexp.MustCompile(`(?i)([\d,]+(?:\.\d+)?)\s*(tons?|lbs?|pounds)\b`)
	stackPattern    = regexp.MustCompile(`(?i)\bstackable\b`)
	noStackPattern  = regexp.MustCompile(`(?i)\b(?:non-?stackable|do not stack)\b`)
)

func (MockAdapter) ExtractFromText(ctx context.Context, text string) ([]models.ParsedItem, error) {
	items := []models.ParsedItem{}
	for _, line := range strings.Split(text, "\n") {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if item, ok := parseLine(line); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// ExtractFromImage has no vision model behind it and reports nothing found.
func (MockAdapter) ExtractFromImage(ctx context.Context, dataURL string) ([]models.ParsedItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []models.ParsedItem{}, nil
}

func parseLine(line string) (models.ParsedItem, bool) {
	line = strings.TrimSpace(line)
	m := triplePattern.FindStringSubmatchIndex(line)
	if m == nil {
		return models.ParsedItem{}, false
	}
	item := models.ParsedItem{
		ID:        fmt.Sprintf("item-%x", utils.HashStringToUint64(line)&0xffffffff),
		Quantity:  1,
		Length:    float64(units.ParseDimensionString(line[m[2]:m[3]])),
		Width:     float64(units.ParseDimensionString(line[m[4]:m[5]])),
		Height:    float64(units.ParseDimensionString(line[m[6]:m[7]])),
		Stackable: stackPattern.MatchString(line) && !noStackPattern.MatchString(line),
	}

	desc := line[:m[0]]
	if q := quantityPattern.FindStringSubmatch(desc); q != nil {
		if n, err := strconv.Atoi(q[1]); err == nil && n > 0 {
			item.Quantity = n
		}
		desc = desc[len(q[0]):]
	}
	if w := weightPattern.FindString(line[m[1]:]); w != "" {
		item.Weight = float64(units.ParseWeightString(w))
	}
	item.Description = strings.Trim(strings.TrimSpace(desc), "-:,")
	item.Description = strings.TrimSpace(item.Description)
	if item.Description == "" {
		item.Description = "Item"
	}
	return item, true
}
