// Package cargo turns raw shipment descriptions into a ParsedLoad.
package cargo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/heavyhaul/backend/internal/ai"
	"github.com/heavyhaul/backend/internal/models"
	"github.com/heavyhaul/backend/internal/spreadsheet"
	"github.com/heavyhaul/backend/internal/units"
)

// Confidence scores by parse path.
const (
	ConfidenceAI            = 85
	ConfidenceSpreadsheetAI = 90
	ConfidenceSpreadsheet   = 80
	ConfidenceRows          = 80
	ConfidenceItems         = 100
)

const minTextLength = 10

const (
	WarningNoItems       = "No cargo items could be extracted from the input."
	WarningNoUsableItems = "Items were extracted but none have complete dimensions and weight."
	warningIncomplete    = "%d of %d items are missing dimensions or weight and were excluded from planning."
)

var (
	ErrTextTooShort     = errors.New("text is too short to analyze")
	ErrInvalidRequest   = errors.New("invalid request: provide text, image, file, items or rows")
	ErrExtractionFailed = errors.New("cargo extraction failed")
)

type UnsupportedTypeError struct {
	Type string
}

func (e UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.Type)
}

// Result holds the full parse plus the items eligible for planning.
type Result struct {
	Load    models.ParsedLoad
	Valid   []models.CargoItem
	Warning string
}

type Extractor struct {
	ai     ai.Extractor
	sheets spreadsheet.Parser
}

func NewExtractor(aiExtractor ai.Extractor, sheets spreadsheet.Parser) *Extractor {
	return &Extractor{ai: aiExtractor, sheets: sheets}
}

func (e *Extractor) Extract(ctx context.Context, in Input) (Result, error) {
	var (
		items []models.CargoItem
		meta  = &models.ParseMetadata{Method: in.Kind.String(), Filename: in.Filename}
		conf  int
	)

	switch in.Kind {
	case KindText:
		text := strings.TrimSpace(in.Text)
		if utf8.RuneCountInString(text) < minTextLength {
			return Result{}, ErrTextTooShort
		}
		parsed, err := e.ai.ExtractFromText(ctx, text)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
		}
		items, conf = fromParsed(parsed), ConfidenceAI

	case KindImage:
		if strings.TrimSpace(in.Image) == "" {
			return Result{}, ErrInvalidRequest
		}
		url, mime := dataURL(in.Image, in.MIMEType)
		if !imageTypes[mime] {
			return Result{}, UnsupportedTypeError{Type: mime}
		}
		parsed, err := e.ai.ExtractFromImage(ctx, url)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
		}
		items, conf = fromParsed(parsed), ConfidenceAI

	case KindSpreadsheet:
		if len(in.Data) == 0 {
			return Result{}, ErrInvalidRequest
		}
		if !spreadsheet.Supported(in.Filename) {
			return Result{}, UnsupportedTypeError{Type: in.Filename}
		}
		res, err := e.sheets.Parse(ctx, in.Data, in.Filename)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
		}
		items = fromParsed(res.Items)
		meta.ParseMethod = res.Metadata.ParseMethod
		conf = ConfidenceSpreadsheet
		if res.Metadata.ParseMethod == spreadsheet.MethodAI {
			conf = ConfidenceSpreadsheetAI
		}

	case KindRows:
		if in.Rows == nil {
			return Result{}, ErrInvalidRequest
		}
		items, conf = fromRows(in.Rows), ConfidenceRows

	case KindItems:
		if in.Items == nil {
			return Result{}, ErrInvalidRequest
		}
		items = make([]models.CargoItem, len(in.Items))
		copy(items, in.Items)
		for i := range items {
			if items[i].ID == "" {
				items[i].ID = uuid.NewString()
			}
			if items[i].Quantity < 1 {
				items[i].Quantity = 1
			}
		}
		conf = ConfidenceItems

	default:
		return Result{}, ErrInvalidRequest
	}

	meta.ItemCount = len(items)
	return assemble(items, conf, meta), nil
}

// assemble computes aggregates over the valid items only. Load.Items keeps
// every item so the caller can show what was dropped.
func assemble(items []models.CargoItem, confidence int, meta *models.ParseMetadata) Result {
	res := Result{
		Load: models.ParsedLoad{
			Items:      items,
			Confidence: confidence,
			Metadata:   meta,
		},
		Valid: []models.CargoItem{},
	}
	for _, it := range items {
		if !it.Valid() {
			continue
		}
		res.Valid = append(res.Valid, it)
		res.Load.Length = math.Max(res.Load.Length, it.Length)
		res.Load.Width = math.Max(res.Load.Width, it.Width)
		res.Load.Height = math.Max(res.Load.Height, it.Height)
		res.Load.Weight += it.Weight * float64(it.Quantity)
	}

	switch {
	case len(items) == 0:
		res.Warning = WarningNoItems
	case len(res.Valid) == 0:
		res.Warning = WarningNoUsableItems
	case len(res.Valid) < len(items):
		res.Warning = fmt.Sprintf(warningIncomplete, len(items)-len(res.Valid), len(items))
	}
	return res
}

func fromParsed(parsed []models.ParsedItem) []models.CargoItem {
	out := make([]models.CargoItem, 0, len(parsed))
	for _, p := range parsed {
		it := models.CargoItem{
			ID:          p.ID,
			SKU:         p.SKU,
			Description: strings.TrimSpace(p.Description),
			Quantity:    p.Quantity,
			Length:      p.Length,
			Width:       p.Width,
			Height:      p.Height,
			Weight:      p.Weight,
			Stackable:   p.Stackable,
		}
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if it.Description == "" {
			it.Description = "Unknown Item"
		}
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		out = append(out, it)
	}
	return out
}

func fromRows(rows []Row) []models.CargoItem {
	out := make([]models.CargoItem, 0, len(rows))
	for _, r := range rows {
		it := models.CargoItem{
			ID:          r.str("id"),
			SKU:         r.str("sku"),
			Description: r.str("description"),
			Quantity:    int(r.number("quantity", nil)),
			Length:      r.number("length", units.ParseDimensionString),
			Width:       r.number("width", units.ParseDimensionString),
			Height:      r.number("height", units.ParseDimensionString),
			Weight:      r.number("weight", units.ParseWeightString),
			Stackable:   truthy(r["stackable"]),
			Fragile:     truthy(r["fragile"]),
			Hazmat:      truthy(r["hazmat"]),
		}
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if it.Description == "" {
			it.Description = "Unknown Item"
		}
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		out = append(out, it)
	}
	return out
}

func (r Row) str(key string) string {
	switch v := r[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return fmt.Sprint(v)
	}
	return ""
}

// number reads a numeric field. Strings go through parse when given, so
// "10'6\"" or "24 tons" work in rows.
func (r Row) number(key string, parse func(string) int) float64 {
	switch v := r[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	case int:
		return float64(v)
	case string:
		if parse != nil {
			return float64(parse(v))
		}
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%g", &f); err == nil {
			return f
		}
	}
	return 0
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "", "false", "no", "n", "0":
			return false
		}
		return true
	}
	return false
}
