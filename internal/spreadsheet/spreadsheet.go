// Package spreadsheet turns packing lists (xlsx, csv and pdf) into cargo items.
package spreadsheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/heavyhaul/backend/internal/models"
	"github.com/heavyhaul/backend/internal/units"
)

const (
	MethodPattern = "pattern"
	MethodAI      = "AI"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	ErrEmpty             = errors.New("spreadsheet has no rows")
	ErrUnreadable        = errors.New("file is corrupt or unreadable")
)

// ColumnMapper resolves headers the built-in patterns cannot place. It maps
// field name to zero-based column index.
type ColumnMapper interface {
	MapColumns(ctx context.Context, headers []string) (map[string]int, error)
}

type Metadata struct {
	ParseMethod string `json:"parseMethod"`
	Sheets      int    `json:"sheets"`
	Rows        int    `json:"rows"`
}

type Result struct {
	Items    []models.ParsedItem `json:"items"`
	Metadata Metadata            `json:"metadata"`
}

type Parser interface {
	Parse(ctx context.Context, data []byte, filename string) (Result, error)
}

// ExcelParser reads .xlsx/.xlsm with excelize and .csv with encoding/csv.
// Mapper is optional.
type ExcelParser struct {
	Mapper     ColumnMapper
	Thresholds units.Thresholds
}

// Supported reports whether filename has an extension Parse understands.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xltx", ".csv":
		return true
	}
	return false
}

func (p ExcelParser) Parse(ctx context.Context, data []byte, filename string) (Result, error) {
	var sheets [][][]string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xltx":
		s, err := readXLSX(data)
		if err != nil {
			return Result{}, err
		}
		sheets = s
	case ".csv":
		rows, err := readCSV(data)
		if err != nil {
			return Result{}, err
		}
		sheets = [][][]string{rows}
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}

	th := p.Thresholds
	if th == (units.Thresholds{}) {
		th = units.DefaultThresholds
	}

	res := Result{Items: []models.ParsedItem{}, Metadata: Metadata{ParseMethod: MethodPattern}}
	for _, rows := range sheets {
		rows = dropEmptyRows(rows)
		if len(rows) == 0 {
			continue
		}
		res.Metadata.Sheets++

		cols, headerRow := inferColumns(rows)
		if headerRow < 0 && p.Mapper != nil {
			mapped, err := p.Mapper.MapColumns(ctx, rows[0])
			if err != nil {
				return Result{}, fmt.Errorf("map columns: %w", err)
			}
			if c := fromMapping(mapped); c.dimensionCount() > 0 {
				cols, headerRow = c, 0
				res.Metadata.ParseMethod = MethodAI
			}
		}
		if headerRow < 0 {
			cols = positional
		}

		for _, row := range rows[headerRow+1:] {
			res.Metadata.Rows++
			if item, ok := cols.item(row, th); ok {
				res.Items = append(res.Items, item)
			}
		}
	}
	if res.Metadata.Sheets == 0 {
		return Result{}, ErrEmpty
	}
	return res, nil
}

func readXLSX(data []byte) ([][][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %w", ErrUnreadable, err)
	}
	defer f.Close()

	out := [][][]string{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		out = append(out, rows)
	}
	return out, nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read csv: %w", ErrUnreadable, err)
	}
	return rows, nil
}

func dropEmptyRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// columns holds zero-based indexes, -1 when absent.
type columns struct {
	description, sku, quantity int
	length, width, height      int
	weight, stackable          int
	weightInTons               bool
}

var positional = columns{description: 0, sku: -1, quantity: 1, length: 2, width: 3, height: 4, weight: 5, stackable: -1}

func emptyColumns() columns {
	return columns{-1, -1, -1, -1, -1, -1, -1, -1, false}
}

func (c columns) dimensionCount() int {
	n := 0
	for _, idx := range []int{c.length, c.width, c.height, c.weight} {
		if idx >= 0 {
			n++
		}
	}
	return n
}

type probe struct {
	field   string
	exact   []string
	partial []string
}

// Checked in order, so weight wins over height for "weight" (which contains "ht").
var probes = []probe{
	{field: "stackable", partial: []string{"stack"}},
	{field: "weight", exact: []string{"wt"}, partial: []string{"weight", "wt.", "wt (", "lbs", "pounds", "tons"}},
	{field: "quantity", exact: []string{"qty", "#", "count"}, partial: []string{"qty", "quantity", "pcs", "units"}},
	{field: "sku", exact: []string{"sku", "code"}, partial: []string{"sku", "part", "model", "serial"}},
	{field: "length", exact: []string{"l", "len"}, partial: []string{"length", "len (", "len."}},
	{field: "width", exact: []string{"w", "wd"}, partial: []string{"width", "wid"}},
	{field: "height", exact: []string{"h", "ht", "hgt"}, partial: []string{"height", "hgt", "ht (", "ht."}},
	{field: "description", exact: []string{"item", "name"}, partial: []string{"desc", "equipment", "product", "commodity", "item", "name"}},
}

var unitSuffix = regexp.MustCompile(`\s*[\(\[].*?[\)\]]\s*$`)

func classifyHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	if h == "" {
		return ""
	}
	bare := unitSuffix.ReplaceAllString(h, "")
	for _, p := range probes {
		for _, e := range p.exact {
			if bare == e {
				return p.field
			}
		}
		for _, part := range p.partial {
			if strings.Contains(h, part) {
				return p.field
			}
		}
	}
	return ""
}

// inferColumns looks for a header row in the first five rows. A header must
// place at least two of length, width, height and weight.
func inferColumns(rows [][]string) (columns, int) {
	for i := 0; i < len(rows) && i < 5; i++ {
		c := emptyColumns()
		for idx, cell := range rows[i] {
			field := classifyHeader(cell)
			if field == "" {
				continue
			}
			c.set(field, idx)
			if field == "weight" && strings.Contains(strings.ToLower(cell), "ton") {
				c.weightInTons = true
			}
		}
		if c.dimensionCount() >= 2 {
			return c, i
		}
	}
	return emptyColumns(), -1
}

func fromMapping(m map[string]int) columns {
	c := emptyColumns()
	for field, idx := range m {
		c.set(field, idx)
	}
	return c
}

func (c *columns) set(field string, idx int) {
	target := map[string]*int{
		"description": &c.description,
		"sku":         &c.sku,
		"quantity":    &c.quantity,
		"length":      &c.length,
		"width":       &c.width,
		"height":      &c.height,
		"weight":      &c.weight,
		"stackable":   &c.stackable,
	}[field]
	if target != nil && *target < 0 {
		*target = idx
	}
}

func cell(row []string, idx int) string {
	if idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func (c columns) item(row []string, th units.Thresholds) (models.ParsedItem, bool) {
	item := models.ParsedItem{
		Description: cell(row, c.description),
		SKU:         cell(row, c.sku),
		Quantity:    parseQuantity(cell(row, c.quantity)),
		Length:      float64(dimension(cell(row, c.length), units.Length, th)),
		Width:       float64(dimension(cell(row, c.width), units.Width, th)),
		Height:      float64(dimension(cell(row, c.height), units.Height, th)),
		Weight:      weight(cell(row, c.weight), c.weightInTons),
		Stackable:   truthy(cell(row, c.stackable)),
	}
	if item.Description == "" && item.Length == 0 && item.Width == 0 && item.Height == 0 && item.Weight == 0 {
		return models.ParsedItem{}, false
	}
	if item.Description == "" {
		item.Description = "Unknown Item"
	}
	return item, true
}

func parseQuantity(s string) int {
	s = strings.ReplaceAll(s, ",", "")
	if v, err := strconv.ParseFloat(s, 64); err == nil && v >= 1 {
		return int(v)
	}
	return 1
}

// dimension reads plain numbers through the feet.inches threshold rule and
// anything with unit marks as free text.
func dimension(s string, kind units.Kind, th units.Thresholds) int {
	if s == "" {
		return 0
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return units.ParseDimension(s, kind, th)
	}
	return units.ParseDimensionString(s)
}

func weight(s string, tons bool) float64 {
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
		if tons {
			return v * 2000
		}
		return v
	}
	return float64(units.ParseWeightString(s))
}

func truthy(s string) bool {
	switch strings.ToLower(s) {
	case "y", "yes", "true", "1", "x":
		return true
	}
	return false
}
