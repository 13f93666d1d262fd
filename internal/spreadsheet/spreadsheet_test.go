package spreadsheet

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

func mkXLSX(rows [][]any) []byte {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

type fakeMapper struct {
	mapping map[string]int
	err     error
	calls   int
}

func (f *fakeMapper) MapColumns(ctx context.Context, headers []string) (map[string]int, error) {
	f.calls++
	return f.mapping, f.err
}

func TestParseXLSXWithHeaders(t *testing.T) {
	blob := mkXLSX([][]any{
		{"Packing list 2024-118"},
		{"Description", "Qty", "Length (in)", "Width (in)", "Height (in)", "Weight (lbs)", "Stackable"},
		{"Excavator", 1, 384, 120, 132, 48000, "no"},
		{"Crate", 4, 48, 40, 36, "1,200", "yes"},
		{},
	})
	res, err := ExcelParser{}.Parse(context.Background(), blob, "list.xlsx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Metadata.ParseMethod != MethodPattern {
		t.Fatalf("expected pattern method, got %s", res.Metadata.ParseMethod)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 items, got %d: %+v", len(res.Items), res.Items)
	}
	ex := res.Items[0]
	if ex.Description != "Excavator" || ex.Quantity != 1 || ex.Length != 384 || ex.Width != 120 || ex.Height != 132 || ex.Weight != 48000 || ex.Stackable {
		t.Fatalf("unexpected excavator: %+v", ex)
	}
	crate := res.Items[1]
	if crate.Quantity != 4 || crate.Weight != 1200 || !crate.Stackable {
		t.Fatalf("unexpected crate: %+v", crate)
	}
}

func TestParseFeetInchesShorthand(t *testing.T) {
	blob := mkXLSX([][]any{
		{"Item", "L", "W", "H", "Weight (tons)"},
		{"Dozer", 20.6, 10.2, "11'4\"", 25},
	})
	res, err := ExcelParser{}.Parse(context.Background(), blob, "dozer.xlsx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(res.Items))
	}
	d := res.Items[0]
	if d.Length != 246 || d.Width != 122 || d.Height != 136 {
		t.Fatalf("unexpected dimensions: %+v", d)
	}
	if d.Weight != 50000 {
		t.Fatalf("expected tons converted to 50000, got %v", d.Weight)
	}
	if d.Quantity != 1 {
		t.Fatalf("missing quantity should default to 1, got %d", d.Quantity)
	}
}

func TestParseCSV(t *testing.T) {
	data := []byte("\xef\xbb\xbfSKU,Equipment,Quantity,Length,Width,Height,Wt\nCAT-320,Excavator,1,384,120,132,48000\n,,,,,,\nX-1,,2,96,48,48,500\n")
	res, err := ExcelParser{}.Parse(context.Background(), data, "LIST.CSV")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 items, got %d: %+v", len(res.Items), res.Items)
	}
	if res.Items[0].SKU != "CAT-320" || res.Items[0].Description != "Excavator" {
		t.Fatalf("unexpected first item: %+v", res.Items[0])
	}
	if res.Items[1].Description != "Unknown Item" || res.Items[1].Quantity != 2 {
		t.Fatalf("unexpected second item: %+v", res.Items[1])
	}
}

func TestParseFallsBackToMapper(t *testing.T) {
	blob := mkXLSX([][]any{
		{"Equip", "Pieces", "Long", "Wide", "Tall", "Mass"},
		{"Generator", 1, 240, 96, 108, 22000},
	})
	m := &fakeMapper{mapping: map[string]int{"description": 0, "quantity": 1, "length": 2, "width": 3, "height": 4, "weight": 5}}
	res, err := ExcelParser{Mapper: m}.Parse(context.Background(), blob, "gen.xlsx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.calls != 1 {
		t.Fatalf("expected one mapper call, got %d", m.calls)
	}
	if res.Metadata.ParseMethod != MethodAI {
		t.Fatalf("expected AI method, got %s", res.Metadata.ParseMethod)
	}
	if len(res.Items) != 1 || res.Items[0].Weight != 22000 || res.Items[0].Length != 240 {
		t.Fatalf("unexpected items: %+v", res.Items)
	}
}

func TestParseMapperError(t *testing.T) {
	blob := mkXLSX([][]any{{"a", "b"}, {"c", "d"}})
	m := &fakeMapper{err: errors.New("boom")}
	if _, err := (ExcelParser{Mapper: m}).Parse(context.Background(), blob, "x.xlsx"); err == nil {
		t.Fatalf("expected mapper error")
	}
}

func TestParseWithoutHeaderUsesPositions(t *testing.T) {
	data := []byte("Beam,2,480,12,24,3000\n")
	res, err := ExcelParser{}.Parse(context.Background(), data, "beams.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Quantity != 2 || res.Items[0].Length != 480 || res.Items[0].Weight != 3000 {
		t.Fatalf("unexpected items: %+v", res.Items)
	}
}

func TestParseRejectsUnknownFormat(t *testing.T) {
	if _, err := (ExcelParser{}).Parse(context.Background(), []byte("x"), "list.xls"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if Supported("list.xls") || !Supported("list.XLSX") || !Supported("a.csv") {
		t.Fatalf("unexpected Supported results")
	}
}

func TestParseEmptySheet(t *testing.T) {
	if _, err := (ExcelParser{}).Parse(context.Background(), []byte("\n\n"), "empty.csv"); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestClassifyHeader(t *testing.T) {
	cases := map[string]string{
		"Weight":        "weight",
		"Height (in)":   "height",
		"Item Weight":   "weight",
		"WT":            "weight",
		"L":             "length",
		"Length (ft)":   "length",
		"Width":         "width",
		"Qty":           "quantity",
		"Description":   "description",
		"Stackable?":    "stackable",
		"Part Number":   "sku",
		"Notes":         "",
	}
	for h, want := range cases {
		if got := classifyHeader(h); got != want {
			t.Fatalf("classifyHeader(%q) = %q, want %q", h, got, want)
		}
	}
}

func TestExtractPDFTextRejectsGarbage(t *testing.T) {
	if _, err := ExtractPDFText([]byte("not a pdf")); err == nil {
		t.Fatalf("expected error for non-pdf content")
	}
}
