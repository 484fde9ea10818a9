package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return p
}

func TestReadCSVWithBOMAndRaggedRows(t *testing.T) {
	p := writeFile(t, "orders.csv", "\ufeff판매채널,상품별 총 주문금액,클레임\nA,100\nB,\"1,200\",반품\n,,\n")
	tb, err := ReadFile(p, Options{})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !tb.Has("판매채널") {
		t.Fatalf("BOM not stripped: %v", tb.Columns())
	}
	if tb.Len() != 2 {
		t.Fatalf("rows = %d, want 2 (blank row skipped)", tb.Len())
	}
	if !tb.Value(0, "클레임").IsNull() {
		t.Fatalf("padded cell should be null")
	}
	if got := tb.Value(1, "상품별 총 주문금액").String(); got != "1,200" {
		t.Fatalf("amount = %q", got)
	}
}

func TestReadTSVByExtension(t *testing.T) {
	p := writeFile(t, "orders.tsv", "channel\tseller\nA\tS1\n")
	tb, err := ReadFile(p, Options{})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if tb.Value(0, "seller").String() != "S1" {
		t.Fatalf("tsv not split on tabs: %v", tb.Columns())
	}
}

func TestHeaderNFCNormalized(t *testing.T) {
	decomposed := "\u1100\u1161" // 가 in NFD
	p := writeFile(t, "h.csv", decomposed+"\nx\n")
	tb, err := ReadFile(p, Options{})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !tb.Has("가") {
		t.Fatalf("header not NFC: %q", tb.Columns())
	}
}

func TestReadFileErrors(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"), Options{}); err == nil {
		t.Fatalf("expected error for missing file")
	}
	p := writeFile(t, "data.json", "{}")
	if _, err := ReadFile(p, Options{}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet("Orders"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	rows := [][]any{
		{"channel", "line_amount", "order_timestamp"},
		{"A", 100, 45352.5},
		{"B", 200.5, 45353.25},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Orders", cell, &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	p := filepath.Join(t.TempDir(), "orders.xlsx")
	if err := f.SaveAs(p); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return p
}

func TestReadXLSXBySheetName(t *testing.T) {
	p := writeWorkbook(t)
	tb, err := ReadFile(p, Options{Sheet: "orders"})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if tb.Len() != 2 {
		t.Fatalf("rows = %d", tb.Len())
	}
	if got := tb.Value(1, "line_amount").String(); got != "200.5" {
		t.Fatalf("amount = %q", got)
	}
	if got := tb.Value(0, "order_timestamp").String(); got != "45352.5" {
		t.Fatalf("raw date serial = %q", got)
	}
}

func TestReadXLSXSheetIndexAndMissingSheet(t *testing.T) {
	p := writeWorkbook(t)
	tb, err := ReadFile(p, Options{SheetIndex: 2})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !tb.Has("channel") {
		t.Fatalf("sheet index 2 should be Orders: %v", tb.Columns())
	}
	_, err = ReadFile(p, Options{Sheet: "Nope"})
	if !errors.Is(err, ErrSheetNotFound) {
		t.Fatalf("expected ErrSheetNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "Orders") {
		t.Fatalf("error should list available sheets: %v", err)
	}
}
