package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/metricdeck-cli/internal/table"
	"github.com/xuri/excelize/v2"
)

type xlsxReader struct{}

func (xlsxReader) CanRead(path string) bool { return hasExt(path, ".xlsx", ".xlsm") }

// Read loads one sheet. Cell values are read raw so date cells arrive as
// Excel serial numbers and are converted during preparation.
func (xlsxReader) Read(path string, opt Options) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet, err := resolveSheet(f.GetSheetList(), opt, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	var header []string
	var records [][]string
	first := true
	for rows.Next() {
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if first {
			header = append([]string(nil), cols...)
			first = false
			continue
		}
		records = append(records, cols)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return build(header, records), nil
}

func resolveSheet(sheets []string, opt Options, book string) (string, error) {
	if opt.Sheet != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, opt.Sheet) {
				return s, nil
			}
		}
		return "", fmt.Errorf("%w: '%s' in workbook '%s' (available sheets: %s)",
			ErrSheetNotFound, opt.Sheet, book, strings.Join(sheets, ", "))
	}
	idx := opt.SheetIndex
	if idx <= 0 {
		idx = 1
	}
	if idx > len(sheets) {
		return "", fmt.Errorf("%w: index %d in workbook '%s' has %d sheets", ErrSheetNotFound, idx, book, len(sheets))
	}
	return sheets[idx-1], nil
}
