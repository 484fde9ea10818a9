// Package ingest reads raw order-line exports into string tables.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/KaramelBytes/metricdeck-cli/internal/table"
	"golang.org/x/text/unicode/norm"
)

// Options tune how a source file is read.
type Options struct {
	// Delimiter overrides the CSV separator. Zero picks one from the extension.
	Delimiter rune
	// Sheet selects a workbook sheet by name.
	Sheet string
	// SheetIndex is the 1-based fallback when Sheet is empty.
	SheetIndex int
}

// Reader loads one file format.
type Reader interface {
	CanRead(path string) bool
	Read(path string, opt Options) (*table.Table, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

var (
	// ErrUnsupported indicates no reader handles the file extension.
	ErrUnsupported = errors.New("unsupported dataset format")
	// ErrSheetNotFound indicates the requested workbook sheet does not exist.
	ErrSheetNotFound = errors.New("sheet not found")
)

// ReadFile selects a reader by file name and loads the whole file.
func ReadFile(path string, opt Options) (*table.Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	for _, r := range registry {
		if r.CanRead(path) {
			return r.Read(path, opt)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}

// build turns a header plus raw records into a string table. Missing and
// blank cells become nulls; short rows are padded.
func build(header []string, records [][]string) *table.Table {
	cols := make([]table.Column, len(header))
	for i, h := range header {
		cols[i] = table.Col(cleanHeader(h, i), table.KindString)
	}
	t := table.New(cols...)
	width := len(t.Columns())
	names := t.Columns()
	pos := make(map[string]int, len(header))
	for i, h := range header {
		name := cleanHeader(h, i)
		if _, ok := pos[name]; !ok {
			pos[name] = i
		}
	}
	vals := make([]table.Value, width)
	for _, rec := range records {
		if blankRecord(rec) {
			continue
		}
		for j, name := range names {
			src := pos[name]
			if src < len(rec) && strings.TrimSpace(rec[src]) != "" {
				vals[j] = table.Str(strings.TrimSpace(rec[src]))
			} else {
				vals[j] = table.Null(table.KindString)
			}
		}
		t.Append(vals...)
	}
	return t
}

func cleanHeader(h string, i int) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.TrimSpace(norm.NFC.String(h))
	if h == "" {
		return fmt.Sprintf("column_%d", i+1)
	}
	return h
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func hasExt(path string, exts ...string) bool {
	name := strings.ToLower(path)
	for _, e := range exts {
		if strings.HasSuffix(name, e) {
			return true
		}
	}
	return false
}
