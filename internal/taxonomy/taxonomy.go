// Package taxonomy maps category codes to human-readable names using an
// optional (Depth, Code, Name) reference table.
package taxonomy

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/KaramelBytes/metricdeck-cli/internal/prepare"
	"github.com/KaramelBytes/metricdeck-cli/internal/table"
)

// Enrichment columns.
const (
	ColMidName = "category_mid_name"
	ColSubCode = "category_sub_code"
	ColSubName = "category_sub_name"
)

// Uncategorized labels rows with no usable code or no taxonomy.
const Uncategorized = "uncategorized"

const (
	depthMid = 2
	depthSub = 3
)

// Taxonomy holds the mid (depth 2) and sub (depth 3) code names.
type Taxonomy struct {
	mid *level
	sub *level
}

// level maps codes to names. padded maps each zero-padded code to the first
// code in file order that pads to it.
type level struct {
	width  int
	names  map[string]string
	padded map[string]string
}

func newLevel(width int) *level {
	return &level{width: width, names: map[string]string{}, padded: map[string]string{}}
}

func (l *level) add(code, name string) {
	l.names[code] = name
	p := zfill(code, l.width)
	if _, ok := l.padded[p]; !ok {
		l.padded[p] = code
	}
}

func (l *level) lookup(code string) (string, bool) {
	if name, ok := l.names[code]; ok {
		return name, true
	}
	if k, ok := l.padded[zfill(code, l.width)]; ok {
		return l.names[k], true
	}
	return "", false
}

// Parse reads a CSV with Depth, Code and Name columns (any order, extra
// columns ignored).
func Parse(r io.Reader) (*Taxonomy, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read taxonomy header: %w", err)
	}
	pos := map[string]int{}
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	di, dok := pos["depth"]
	ci, cok := pos["code"]
	ni, nok := pos["name"]
	if !dok || !cok || !nok {
		return nil, fmt.Errorf("taxonomy requires Depth, Code and Name columns, got %v", header)
	}
	tx := &Taxonomy{mid: newLevel(5), sub: newLevel(9)}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read taxonomy: %w", err)
		}
		if len(rec) <= di || len(rec) <= ci || len(rec) <= ni {
			continue
		}
		depth, err := strconv.Atoi(strings.TrimSpace(rec[di]))
		if err != nil {
			continue
		}
		code := normalizeCode(rec[ci])
		name := strings.TrimSpace(rec[ni])
		switch depth {
		case depthMid:
			tx.mid.add(code, name)
		case depthSub:
			tx.sub.add(code, name)
		}
	}
	return tx, nil
}

// MidName returns the name for a mid-level code.
func (tx *Taxonomy) MidName(code string) string {
	if code == "" || tx == nil {
		return Uncategorized
	}
	if name, ok := tx.mid.lookup(code); ok {
		return name
	}
	return "unclassified_" + code
}

// SubName returns the name for a sub-level code, falling back to the
// mid-level name of its first five digits.
func (tx *Taxonomy) SubName(code string) string {
	if code == "" || tx == nil {
		return Uncategorized
	}
	if name, ok := tx.sub.lookup(code); ok {
		return name
	}
	mid := code
	if len(mid) > 5 {
		mid = mid[:5]
	}
	if name, ok := tx.mid.names[mid]; ok {
		return name + " (sub-unclassified)"
	}
	return "unclassified_" + code
}

func zfill(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func normalizeCode(s string) string {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".0")
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func subCode(code string) string {
	switch {
	case len(code) >= 9:
		return code[:9]
	case len(code) >= 5:
		return code[:5]
	}
	return code
}

// Enrich adds mid name, sub code and sub name columns derived from
// category_code. A nil taxonomy labels every row Uncategorized.
func Enrich(t *table.Table, tx *Taxonomy) *table.Table {
	if t.HasAll(ColMidName, ColSubCode, ColSubName) {
		return t
	}
	code := func(r table.Record) string { return normalizeCode(r.Get(prepare.CategoryCode).String()) }
	mid := func(c string) string {
		if len(c) > 5 {
			return c[:5]
		}
		return c
	}
	t = t.WithColumn(ColMidName, table.KindString, func(r table.Record) table.Value {
		return table.Str(tx.MidName(mid(code(r))))
	})
	t = t.WithColumn(ColSubCode, table.KindString, func(r table.Record) table.Value {
		c := code(r)
		if c == "" {
			return table.Null(table.KindString)
		}
		return table.Str(subCode(c))
	})
	return t.WithColumn(ColSubName, table.KindString, func(r table.Record) table.Value {
		return table.Str(tx.SubName(subCode(code(r))))
	})
}

// Loader loads a taxonomy file once and hands out the same instance.
type Loader struct {
	Path string

	once sync.Once
	tx   *Taxonomy
	err  error
}

// NewLoader returns a loader for path. An empty path yields a nil taxonomy.
func NewLoader(path string) *Loader { return &Loader{Path: path} }

// Get returns the loaded taxonomy. A missing file is not an error and
// returns nil; a malformed file is.
func (l *Loader) Get() (*Taxonomy, error) {
	l.once.Do(func() {
		if strings.TrimSpace(l.Path) == "" {
			return
		}
		f, err := os.Open(l.Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return
			}
			l.err = fmt.Errorf("open taxonomy: %w", err)
			return
		}
		defer f.Close()
		l.tx, l.err = Parse(f)
	})
	return l.tx, l.err
}
