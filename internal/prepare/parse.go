package prepare

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"2006.01.02 15:04:05",
	"2006.01.02 15:04",
	"2006.01.02",
	"20060102150405",
	"20060102",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/06 15:04",
	"01/02/2006",
}

// parseTimestamp accepts the export layouts above and Excel serial dates.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 1 && f < 2958466 {
		t, err := excelize.ExcelDateToTime(f, false)
		if err == nil {
			return t.Round(time.Second), true
		}
	}
	return time.Time{}, false
}

var numberNoise = strings.NewReplacer(
	" ", "", "\u00a0", "", "원", "", "₩", "", "$", "", "%", "", "+", "",
)

// parseNumber reads amounts such as "12,000", "1.234,5" or "₩ 3,500".
// decimal forces the decimal separator; zero auto-detects.
func parseNumber(s string, decimal rune) (float64, bool) {
	raw := numberNoise.Replace(strings.TrimSpace(s))
	if raw == "" {
		return 0, false
	}
	dec := decimal
	if dec == 0 {
		dec = detectDecimal(raw)
	}
	thou := ','
	if dec == ',' {
		thou = '.'
	}
	raw = strings.ReplaceAll(raw, string(thou), "")
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func detectDecimal(raw string) rune {
	c := strings.LastIndex(raw, ",")
	d := strings.LastIndex(raw, ".")
	switch {
	case c >= 0 && d >= 0:
		if c > d {
			return ','
		}
		return '.'
	case c >= 0:
		// a single comma followed by exactly three digits groups thousands
		if strings.Count(raw, ",") > 1 || len(raw)-c-1 == 3 {
			return '.'
		}
		return ','
	case d >= 0 && strings.Count(raw, ".") > 1:
		return ','
	}
	return '.'
}
