package filter

import (
	"fmt"
	"strings"
	"time"
)

// ParseDay parses a YYYY-MM-DD bound in UTC. With endOfDay the bound is
// moved to 23:59:59 so the whole day is included. An empty string yields nil.
func ParseDay(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: want YYYY-MM-DD", s)
	}
	if endOfDay {
		d = d.Add(24*time.Hour - time.Second)
	}
	return &d, nil
}
