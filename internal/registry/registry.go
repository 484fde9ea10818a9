// Package registry indexes the metric catalog for lookup and listing.
package registry

import (
	"errors"
	"strings"
	"sync"

	"github.com/KaramelBytes/metricdeck-cli/internal/catalog"
)

// ErrUnknownMetric is returned by callers that require a metric to exist.
var ErrUnknownMetric = errors.New("unknown metric")

// Descriptor describes one registered metric.
type Descriptor struct {
	ID   string       `json:"id" yaml:"id"`
	Name string       `json:"name" yaml:"name"`
	Area catalog.Area `json:"area" yaml:"area"`
	Func catalog.Func `json:"-" yaml:"-"`
}

// Registry is an immutable, ordered set of metrics.
type Registry struct {
	list []Descriptor
	byID map[string]int
}

// New builds a registry from entries, keeping declaration order. Later
// duplicates of an id are ignored.
func New(entries []catalog.Entry) *Registry {
	r := &Registry{byID: make(map[string]int, len(entries))}
	for _, e := range entries {
		key := strings.ToUpper(e.ID)
		if _, dup := r.byID[key]; dup {
			continue
		}
		r.byID[key] = len(r.list)
		r.list = append(r.list, Descriptor{ID: e.ID, Name: e.Name, Area: e.Area, Func: e.Func})
	}
	return r
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the registry of the built-in catalog.
func Default() *Registry {
	defaultOnce.Do(func() { defaultReg = New(catalog.Entries()) })
	return defaultReg
}

// Areas lists the metric areas in order.
func (r *Registry) Areas() []catalog.Area {
	return append([]catalog.Area(nil), catalog.Areas...)
}

// Len reports the number of metrics.
func (r *Registry) Len() int { return len(r.list) }

// List returns metrics in area (all when empty) whose id or name contains
// query, case-insensitively.
func (r *Registry) List(area, query string) []Descriptor {
	area = strings.ToLower(strings.TrimSpace(area))
	q := strings.ToLower(strings.TrimSpace(query))
	out := []Descriptor{}
	for _, d := range r.list {
		if area != "" && string(d.Area) != area {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(d.ID), q) && !strings.Contains(strings.ToLower(d.Name), q) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Lookup finds a metric by id. Ids match case-insensitively.
func (r *Registry) Lookup(id string) (Descriptor, bool) {
	i, ok := r.byID[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		return Descriptor{}, false
	}
	return r.list[i], true
}
