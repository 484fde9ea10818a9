package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/metricdeck-cli/internal/dataset"
	"github.com/KaramelBytes/metricdeck-cli/internal/filter"
	"github.com/KaramelBytes/metricdeck-cli/internal/prepare"
	"github.com/KaramelBytes/metricdeck-cli/internal/registry"
	"github.com/KaramelBytes/metricdeck-cli/internal/table"
	"github.com/gin-gonic/gin"
)

func init() { gin.SetMode(gin.TestMode) }

type stubData struct {
	snap *dataset.Snapshot
	err  error
}

func (s *stubData) Get(context.Context) (*dataset.Snapshot, error) { return s.snap, s.err }

func (s *stubData) Refresh(ctx context.Context) (*dataset.Snapshot, error) { return s.Get(ctx) }

func orders() *table.Table {
	t := table.New(
		table.Col(prepare.OrderTimestamp, table.KindTime),
		table.Col(prepare.Channel, table.KindString),
		table.Col(prepare.OrderStatus, table.KindString),
		table.Col(prepare.LineAmount, table.KindNumber),
	)
	day := func(d int) table.Value { return table.Time(time.Date(2024, 3, d, 9, 0, 0, 0, time.UTC)) }
	t.Append(day(1), table.Str("A"), table.Str("ordered"), table.Num(100))
	t.Append(day(2), table.Str("B"), table.Str("ordered"), table.Num(200))
	t.Append(day(3), table.Str("A"), table.Str(prepare.StatusCanceled), table.Num(50))
	return prepare.Derive(t)
}

func newTestServer(data Snapshots) *Server {
	return NewServer(data, registry.Default(), filter.Params{})
}

func okData() *stubData {
	return &stubData{snap: &dataset.Snapshot{ID: "snap-1", LoadedAt: time.Now(), Table: orders()}}
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	w := do(t, newTestServer(okData()), http.MethodGet, "/api/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	if body["snapshot"] != "snap-1" || body["rows"] != float64(3) {
		t.Fatalf("body = %v", body)
	}
}

func TestLoadFailureIs503(t *testing.T) {
	s := newTestServer(&stubData{err: errors.New("no file")})
	for _, target := range []string{"/api/health", "/api/metrics/A1_001"} {
		if w := do(t, s, http.MethodGet, target); w.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s status = %d", target, w.Code)
		}
	}
	if w := do(t, s, http.MethodPost, "/api/refresh"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("refresh status = %d", w.Code)
	}
}

func TestListing(t *testing.T) {
	s := newTestServer(okData())
	body := decode(t, do(t, s, http.MethodGet, "/api/areas"))
	if areas, _ := body["areas"].([]any); len(areas) != 6 {
		t.Fatalf("areas = %v", body["areas"])
	}
	body = decode(t, do(t, s, http.MethodGet, "/api/metrics?area=trend&q=weekly"))
	if body["count"] != float64(2) {
		t.Fatalf("count = %v", body["count"])
	}
}

func TestRunMetricJSON(t *testing.T) {
	w := do(t, newTestServer(okData()), http.MethodGet, "/api/metrics/A1_001?channel=A&channel=B&include_canceled=true")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	body := decode(t, w)
	rows, _ := body["rows"].([]any)
	if len(rows) != 2 {
		t.Fatalf("rows = %v", body["rows"])
	}
	first, _ := rows[0].(map[string]any)
	if first[prepare.Channel] != "B" || first["share_pct"] != float64(57.14) {
		t.Fatalf("first row = %v", first)
	}
}

func TestRunMetricDateWindow(t *testing.T) {
	w := do(t, newTestServer(okData()), http.MethodGet, "/api/metrics/A1_001?from=2024-03-01&to=2024-03-01")
	rows, _ := decode(t, w)["rows"].([]any)
	if len(rows) != 1 {
		t.Fatalf("rows = %v", rows)
	}
}

func TestRunMetricCSV(t *testing.T) {
	w := do(t, newTestServer(okData()), http.MethodGet, "/api/metrics/a1_001?format=csv")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "\ufeffchannel,total_revenue,share_pct\n") {
		t.Fatalf("csv = %q", w.Body.String())
	}
}

func TestRunMetricErrors(t *testing.T) {
	s := newTestServer(okData())
	cases := []struct {
		target string
		code   int
	}{
		{"/api/metrics/A9_999", http.StatusNotFound},
		{"/api/metrics/A1_001?from=yesterday", http.StatusBadRequest},
		{"/api/metrics/A1_001?top_n=-1", http.StatusBadRequest},
		{"/api/metrics/A1_001?include_canceled=maybe", http.StatusBadRequest},
		{"/api/metrics/A1_001?where=line_amount%20%3E", http.StatusBadRequest},
		{"/api/metrics/A1_001?format=xml", http.StatusBadRequest},
		{"/api/metrics/A1_001?where=line_amount%20%3E%20150", http.StatusOK},
	}
	for _, c := range cases {
		if w := do(t, s, http.MethodGet, c.target); w.Code != c.code {
			t.Fatalf("%s status = %d, want %d: %s", c.target, w.Code, c.code, w.Body)
		}
	}
}
