// Package server exposes the metric registry over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/KaramelBytes/metricdeck-cli/internal/catalog"
	"github.com/KaramelBytes/metricdeck-cli/internal/dataset"
	"github.com/KaramelBytes/metricdeck-cli/internal/export"
	"github.com/KaramelBytes/metricdeck-cli/internal/filter"
	"github.com/KaramelBytes/metricdeck-cli/internal/registry"
	"github.com/KaramelBytes/metricdeck-cli/internal/table"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// Snapshots is the dataset view the server reads from.
type Snapshots interface {
	Get(ctx context.Context) (*dataset.Snapshot, error)
	Refresh(ctx context.Context) (*dataset.Snapshot, error)
}

type Server struct {
	router   *gin.Engine
	data     Snapshots
	reg      *registry.Registry
	defaults filter.Params
}

// NewServer creates a new server instance. defaults seed every metric
// request before query parameters are applied.
func NewServer(data Snapshots, reg *registry.Registry, defaults filter.Params) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestLog())

	server := &Server{
		router:   router,
		data:     data,
		reg:      reg,
		defaults: defaults,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/health", s.healthCheck)
		api.GET("/areas", s.listAreas)
		api.GET("/metrics", s.listMetrics)
		api.GET("/metrics/:id", s.runMetric)
		api.POST("/refresh", s.refresh)
	}
}

// Handler returns the router for embedding or tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		status := c.Writer.Status()
		attrs := []any{"method", c.Request.Method, "path", c.Request.URL.Path, "status", status}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}
		if status >= http.StatusInternalServerError {
			slog.Warn("request failed", attrs...)
			return
		}
		slog.Debug("request", attrs...)
	}
}

func fail(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.JSON(status, gin.H{"status": "error", "error": err.Error()})
}

func (s *Server) snapshot(c *gin.Context) (*dataset.Snapshot, bool) {
	snap, err := s.data.Get(c.Request.Context())
	if err != nil {
		fail(c, http.StatusServiceUnavailable, fmt.Errorf("dataset unavailable: %w", err))
		return nil, false
	}
	return snap, true
}

func snapshotJSON(snap *dataset.Snapshot) gin.H {
	return gin.H{
		"snapshot":  snap.ID,
		"rows":      snap.Table.Len(),
		"loaded_at": snap.LoadedAt,
	}
}

// healthCheck endpoint for monitoring
func (s *Server) healthCheck(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	h := snapshotJSON(snap)
	h["status"] = "ok"
	h["metrics"] = s.reg.Len()
	c.JSON(http.StatusOK, h)
}

func (s *Server) listAreas(c *gin.Context) {
	areas := lo.Map(s.reg.Areas(), func(a catalog.Area, _ int) gin.H {
		return gin.H{"area": a, "metrics": len(s.reg.List(string(a), ""))}
	})
	c.JSON(http.StatusOK, gin.H{"areas": areas})
}

func (s *Server) listMetrics(c *gin.Context) {
	list := s.reg.List(c.Query("area"), c.Query("q"))
	c.JSON(http.StatusOK, gin.H{"metrics": list, "count": len(list)})
}

func (s *Server) refresh(c *gin.Context) {
	snap, err := s.data.Refresh(c.Request.Context())
	if err != nil {
		fail(c, http.StatusServiceUnavailable, fmt.Errorf("refresh dataset: %w", err))
		return
	}
	h := snapshotJSON(snap)
	h["status"] = "ok"
	c.JSON(http.StatusOK, h)
}

func (s *Server) runMetric(c *gin.Context) {
	id := c.Param("id")
	d, found := s.reg.Lookup(id)
	if !found {
		fail(c, http.StatusNotFound, fmt.Errorf("%w: %s", registry.ErrUnknownMetric, id))
		return
	}
	format := strings.ToLower(c.DefaultQuery("format", "json"))
	if format != "json" && format != "csv" {
		fail(c, http.StatusBadRequest, fmt.Errorf("unsupported format %q", format))
		return
	}
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	p, err := s.params(c, snap.Table)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	out := d.Func(snap.Table, p)

	if format == "csv" {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.ID+".csv"))
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)
		if err := export.WriteCSV(c.Writer, out); err != nil {
			_ = c.Error(err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       d.ID,
		"name":     d.Name,
		"area":     d.Area,
		"snapshot": snap.ID,
		"summary":  export.Summarize(out),
		"columns":  out.Columns(),
		"rows":     rows(out),
	})
}

func rows(t *table.Table) []map[string]any {
	out := make([]map[string]any, t.Len())
	for i := range out {
		out[i] = t.Row(i).Map()
	}
	return out
}

var errBadParam = errors.New("invalid parameter")

// params overlays query parameters on the server defaults.
func (s *Server) params(c *gin.Context, t *table.Table) (filter.Params, error) {
	p := s.defaults
	var err error
	if v, ok := c.GetQuery("from"); ok {
		if p.DateFrom, err = filter.ParseDay(v, false); err != nil {
			return p, fmt.Errorf("%w: from: %v", errBadParam, err)
		}
	}
	if v, ok := c.GetQuery("to"); ok {
		if p.DateTo, err = filter.ParseDay(v, true); err != nil {
			return p, fmt.Errorf("%w: to: %v", errBadParam, err)
		}
	}
	if vs, ok := c.GetQueryArray("channel"); ok {
		p.Channels = vs
	}
	if vs, ok := c.GetQueryArray("seller"); ok {
		p.Sellers = vs
	}
	if vs, ok := c.GetQueryArray("category"); ok {
		p.Categories = vs
	}
	if v, ok := c.GetQuery("top_n"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return p, fmt.Errorf("%w: top_n must be a non-negative integer", errBadParam)
		}
		p.TopN = n
	}
	if v, ok := c.GetQuery("include_canceled"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return p, fmt.Errorf("%w: include_canceled must be a boolean", errBadParam)
		}
		p.IncludeCanceled = b
	}
	if v, ok := c.GetQuery("where"); ok {
		p.Expr = filter.JoinExpr("and", p.Expr, v)
	}
	if p.Expr != "" {
		if err := filter.ValidateExpr(t, p.Expr); err != nil {
			return p, fmt.Errorf("%w: where: %v", errBadParam, err)
		}
	}
	return p, nil
}
