package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/duynguyendang/quadcql/pkg/common/errors"
	"github.com/duynguyendang/quadcql/pkg/cql"
	"github.com/duynguyendang/quadcql/pkg/graph"
	"github.com/duynguyendang/quadcql/pkg/rdf"
	"github.com/gin-gonic/gin"
)

// QuadJSON is a quad or pattern with every term in N-Triples syntax. Empty
// terms are wildcards.
type QuadJSON struct {
	Graph     string `json:"graph"`
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

func (q QuadJSON) parse() (rdf.Quad, error) {
	return rdf.ParseQuad(q.Graph, q.Subject, q.Predicate, q.Object)
}

func toJSON(q rdf.Quad) QuadJSON {
	return QuadJSON{
		Graph:     q.Graph.String(),
		Subject:   q.Subject.String(),
		Predicate: q.Predicate.String(),
		Object:    q.Object.String(),
	}
}

// PatternRequest is the body of /v1/plan and /v1/find.
type PatternRequest struct {
	Keyspace   string   `json:"keyspace"`
	Pattern    QuadJSON `json:"pattern"`
	ExtraWhere string   `json:"extra_where"`
	Suffix     string   `json:"suffix"`
	Limit      int      `json:"limit"`
}

func (r *PatternRequest) info() *cql.QueryInfo {
	return &cql.QueryInfo{ExtraWhere: r.ExtraWhere, Suffix: r.Suffix, Limit: r.Limit}
}

// QuadsRequest is the body of /v1/quads.
type QuadsRequest struct {
	Keyspace string     `json:"keyspace"`
	Quads    []QuadJSON `json:"quads"`
}

// FindResponse is returned by /v1/find.
type FindResponse struct {
	Quads []QuadJSON `json:"quads"`
	Count int        `json:"count"`
}

func handleError(c *gin.Context, err error) {
	appErr := errors.MapError(err)
	if appErr.Code >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(appErr.Code, gin.H{"error": appErr.Error()})
}

func badRequest(c *gin.Context, err error) {
	handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
}

func (s *Server) keyspace(name string) string {
	if name == "" {
		return s.cfg.Keyspace
	}
	return name
}

// handleKeyspaces lists the keyspaces under the data dir.
func (s *Server) handleKeyspaces(c *gin.Context) {
	list, err := s.manager.ListKeyspaces()
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// handleSchema returns the DDL for ?keyspace=.
func (s *Server) handleSchema(c *gin.Context) {
	ks := s.keyspace(c.Query("keyspace"))
	c.JSON(http.StatusOK, gin.H{"keyspace": ks, "statements": cql.Schema(ks, s.cfg.ReplicationFactor)})
}

// handlePlan explains a pattern without reading the store.
func (s *Server) handlePlan(c *gin.Context) {
	var req PatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	q, err := req.Pattern.parse()
	if err != nil {
		handleError(c, err)
		return
	}
	plan, err := graph.Explain(s.keyspace(req.Keyspace), q, req.info())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// handleFind runs a pattern against the keyspace.
func (s *Server) handleFind(c *gin.Context) {
	var req PatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	q, err := req.Pattern.parse()
	if err != nil {
		handleError(c, err)
		return
	}
	g, err := s.manager.Graph(s.keyspace(req.Keyspace))
	if err != nil {
		handleError(c, err)
		return
	}
	quads, err := g.FindAll(c.Request.Context(), q, req.info())
	if err != nil {
		handleError(c, err)
		return
	}
	resp := FindResponse{Quads: make([]QuadJSON, 0, len(quads)), Count: len(quads)}
	for _, fq := range quads {
		resp.Quads = append(resp.Quads, toJSON(fq))
	}
	c.JSON(http.StatusOK, resp)
}

// handleInsert adds concrete quads, creating the keyspace on first use.
func (s *Server) handleInsert(c *gin.Context) {
	var req QuadsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	quads, err := parseAll(req.Quads)
	if err != nil {
		handleError(c, err)
		return
	}
	g, err := s.manager.Create(s.keyspace(req.Keyspace))
	if err != nil {
		handleError(c, err)
		return
	}
	for i, q := range quads {
		if err := g.Add(c.Request.Context(), q); err != nil {
			c.JSON(errors.MapError(err).Code, gin.H{"error": err.Error(), "inserted": i})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"inserted": len(quads)})
}

// handleDelete removes concrete quads; a pattern removes everything it matches.
func (s *Server) handleDelete(c *gin.Context) {
	var req QuadsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	quads, err := parseAll(req.Quads)
	if err != nil {
		handleError(c, err)
		return
	}
	g, err := s.manager.Graph(s.keyspace(req.Keyspace))
	if err != nil {
		handleError(c, err)
		return
	}
	deleted := 0
	for _, q := range quads {
		if q.IsConcrete() {
			var ok bool
			ok, err = g.Remove(c.Request.Context(), q)
			if ok && err == nil {
				deleted++
			}
		} else {
			var n int
			n, err = g.DeleteMatching(c.Request.Context(), q)
			deleted += n
		}
		if err != nil {
			c.JSON(errors.MapError(err).Code, gin.H{"error": err.Error(), "deleted": deleted})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func parseAll(in []QuadJSON) ([]rdf.Quad, error) {
	out := make([]rdf.Quad, 0, len(in))
	for _, j := range in {
		q, err := j.parse()
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
