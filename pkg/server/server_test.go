package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/duynguyendang/quadcql/internal/manager"
	"github.com/duynguyendang/quadcql/pkg/config"
	"github.com/duynguyendang/quadcql/pkg/graph"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Backend = config.BackendSQLite
	cfg.Keyspace = "test"
	mgr, err := manager.NewKeyspaceManager(cfg)
	require.NoError(t, err)
	t.Cleanup(mgr.CloseAll)
	return NewServer(mgr, cfg)
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler().ServeHTTP(w, req)
	return w
}

const seed = `{"quads": [
	{"graph": "<http://ex/g>", "subject": "<http://ex/alice>", "predicate": "<http://ex/knows>", "object": "<http://ex/bob>"},
	{"graph": "<http://ex/g>", "subject": "<http://ex/alice>", "predicate": "<http://ex/age>", "object": "\"42\"^^xsd:int"},
	{"graph": "<http://ex/h>", "subject": "<http://ex/carol>", "predicate": "<http://ex/knows>", "object": "<http://ex/bob>"}
]}`

func TestHealthCheck(t *testing.T) {
	srv := setupTestServer(t)
	w := do(t, srv, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPlan(t *testing.T) {
	srv := setupTestServer(t)
	body := `{"pattern": {"graph": "<http://ex/g>", "predicate": "<http://ex/p>"}, "limit": 3}`
	w := do(t, srv, "POST", "/v1/plan", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var plan graph.Plan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assert.Equal(t, "POGS", plan.Table)
	assert.True(t, plan.HasGaps)
	assert.True(t, strings.HasPrefix(plan.Query, "SELECT subject, predicate, object, graph, lang, dtype FROM test.POGS WHERE predicate=0x"))
	assert.True(t, strings.HasSuffix(plan.Query, " LIMIT 3"))
	assert.Len(t, plan.Cascade, 3)
}

func TestPlanRejectsLiteralSubject(t *testing.T) {
	srv := setupTestServer(t)
	w := do(t, srv, "POST", "/v1/plan", `{"pattern": {"subject": "\"x\""}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, "POST", "/v1/plan", `{"pattern": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInsertFindDelete(t *testing.T) {
	srv := setupTestServer(t)

	w := do(t, srv, "POST", "/v1/quads", seed)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"inserted": 3}`, w.Body.String())

	w = do(t, srv, "POST", "/v1/find", `{"pattern": {"object": "<http://ex/bob>"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var found FindResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	assert.Equal(t, 2, found.Count)

	w = do(t, srv, "POST", "/v1/find", `{"pattern": {"object": "\"42.00\"^^xsd:int"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	require.Equal(t, 1, found.Count)
	assert.Equal(t, "<http://ex/alice>", found.Quads[0].Subject)

	w = do(t, srv, "DELETE", "/v1/quads", `{"quads": [{"graph": "<http://ex/g>"}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"deleted": 2}`, w.Body.String())

	w = do(t, srv, "POST", "/v1/find", `{"pattern": {}}`)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	assert.Equal(t, 1, found.Count)
}

func TestDeleteCountsOnlyStoredQuads(t *testing.T) {
	srv := setupTestServer(t)
	w := do(t, srv, "POST", "/v1/quads", seed)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	sameValue := `{"quads": [{"graph": "<http://ex/g>", "subject": "<http://ex/alice>", "predicate": "<http://ex/age>", "object": "\"42.0\"^^xsd:int"}]}`
	w = do(t, srv, "DELETE", "/v1/quads", sameValue)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"deleted": 0}`, w.Body.String())

	stored := `{"quads": [{"graph": "<http://ex/g>", "subject": "<http://ex/alice>", "predicate": "<http://ex/age>", "object": "\"42\"^^xsd:int"}]}`
	w = do(t, srv, "DELETE", "/v1/quads", stored)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"deleted": 1}`, w.Body.String())

	w = do(t, srv, "DELETE", "/v1/quads", stored)
	assert.JSONEq(t, `{"deleted": 0}`, w.Body.String())
}

func TestInsertRejectsWildcard(t *testing.T) {
	srv := setupTestServer(t)
	w := do(t, srv, "POST", "/v1/quads", `{"quads": [{"graph": "<http://ex/g>", "subject": "<http://ex/s>"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFindUnknownKeyspace(t *testing.T) {
	srv := setupTestServer(t)
	w := do(t, srv, "POST", "/v1/find", `{"keyspace": "nope", "pattern": {}}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestKeyspacesAndSchema(t *testing.T) {
	srv := setupTestServer(t)
	do(t, srv, "POST", "/v1/quads", seed)

	w := do(t, srv, "GET", "/v1/keyspaces", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []manager.KeyspaceMetadata
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "test", list[0].Name)

	w = do(t, srv, "GET", "/v1/schema?keyspace=music", "")
	require.Equal(t, http.StatusOK, w.Code)
	var schema struct {
		Keyspace   string   `json:"keyspace"`
		Statements []string `json:"statements"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &schema))
	assert.Equal(t, "music", schema.Keyspace)
	assert.Len(t, schema.Statements, 1+4*4)
}
