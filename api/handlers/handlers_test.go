package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/onec-docsearch/internal/archive"
	"github.com/feichai0017/onec-docsearch/internal/ingest"
	"github.com/feichai0017/onec-docsearch/internal/models"
	"github.com/feichai0017/onec-docsearch/pkg/logger"
)

type stubStore struct {
	pingErr error
	exists  bool
	count   int64
}

func (s *stubStore) Ping(context.Context) error                           { return s.pingErr }
func (s *stubStore) IndexExists(context.Context) (bool, error)            { return s.exists, nil }
func (s *stubStore) Count(context.Context) (int64, error)                 { return s.count, nil }
func (s *stubStore) Recreate(context.Context) error                       { return nil }
func (s *stubStore) BulkUpsert(context.Context, []models.ReferenceDocument) error { return nil }
func (s *stubStore) Refresh(context.Context) error                        { return nil }

func newTestHandlers(t *testing.T, st *stubStore, defaultArchivePath string) *Handlers {
	t.Helper()
	log := logger.NewTestLogger()
	orch := ingest.NewOrchestrator(log, ingest.DefaultConfig(), archive.DefaultConfig())
	manager := ingest.NewManager(log, orch, 100, 0)
	return NewHandlers(manager, orch, st, defaultArchivePath, log)
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reqBody *strings.Reader
	if body == "" {
		reqBody = strings.NewReader("")
	} else {
		reqBody = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reqBody)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func newRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/v1/health", h.Health.Health)
	r.GET("/api/v1/index/status", h.Index.Status)
	r.POST("/api/v1/index/rebuild", h.Index.Rebuild)
	r.POST("/api/v1/archive/preview", h.Archive.Preview)
	return r
}

func TestHealthOK(t *testing.T) {
	h := newTestHandlers(t, &stubStore{}, "")
	w := serve(newRouter(h), http.MethodGet, "/api/v1/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["elasticsearch_connected"])
}

func TestHealthDegraded(t *testing.T) {
	h := newTestHandlers(t, &stubStore{pingErr: errors.New("refused")}, "")
	w := serve(newRouter(h), http.MethodGet, "/api/v1/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, false, body["elasticsearch_connected"])
}

func TestIndexStatusIdle(t *testing.T) {
	h := newTestHandlers(t, &stubStore{exists: true, count: 42}, "")
	w := serve(newRouter(h), http.MethodGet, "/api/v1/index/status", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "idle", body["status"])
	assert.Equal(t, float64(0), body["progress_percent"])

	index, ok := body["index"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, index["exists"])
	assert.Equal(t, float64(42), index["documents"])
}

func TestRebuildWithoutPath(t *testing.T) {
	h := newTestHandlers(t, &stubStore{}, "")
	w := serve(newRouter(h), http.MethodPost, "/api/v1/index/rebuild", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRebuildRejectedSource(t *testing.T) {
	h := newTestHandlers(t, &stubStore{}, "/nonexistent/help.hbk")
	w := serve(newRouter(h), http.MethodPost, "/api/v1/index/rebuild", "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decodeBody(t, w)
	assert.Contains(t, body["error"], "not found")
}

func TestRebuildBodyOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("x"), 0o644))

	h := newTestHandlers(t, &stubStore{}, "")
	w := serve(newRouter(h), http.MethodPost, "/api/v1/index/rebuild",
		`{"file_path": "`+strings.ReplaceAll(bad, `\`, `/`)+`"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decodeBody(t, w)
	assert.Contains(t, body["error"], "unsupported extension")
}

func TestRebuildInvalidBody(t *testing.T) {
	h := newTestHandlers(t, &stubStore{}, "")
	w := serve(newRouter(h), http.MethodPost, "/api/v1/index/rebuild", "{not json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreviewWithoutPath(t *testing.T) {
	h := newTestHandlers(t, &stubStore{}, "")
	w := serve(newRouter(h), http.MethodPost, "/api/v1/archive/preview", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreviewRejectedSource(t *testing.T) {
	h := newTestHandlers(t, &stubStore{}, "/nonexistent/help.hbk")
	w := serve(newRouter(h), http.MethodPost, "/api/v1/archive/preview", "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
