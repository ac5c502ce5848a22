package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booktracker/internal/logger"
	"booktracker/internal/metrics"
	synchub "booktracker/internal/sync"
	"booktracker/pkg/database"
	"booktracker/pkg/utils"
)

func TestRouter_OperationalRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "api.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))

	cfg := &utils.Config{Env: "test"}
	hub := synchub.NewHub(nil)
	t.Cleanup(hub.Close)
	r := newRouter(cfg, db, hub, metrics.New(), logger.New(logger.Config{Level: "error"}))

	tests := []struct {
		path string
		code int
		body string
	}{
		{"/health", http.StatusOK, `"status":"ok"`},
		{"/ready", http.StatusOK, `"db":"ok"`},
		{"/api/dashboard", http.StatusOK, `"leyendo":[]`},
		{"/api/datos-generales", http.StatusOK, `"relaciones":[]`},
		{"/metrics", http.StatusOK, "booktracker_http_requests_total"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
			assert.NotEmpty(t, w.Header().Get(logger.RequestIDHeader))
		})
	}

	require.NoError(t, db.Close())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "sql:")
}
