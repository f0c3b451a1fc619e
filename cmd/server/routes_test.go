package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/iqamah/internal/app"
	"github.com/Nixie-Tech-LLC/iqamah/internal/config"
)

func newTestApp(t *testing.T, secret string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		StaticSource:     config.SourceLocal,
		StaticDir:        t.TempDir(),
		Timezone:         "Europe/London",
		CacheTTL:         time.Minute,
		MonthlyCacheSize: 10,
		RamadanCacheSize: 10,
		JWTSecret:        secret,
	}
	a, err := app.Build(context.Background(), cfg, app.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	r := gin.New()
	RegisterRoutes(r, a)
	return r
}

func status(r http.Handler, method, path string) int {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w.Code
}

func TestRoutes(t *testing.T) {
	r := newTestApp(t, "secret")

	assert.Equal(t, http.StatusOK, status(r, http.MethodGet, "/healthz"))
	assert.Equal(t, http.StatusNotFound, status(r, http.MethodGet, "/api/mosques/example-mosque/times?date=2025-03-05"))
	assert.Equal(t, http.StatusUnauthorized, status(r, http.MethodGet, "/api/admin/cache/metrics"))
	assert.Equal(t, http.StatusUnauthorized, status(r, http.MethodPut, "/api/admin/mosques/example-mosque/ramadan"))
}

func TestRoutes_AdminDisabledWithoutSecret(t *testing.T) {
	r := newTestApp(t, "")
	assert.Equal(t, http.StatusNotFound, status(r, http.MethodGet, "/api/admin/cache/metrics"))
	assert.Equal(t, http.StatusOK, status(r, http.MethodGet, "/healthz"))
}
