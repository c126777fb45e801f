package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-records-api/internal/service"
	"github.com/noah-isme/campus-records-api/pkg/config"
	reqidmiddleware "github.com/noah-isme/campus-records-api/pkg/middleware/requestid"
)

type pingRoutes struct{}

func (pingRoutes) Register(rg gin.IRouter) {
	rg.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
}

func newTestEngine(env string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Env: env, ServiceName: "enrollments-service"}
	return New(Options{Config: cfg, Logger: zap.NewNop(), Metrics: service.NewMetricsService()}, pingRoutes{})
}

func TestNewMountsRoutesAndMiddleware(t *testing.T) {
	r := newTestEngine(config.EnvDevelopment)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Len(t, w.Header().Get(reqidmiddleware.HeaderKey), 36)

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `path="/ping"`)
}

func TestNewHidesDocsInProduction(t *testing.T) {
	dev := newTestEngine(config.EnvDevelopment)
	w := httptest.NewRecorder()
	dev.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs/doc.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	prod := newTestEngine(config.EnvProduction)
	w = httptest.NewRecorder()
	prod.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs/doc.json", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	gin.SetMode(gin.TestMode)
}
