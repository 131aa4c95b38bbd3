package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"itemsclassification/internal/metrics"
)

func newEngine(middleware ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(middleware...)
	engine.GET("/ping", func(c *gin.Context) { RespondOK(c, "pong") })
	return engine
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	engine := newEngine(CORS([]string{"https://app.example.com"}))

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := serve(engine, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = serve(engine, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSAllowAll(t *testing.T) {
	engine := newEngine(CORS([]string{"*"}))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := serve(engine, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSListedOriginWithWildcard(t *testing.T) {
	engine := newEngine(CORS([]string{"*", "https://app.example.com"}))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := serve(engine, req)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://other.example.com")
	w = serve(engine, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRateLimit(t *testing.T) {
	engine := newEngine(RateLimit(0.001, 2))

	ping := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(engine, req).Code
	}

	assert.Equal(t, http.StatusOK, ping("10.0.0.1"))
	assert.Equal(t, http.StatusOK, ping("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, ping("10.0.0.1"))
	// Limits are per client.
	assert.Equal(t, http.StatusOK, ping("10.0.0.2"))
}

func TestRateLimitDisabled(t *testing.T) {
	engine := newEngine(RateLimit(0, 0))

	for i := 0; i < 10; i++ {
		w := serve(engine, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestMetricsAndLogging(t *testing.T) {
	engine := newEngine(RequestLogger(zaptest.NewLogger(t).Sugar()), Metrics())

	before := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/ping", "200"))
	serve(engine, httptest.NewRequest(http.MethodGet, "/ping", nil))
	serve(engine, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/ping", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodGet, "unmatched", "404")))
}
