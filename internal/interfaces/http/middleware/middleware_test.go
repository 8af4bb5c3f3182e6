package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/monitoring/logging"
	monitoring "github.com/turtacn/RAC-Descriptors/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/RAC-Descriptors/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	var seen, fromCtx string
	r.GET("/x", func(c *gin.Context) {
		seen = GetRequestID(c)
		fromCtx = logging.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, fromCtx)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = serve(r, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRequestLogging_LevelsByStatus(t *testing.T) {
	logger := testutil.NewMockLogger()
	r := gin.New()
	r.Use(RequestID(), RequestLogging(logger, nil, DefaultLoggingConfig()))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, p := range []string{"/ok", "/bad", "/boom", "/healthz"} {
		serve(r, httptest.NewRequest(http.MethodGet, p, nil))
	}

	assert.True(t, logger.HasMessage("info", "HTTP request completed"))
	assert.True(t, logger.HasMessage("warn", "HTTP request completed with client error"))
	assert.True(t, logger.HasMessage("error", "HTTP request completed with server error"))
	assert.Len(t, logger.GetMessages(), 3)

	msg := logger.MessagesAt("info")[0]
	status, ok := msg.Field("status")
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
}

func TestRequestLogging_RecordsMetrics(t *testing.T) {
	collector, err := monitoring.NewMetricsCollector(monitoring.CollectorConfig{Namespace: "mw"}, nil)
	require.NoError(t, err)
	r := gin.New()
	r.Use(RequestLogging(testutil.NewMockLogger(), monitoring.NewRACMetrics(collector), DefaultLoggingConfig()))
	r.GET("/api/v1/elements/:symbol", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/elements/C", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/elements/O", nil))

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `mw_http_requests_total{method="GET",path="/api/v1/elements/:symbol",status_code="200"} 2`)
}

func TestRecovery(t *testing.T) {
	logger := testutil.NewMockLogger()
	r := gin.New()
	r.Use(Recovery(logger))
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "COMMON_001", body["code"])
	assert.True(t, logger.HasMessage("error", "panic recovered"))
}

func TestCORS(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://app.example.org", "*.lab.example.org"}
	r := gin.New()
	r.Use(CORS(cfg))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name   string
		method string
		origin string
		code   int
		allow  string
	}{
		{"exact origin", http.MethodGet, "https://app.example.org", http.StatusOK, "https://app.example.org"},
		{"subdomain", http.MethodGet, "https://chem.lab.example.org", http.StatusOK, "https://chem.lab.example.org"},
		{"preflight", http.MethodOptions, "https://app.example.org", http.StatusNoContent, "https://app.example.org"},
		{"foreign origin", http.MethodGet, "https://evil.test", http.StatusOK, ""},
		{"no origin", http.MethodGet, "", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/x", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := serve(r, req)
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.allow, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
