package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"tradepost/config"

	"github.com/gin-gonic/gin"
)

func performFrom(r http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddlewareUsesConfiguredLimit(t *testing.T) {
	prev := config.AppConfig.MaxRequestsPerMin
	config.AppConfig.MaxRequestsPerMin = 3
	defer func() { config.AppConfig.MaxRequestsPerMin = prev }()

	r := gin.New()
	r.Use(RateLimitMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		if w := performFrom(r, "198.51.100.7:4000"); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, w.Code)
		}
	}
	if w := performFrom(r, "198.51.100.7:4000"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("over-limit request: status = %d, want 429", w.Code)
	}

	// Limits are per client IP.
	if w := performFrom(r, "198.51.100.8:4000"); w.Code != http.StatusOK {
		t.Fatalf("other client: status = %d, want 200", w.Code)
	}
}
