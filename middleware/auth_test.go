package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tradepost/utils"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func identityEcho(c *gin.Context) {
	userID, _ := c.Get("userID")
	role, _ := c.Get("role")
	c.JSON(http.StatusOK, gin.H{"userID": userID, "role": role})
}

func perform(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/probe", JWTAuthMiddleware(), identityEcho)

	if w := perform(r, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing header: status = %d, want 401", w.Code)
	}
	if w := perform(r, "Basic abc"); w.Code != http.StatusUnauthorized {
		t.Fatalf("non-bearer header: status = %d, want 401", w.Code)
	}
	if w := perform(r, "Bearer not-a-token"); w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status = %d, want 401", w.Code)
	}

	token, err := utils.GenerateToken("user-1", "trader@example.com", "user", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if w := perform(r, "Bearer "+token); w.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, want 200", w.Code)
	}
}

func TestOptionalJWTAuthMiddlewareNeverRejects(t *testing.T) {
	r := gin.New()
	r.GET("/probe", OptionalJWTAuthMiddleware(), identityEcho)

	// Anonymous and malformed callers both pass through without identity.
	if w := perform(r, ""); w.Code != http.StatusOK {
		t.Fatalf("anonymous: status = %d, want 200", w.Code)
	}
	if w := perform(r, "Bearer junk"); w.Code != http.StatusOK {
		t.Fatalf("bad token: status = %d, want 200", w.Code)
	}

	token, err := utils.GenerateToken("user-1", "trader@example.com", "moderator", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	w := perform(r, "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, want 200", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, "user-1") || !strings.Contains(body, "moderator") {
		t.Fatalf("identity not propagated: %s", body)
	}
}

func TestModeratorOnlyMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/probe", func(c *gin.Context) {
		c.Set("role", c.Query("role"))
		c.Next()
	}, ModeratorOnlyMiddleware(), identityEcho)

	req := httptest.NewRequest(http.MethodGet, "/probe?role=user", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("user role: status = %d, want 403", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/probe?role=moderator", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("moderator role: status = %d, want 200", w.Code)
	}
}
