package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"standup-tracker/config"
	"standup-tracker/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestManager() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-at-least-16",
		AccessTokenTTL: time.Hour,
	})
}

func newAuthEngine(mgr *jwt.Manager, roles ...string) *gin.Engine {
	r := gin.New()
	chain := []gin.HandlerFunc{JWTAuth(mgr, nil, zap.NewNop())}
	if len(roles) > 0 {
		chain = append(chain, RoleAuth(roles...))
	}
	chain = append(chain, func(c *gin.Context) {
		id, _ := c.Get(CtxUserID)
		ttl, _ := c.Get(CtxTokenExp)
		if id.(int64) != 42 || ttl.(time.Duration) <= 0 || c.GetString(CtxTokenJTI) == "" {
			c.Status(http.StatusTeapot)
			return
		}
		c.Status(http.StatusOK)
	})
	r.GET("/p", chain...)
	return r
}

func doGet(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/p", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	mgr := newTestManager()
	token, err := mgr.GenerateAccessToken(42, "member")
	if err != nil {
		t.Fatalf("生成 Token 失败: %v", err)
	}
	r := newAuthEngine(mgr)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"Valid", "Bearer " + token, http.StatusOK},
		{"Missing", "", http.StatusUnauthorized},
		{"WrongScheme", "Basic " + token, http.StatusUnauthorized},
		{"Garbage", "Bearer not-a-token", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := doGet(r, tt.header); w.Code != tt.want {
				t.Errorf("期望 %d，实际 %d", tt.want, w.Code)
			}
		})
	}
}

func TestJWTAuth_RejectsForeignSecret(t *testing.T) {
	other := jwt.NewManager(&config.AuthConfig{JWTSecret: "another-secret-0123456", AccessTokenTTL: time.Hour})
	token, _ := other.GenerateAccessToken(42, "admin")

	if w := doGet(newAuthEngine(newTestManager()), "Bearer "+token); w.Code != http.StatusUnauthorized {
		t.Errorf("其他密钥签发的 Token 应被拒绝，实际 %d", w.Code)
	}
}

func TestRoleAuth(t *testing.T) {
	mgr := newTestManager()
	r := newAuthEngine(mgr, "admin")

	member, _ := mgr.GenerateAccessToken(42, "member")
	if w := doGet(r, "Bearer "+member); w.Code != http.StatusForbidden {
		t.Errorf("普通成员访问管理接口期望 403，实际 %d", w.Code)
	}
	admin, _ := mgr.GenerateAccessToken(42, "admin")
	if w := doGet(r, "Bearer "+admin); w.Code != http.StatusOK {
		t.Errorf("管理员期望 200，实际 %d", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/p", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	req := httptest.NewRequest("GET", "/p", nil)
	req.Header.Set(headerRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc-123" || w.Header().Get(headerRequestID) != "abc-123" {
		t.Errorf("应沿用上游 Request-ID，实际 body=%q header=%q", w.Body.String(), w.Header().Get(headerRequestID))
	}

	req = httptest.NewRequest("GET", "/p", nil)
	req.Header.Set(headerRequestID, strings.Repeat("x", requestIDMaxLen+1))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Body.String(); len(got) != 36 {
		t.Errorf("超长 Request-ID 应重新生成 UUID，实际 %q", got)
	}
}

func TestRateLimit_WithoutRedisPassesThrough(t *testing.T) {
	r := gin.New()
	r.GET("/p", RateLimit(nil, 1, time.Minute, zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/p", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("未启用 Redis 时不应限流，第 %d 次返回 %d", i+1, w.Code)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/p", nil))
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("缺少 X-Content-Type-Options 头")
	}
	if !strings.Contains(w.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'") {
		t.Errorf("CSP 不正确: %s", w.Header().Get("Content-Security-Policy"))
	}
}
