package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCallerIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	serve := func(pre gin.HandlerFunc, header string) string {
		r := gin.New()
		if pre != nil {
			r.Use(pre)
		}
		r.Use(CallerIdentity())
		var got string
		r.GET("/me", func(c *gin.Context) {
			got = UserID(c)
			c.Status(http.StatusNoContent)
		})
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set(HeaderUserID, header)
		}
		r.ServeHTTP(httptest.NewRecorder(), req)
		return got
	}

	if got := serve(nil, "  u-1 "); got != "u-1" {
		t.Fatalf("header identity = %q", got)
	}
	if got := serve(nil, ""); got != "" {
		t.Fatalf("anonymous identity = %q", got)
	}
	proxy := func(c *gin.Context) { c.Set(userIDKey, "from-proxy"); c.Next() }
	if got := serve(proxy, "spoofed"); got != "from-proxy" {
		t.Fatalf("upstream identity must win, got %q", got)
	}
}

func TestUserID_WrongTypeAndNil(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(userIDKey, 42)
	if UserID(c) != "" {
		t.Fatalf("non-string identity must read as empty")
	}
	if UserID(nil) != "" {
		t.Fatalf("nil context must read as empty")
	}
}
