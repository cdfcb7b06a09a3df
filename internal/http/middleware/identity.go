package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderUserID carries the caller identity asserted by the upstream auth
// proxy. The broker trusts it as-is.
const HeaderUserID = "X-User-ID"

// userIDKey is the gin context key holding the caller identity.
const userIDKey = "userID"

// CallerIdentity stores the X-User-ID header under the "userID" context key,
// unless an earlier middleware already put an identity there.
func CallerIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			if h := strings.TrimSpace(c.GetHeader(HeaderUserID)); h != "" {
				c.Set(userIDKey, h)
			}
		}
		c.Next()
	}
}

// UserID returns the caller identity, or "" when the request is anonymous.
func UserID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if v, ok := c.Get(userIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
