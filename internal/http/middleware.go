package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserIDKey = "userID"
	ctxClaimsKey = "claims"
)

// requireAuth validates the access token from the cookie or the
// Authorization header and attaches the resolved identity to the request
// context. No database round trip happens here; handlers that need the full
// profile load it themselves.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractAccessToken(c)
		if token == "" {
			h.abortUnauthorized(c, "unauthorized request")
			return
		}

		claims, err := h.sessions.VerifyAccess(token)
		if err != nil {
			h.abortUnauthorized(c, "invalid or expired access token")
			return
		}

		c.Set(ctxUserIDKey, claims.UserID)
		c.Set(ctxClaimsKey, claims)
		c.Next()
	}
}

func extractAccessToken(c *gin.Context) string {
	if cookie, err := c.Cookie(accessCookie); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func (h *Handler) abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
		StatusCode: http.StatusUnauthorized,
		Message:    message,
		Success:    false,
		Errors:     []string{},
	})
}

func corsMiddleware(origin string) gin.HandlerFunc {
	if origin == "" {
		origin = "*"
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// bodyLimitMiddleware caps JSON/form bodies. Multipart uploads are exempt,
// gin's MaxMultipartMemory governs those.
func bodyLimitMiddleware(limitKB int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limitKB > 0 && !strings.HasPrefix(c.ContentType(), "multipart/") {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limitKB<<10)
		}
		c.Next()
	}
}
