package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"finanzas/internal/auth"
	"finanzas/internal/core"
	"finanzas/internal/middleware/ratelimit"
	"finanzas/internal/storage"
)

const actorKey = "actor"

// requestLogger logs request start and completion with a generated request id.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := generateRequestID()
		c.Set("request_id", requestID)

		ctx := c.Request.Context()
		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", c.Request.Method,
			"url", c.Request.URL.Path,
			"client_ip", c.ClientIP())

		c.Next()

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", c.Request.Method,
			"url", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP())
	}
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// rateLimited rejects requests past the per-IP window with 429.
func rateLimited(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow(c.ClientIP()) {
			slog.WarnContext(c.Request.Context(), "Rate limit exceeded",
				"client_ip", c.ClientIP(),
				"method", c.Request.Method,
				"url", c.Request.URL.Path)
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"message": "rate limit exceeded, try again later",
			})
			return
		}
		c.Next()
	}
}

// authRequired verifies the access token, loads the account and places the
// acting user in the request context. Tokens are accepted from the
// Authorization bearer header or the x-access-token header.
func authRequired(tokens *auth.TokenManager, repo *storage.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c)
		if tokenStr == "" {
			abortError(c, core.ErrUnauthorized("access token is missing"))
			return
		}

		userID, err := tokens.ParseAccessToken(tokenStr)
		if err != nil {
			abortError(c, core.ErrUnauthorized("access token is invalid or expired"))
			return
		}

		user, err := repo.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			abortError(c, err)
			return
		}
		if user == nil {
			abortError(c, core.ErrUnauthorized("access token does not match a known user"))
			return
		}

		c.Set(actorKey, core.Actor{UserID: user.ID, IsAdmin: user.IsAdmin})
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return token
		}
	}
	return c.GetHeader("x-access-token")
}

func actorFrom(c *gin.Context) core.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(core.Actor); ok {
			return actor
		}
	}
	return core.Actor{}
}
