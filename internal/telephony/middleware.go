package telephony

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"voice-receptionist/pkg/logger"

	"github.com/gin-gonic/gin"
)

// TokenVerifier checks tool tokens minted for generated assistant configs.
type TokenVerifier interface {
	VerifyToolToken(token string, now time.Time) (string, error)
}

// RequireSecret authenticates platform webhooks. With an empty static secret
// every request passes. Otherwise X-Vapi-Secret must equal the static secret
// (phone-number level webhooks) or be a valid tool token (assistant level).
func RequireSecret(static string, tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if static == "" {
			c.Next()
			return
		}
		got := strings.TrimSpace(c.GetHeader(headerSecret))
		if got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(static)) == 1 {
			c.Next()
			return
		}
		if got != "" && tokens != nil {
			if _, err := tokens.VerifyToolToken(got, time.Now()); err == nil {
				c.Next()
				return
			}
		}
		logger.FromGin(c).Warn("webhook rejected: bad secret", "client_ip", c.ClientIP())
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
	}
}

// Timeout bounds the request context. Store and lock calls observe it.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
