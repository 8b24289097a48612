package auth

import (
	"net/http"
	"strings"
	"time"

	"voice-receptionist/pkg/logger"

	"github.com/gin-gonic/gin"
)

func bearerToken(header string) (string, bool) {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

// RequireAccessToken admits admin API callers holding a valid access token.
// Refresh and tool tokens are rejected. The caller's identity goes into the
// request context and onto the request logger; role checks are rbac's job.
func RequireAccessToken(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := m.Verify(tok, TokenTypeAccess, time.Now())
		if err != nil {
			logger.FromGin(c).Info("access token rejected", "err", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		id := claims.Identity()
		log := logger.FromGin(c).With("tenant_id", id.TenantID, "user_id", id.UserID)
		c.Set("logger", log)

		ctx := WithIdentity(c.Request.Context(), id)
		c.Request = c.Request.WithContext(logger.With(ctx, log))
		c.Next()
	}
}
