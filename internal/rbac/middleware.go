package rbac

import (
	"net/http"

	"voice-receptionist/internal/auth"

	"github.com/gin-gonic/gin"
)

// Caller returns the authenticated identity. Behind RequireTenant its
// TenantID is never empty, so handlers use it without further checks.
func Caller(c *gin.Context) auth.Identity {
	id, _ := auth.IdentityFrom(c.Request.Context())
	return id
}

// RequireTenant rejects callers whose token carries no tenant.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Caller(c).TenantID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "tenant_id required"})
			return
		}
		c.Next()
	}
}

// RequireAnyRole allows access if the caller has any of the provided roles.
// Rules:
// - super_admin bypasses all checks
// - support is a hidden role, and will be denied unless explicitly allowed
// - tenant isolation is enforced via RequireTenant (use it in the chain)
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role := Caller(c).Role
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "role required"})
			return
		}

		if IsSuperAdmin(role) {
			c.Next()
			return
		}

		if _, ok := allowedSet[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// TenantAndAnyRole is the usual chain for tenant-scoped admin routes.
func TenantAndAnyRole(roles ...string) []gin.HandlerFunc {
	return []gin.HandlerFunc{RequireTenant(), RequireAnyRole(roles...)}
}
