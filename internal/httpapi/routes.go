package httpapi

import (
	"voice-receptionist/internal/rbac"

	"github.com/gin-gonic/gin"
)

// Register mounts the tenant admin API under g, which must already carry
// the access-token middleware.
func (h Handlers) Register(g *gin.RouterGroup) {
	g.GET("/me", h.Me)

	read := g.Group("/agents", rbac.TenantAndAnyRole(rbac.Readers...)...)
	{
		read.GET("", h.ListAgents)
		read.GET("/:agent_id", h.GetAgent)
		read.GET("/:agent_id/calls", h.ListCalls)
		read.GET("/:agent_id/calls/:call_id", h.GetCall)
		read.GET("/:agent_id/bookings", h.ListBookings)
		read.GET("/:agent_id/summary", h.CallsSummary)
	}

	write := g.Group("/agents", rbac.TenantAndAnyRole(rbac.Editors...)...)
	{
		write.POST("", h.CreateAgent)
		write.PATCH("/:agent_id", h.UpdateAgent)
	}
}
