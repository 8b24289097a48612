package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"voice-receptionist/internal/agents"
	"voice-receptionist/internal/audit"
	"voice-receptionist/internal/auth"
	"voice-receptionist/internal/calls"
	"voice-receptionist/internal/rbac"
	"voice-receptionist/internal/reporting"
	"voice-receptionist/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth    *auth.Manager
	Agents  *agents.Service
	Calls   calls.Store
	Reports *reporting.Service
	Audit   *audit.Service

	Now func() time.Time
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
	defaultRange     = 30 * 24 * time.Hour
)

func (h Handlers) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// --- Auth ---

type loginRequest struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
}

// DevLogin issues a JWT token pair without checking credentials. Routes only
// register it outside staging/production.
func (h Handlers) DevLogin(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.TenantID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, tenant_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(h.now(), req.UserID, req.TenantID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

func (h Handlers) Me(c *gin.Context) {
	id := rbac.Caller(c)
	c.JSON(http.StatusOK, gin.H{"user_id": id.UserID, "tenant_id": id.TenantID, "role": id.Role})
}

// --- Agents ---

func (h Handlers) ListAgents(c *gin.Context) {
	tenantID := rbac.Caller(c).TenantID
	list, err := h.Agents.List(c.Request.Context(), tenantID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": list})
}

func (h Handlers) CreateAgent(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := rbac.Caller(c).TenantID

	var in agents.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	a, err := h.Agents.Create(ctx, tenantID, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.audit(c, a.ID, "agent created")
	c.JSON(http.StatusCreated, a)
}

func (h Handlers) GetAgent(c *gin.Context) {
	tenantID := rbac.Caller(c).TenantID
	a, err := h.Agents.Get(c.Request.Context(), tenantID, c.Param("agent_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h Handlers) UpdateAgent(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := rbac.Caller(c).TenantID

	var in agents.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	a, err := h.Agents.Update(ctx, tenantID, c.Param("agent_id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.audit(c, a.ID, "agent updated")
	c.JSON(http.StatusOK, a)
}

// --- Calls & bookings ---

func (h Handlers) ListCalls(c *gin.Context) {
	f, ok := h.listFilter(c)
	if !ok {
		return
	}
	list, err := h.Calls.ListCalls(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": list})
}

// GetCall returns the call log and its booking, if any.
func (h Handlers) GetCall(c *gin.Context) {
	ctx := c.Request.Context()
	agentID, ok := h.ownedAgent(c)
	if !ok {
		return
	}
	call, err := h.Calls.GetCall(ctx, agentID, c.Param("call_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := gin.H{"call": call}
	b, err := h.Calls.BookingForCall(ctx, call.ID)
	switch {
	case err == nil:
		resp["booking"] = b
	case errors.Is(err, calls.ErrNotFound):
	default:
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h Handlers) ListBookings(c *gin.Context) {
	f, ok := h.listFilter(c)
	if !ok {
		return
	}
	list, err := h.Calls.ListBookings(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

func (h Handlers) CallsSummary(c *gin.Context) {
	tenantID := rbac.Caller(c).TenantID
	from, to, ok := h.timeRange(c)
	if !ok {
		return
	}
	out, err := h.Reports.CallsSummary(c.Request.Context(), reporting.CallsSummaryRequest{
		TenantID: tenantID,
		AgentID:  c.Param("agent_id"),
		Range:    reporting.TimeRange{From: from, To: to},
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// --- helpers ---

// ownedAgent checks that :agent_id belongs to the caller's tenant.
func (h Handlers) ownedAgent(c *gin.Context) (string, bool) {
	tenantID := rbac.Caller(c).TenantID
	a, err := h.Agents.Get(c.Request.Context(), tenantID, c.Param("agent_id"))
	if err != nil {
		h.fail(c, err)
		return "", false
	}
	return a.ID, true
}

func (h Handlers) listFilter(c *gin.Context) (calls.ListFilter, bool) {
	agentID, ok := h.ownedAgent(c)
	if !ok {
		return calls.ListFilter{}, false
	}
	from, to, ok := h.timeRange(c)
	if !ok {
		return calls.ListFilter{}, false
	}
	limit := defaultListLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return calls.ListFilter{}, false
		}
		limit = min(n, maxListLimit)
	}
	return calls.ListFilter{AgentID: agentID, From: from, To: to, Limit: limit}, true
}

// timeRange reads RFC3339 from/to query params. Defaults to the last 30 days.
func (h Handlers) timeRange(c *gin.Context) (time.Time, time.Time, bool) {
	to := h.now().UTC()
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return time.Time{}, time.Time{}, false
		}
		to = t
	}
	from := to.Add(-defaultRange)
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return time.Time{}, time.Time{}, false
		}
		from = t
	}
	if !to.After(from) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be before to"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func (h Handlers) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, agents.ErrNotFound), errors.Is(err, calls.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, agents.ErrPhoneNumberTaken):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, agents.ErrInvalidInput), errors.Is(err, reporting.ErrInvalidRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, agents.ErrTenantRequired):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "tenant_id required"})
	default:
		logger.FromGin(c).Error("admin request failed", "path", c.FullPath(), "err", err)
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// audit is best-effort; a failed write never fails the request.
func (h Handlers) audit(c *gin.Context, agentID, message string) {
	if h.Audit == nil {
		return
	}
	ctx := c.Request.Context()
	id := rbac.Caller(c)
	if err := h.Audit.LogAdminAction(ctx, id.TenantID, id.UserID, id.Role, c.ClientIP(), agentID, message); err != nil {
		logger.FromGin(c).Warn("audit write failed", "agent_id", agentID, "err", err)
	}
}
