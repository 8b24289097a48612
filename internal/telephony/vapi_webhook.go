package telephony

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"voice-receptionist/internal/agents"
	"voice-receptionist/internal/assistant"
	"voice-receptionist/internal/fields"
	"voice-receptionist/internal/reconcile"
	"voice-receptionist/pkg/logger"

	"github.com/gin-gonic/gin"
)

const headerSecret = "X-Vapi-Secret"

// AgentResolver maps a dialed number to an active agent.
type AgentResolver interface {
	Resolve(ctx context.Context, raw string) (agents.Agent, error)
}

// Reconciler is the call-event core the webhook delegates to.
type Reconciler interface {
	BookFromTool(ctx context.Context, req reconcile.ToolBookingRequest) reconcile.ToolOutcome
	ApplyEndOfCall(ctx context.Context, r reconcile.EndOfCallReport) (reconcile.ReportOutcome, error)
}

// ToolTokens mints and checks the per-agent callback secret.
type ToolTokens interface {
	IssueToolToken(now time.Time, agentID string) (string, error)
	VerifyToolToken(token string, now time.Time) (string, error)
}

// Recorder counts webhooks by type and outcome.
type Recorder interface {
	Webhook(messageType, outcome string)
}

// VapiWebhookHandler converts platform webhooks into core requests and writes
// platform-shaped JSON. No business logic here.
type VapiWebhookHandler struct {
	Resolver   AgentResolver
	Reconciler Reconciler
	Tokens     ToolTokens
	Flags      reconcile.Flagger
	Metrics    Recorder

	BaseURL         string
	Credentials     assistant.Credentials
	DefaultLocation *time.Location

	Now func() time.Time
}

func (h VapiWebhookHandler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// Handle is the single POST endpoint for every message type.
func (h VapiWebhookHandler) Handle(c *gin.Context) {
	log := logger.FromGin(c)

	var root map[string]any
	if err := c.ShouldBindJSON(&root); err != nil {
		log.Warn("vapi webhook parse failed", "err", err)
		h.record("invalid", "bad_request")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	typ := messageType(root)
	switch typ {
	case MessageAssistantRequest:
		h.assistantRequest(c, root)
	case MessageToolCalls:
		h.toolCalls(c, root)
	case MessageEndOfCallReport:
		h.endOfCallReport(c, root)
	case "":
		h.record("invalid", "bad_request")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "message.type required"})
	default:
		// status-update, transcript, hang and friends carry nothing we store.
		log.Debug("vapi message ignored", "type", typ)
		h.record("other", "ignored")
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

func (h VapiWebhookHandler) assistantRequest(c *gin.Context, root map[string]any) {
	ctx := c.Request.Context()
	log := logger.FromGin(c)

	number, path := fields.FirstStringPath(root, DialedNumberPaths...)
	callID := fields.FirstString(root, CallIDPaths...)
	if number == "" {
		h.flag(ctx, "missing_phone_number", callID, "", MessageAssistantRequest)
		h.record(MessageAssistantRequest, "bad_request")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "dialed number missing"})
		return
	}

	agent, err := h.Resolver.Resolve(ctx, number)
	if err != nil {
		if errors.Is(err, agents.ErrNotFound) || errors.Is(err, agents.ErrInvalidInput) {
			h.flag(ctx, "unresolved_number", callID, "", number)
			h.record(MessageAssistantRequest, "not_found")
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no agent configured for this number"})
			return
		}
		log.Error("agent resolution failed", "number", number, "err", err)
		h.record(MessageAssistantRequest, "error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "agent lookup failed"})
		return
	}
	log = log.With("agent_id", agent.ID, "call_id", callID)

	now := h.now().In(agent.Location(h.DefaultLocation))
	secret, err := h.Tokens.IssueToolToken(now, agent.ID)
	if err != nil {
		log.Error("tool token issuance failed", "err", err)
		h.record(MessageAssistantRequest, "error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "assistant config failed"})
		return
	}

	cfg, err := assistant.Generate(agent, assistant.Context{
		BaseURL:     h.BaseURL,
		Now:         now,
		Secret:      secret,
		Credentials: h.Credentials,
	})
	if err != nil {
		log.Error("assistant config generation failed", "err", err)
		h.record(MessageAssistantRequest, "error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "assistant config failed"})
		return
	}

	log.Info("assistant config served", "number_path", path.String())
	h.record(MessageAssistantRequest, "ok")
	c.JSON(http.StatusOK, gin.H{"assistant": cfg})
}

func (h VapiWebhookHandler) toolCalls(c *gin.Context, root map[string]any) {
	ctx := c.Request.Context()
	log := logger.FromGin(c)

	agentID := h.agentFromSecret(c)
	if agentID == "" {
		agentID = fields.FirstString(root, AgentIDPaths...)
	}
	callID := fields.FirstString(root, CallIDPaths...)
	caller := fields.FirstString(root, CallerNumberPaths...)

	calls := ReadToolCalls(root)
	results := make([]ToolResult, 0, len(calls))
	for _, tc := range calls {
		switch tc.Name {
		case assistant.BookAppointmentTool:
			out := h.Reconciler.BookFromTool(ctx, reconcile.ToolBookingRequest{
				ToolCallID:     tc.ID,
				ExternalCallID: callID,
				AgentID:        agentID,
				CallerNumber:   caller,
				Arguments:      tc.Arguments,
			})
			if out.OK {
				results = append(results, ToolResult{ToolCallID: tc.ID, Result: out.Message})
			} else {
				results = append(results, ToolResult{ToolCallID: tc.ID, Error: out.Code + ": " + out.Message})
			}
		case assistant.EndCallTool:
			results = append(results, ToolResult{ToolCallID: tc.ID, Result: "ok"})
		default:
			log.Warn("unknown tool invoked", "tool", tc.Name, "call_id", callID)
			results = append(results, ToolResult{ToolCallID: tc.ID, Error: "unknown_tool: " + tc.Name})
		}
	}

	h.record(MessageToolCalls, "ok")
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h VapiWebhookHandler) endOfCallReport(c *gin.Context, root map[string]any) {
	ctx := c.Request.Context()
	log := logger.FromGin(c)

	report := ReadEndOfCallReport(root)
	if report.AgentID == "" {
		report.AgentID = h.agentFromSecret(c)
	}

	out, err := h.Reconciler.ApplyEndOfCall(ctx, report)
	switch {
	case err == nil:
	case errors.Is(err, reconcile.ErrMissingAgentID):
		h.record(MessageEndOfCallReport, "flagged")
		c.JSON(http.StatusOK, gin.H{"received": true, "flagged": "missing_agent_id"})
		return
	case errors.Is(err, reconcile.ErrMissingCallID):
		h.record(MessageEndOfCallReport, "flagged")
		c.JSON(http.StatusOK, gin.H{"received": true, "flagged": "missing_call_id"})
		return
	case errors.Is(err, reconcile.ErrAgentNotFound):
		h.record(MessageEndOfCallReport, "not_found")
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "agent not found"})
		return
	default:
		// 5xx so the platform redelivers; Observe is idempotent.
		log.Error("end-of-call reconcile failed", "call_id", report.ExternalCallID, "err", err)
		h.record(MessageEndOfCallReport, "error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reconcile failed"})
		return
	}

	resp := gin.H{
		"received":    true,
		"call_log_id": out.Call.ID,
		"state":       out.Call.State,
	}
	if out.Booking != nil {
		resp["booking_id"] = out.Booking.ID
	}
	h.record(MessageEndOfCallReport, "ok")
	c.JSON(http.StatusOK, resp)
}

// agentFromSecret returns the agent id carried by a tool token in the
// secret header, or "" for the static secret, a missing header, or an
// invalid token.
func (h VapiWebhookHandler) agentFromSecret(c *gin.Context) string {
	raw := strings.TrimSpace(c.GetHeader(headerSecret))
	if raw == "" || h.Tokens == nil {
		return ""
	}
	agentID, err := h.Tokens.VerifyToolToken(raw, h.now())
	if err != nil {
		return ""
	}
	return agentID
}

func (h VapiWebhookHandler) flag(ctx context.Context, reason, callID, agentID, detail string) {
	logger.From(ctx).Warn("webhook flagged", "reason", reason, "call_id", callID, "detail", detail)
	if h.Flags == nil {
		return
	}
	if err := h.Flags.FlagWebhook(ctx, reason, callID, agentID, detail); err != nil {
		logger.From(ctx).Error("audit flag failed", "reason", reason, "err", err)
	}
}

func (h VapiWebhookHandler) record(messageType, outcome string) {
	if h.Metrics != nil {
		h.Metrics.Webhook(messageType, outcome)
	}
}
