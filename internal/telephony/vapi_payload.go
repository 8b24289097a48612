package telephony

import (
	"voice-receptionist/internal/fields"
	"voice-receptionist/internal/reconcile"
)

// Message types sent by the voice platform on the single webhook endpoint.
const (
	MessageAssistantRequest = "assistant-request"
	MessageToolCalls        = "tool-calls"
	MessageEndOfCallReport  = "end-of-call-report"
)

// Accepted payload locations, in priority order. The platform has moved
// fields between releases; every reader goes through these lists.
var (
	TypePaths = []fields.Path{fields.P("message.type")}

	DialedNumberPaths = []fields.Path{
		fields.P("message.phoneNumber.number"),
		fields.P("message.call.phoneNumber.number"),
		fields.P("message.phoneNumber.twilioPhoneNumber"),
		fields.P("message.call.phoneNumber.twilioPhoneNumber"),
		fields.P("message.call.to"),
		fields.P("message.to"),
	}

	AgentIDPaths = []fields.Path{
		fields.P("message.call.metadata.agentId"),
		fields.P("message.call.assistantOverrides.metadata.agentId"),
		fields.P("message.assistant.metadata.agentId"),
		fields.P("message.call.assistant.metadata.agentId"),
		fields.P("message.metadata.agentId"),
	}

	CallIDPaths = []fields.Path{
		fields.P("message.call.id"),
		fields.P("message.callId"),
	}

	CallerNumberPaths = []fields.Path{
		fields.P("message.call.customer.number"),
		fields.P("message.customer.number"),
		fields.P("message.call.from"),
	}

	ToolCallListPaths = []fields.Path{
		fields.P("message.toolCallList"),
		fields.P("message.toolCalls"),
	}

	DurationPaths = []fields.Path{
		fields.P("message.durationSeconds"),
		fields.P("message.call.durationSeconds"),
		fields.P("message.artifact.durationSeconds"),
	}
	StartedAtPaths = []fields.Path{
		fields.P("message.startedAt"),
		fields.P("message.call.startedAt"),
	}
	EndedAtPaths = []fields.Path{
		fields.P("message.endedAt"),
		fields.P("message.call.endedAt"),
	}
	MessagesPaths = []fields.Path{
		fields.P("message.artifact.messages"),
		fields.P("message.messages"),
	}
	SummaryPaths = []fields.Path{
		fields.P("message.analysis.summary"),
		fields.P("message.summary"),
		fields.P("message.call.analysis.summary"),
	}
	TranscriptPaths = []fields.Path{
		fields.P("message.artifact.transcript"),
		fields.P("message.transcript"),
	}
	RecordingURLPaths = []fields.Path{
		fields.P("message.artifact.recordingUrl"),
		fields.P("message.recordingUrl"),
		fields.P("message.artifact.stereoRecordingUrl"),
	}
	EndedReasonPaths = []fields.Path{
		fields.P("message.endedReason"),
		fields.P("message.call.endedReason"),
	}
	StatusPaths = []fields.Path{
		fields.P("message.call.status"),
		fields.P("message.status"),
	}
	StructuredDataPaths = []fields.Path{
		fields.P("message.analysis.structuredData"),
		fields.P("message.analysis.structured_data"),
		fields.P("message.call.analysis.structuredData"),
	}
)

// ToolCall is one entry of a tool-calls message.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolResult is the per-call answer the platform relays to the assistant.
type ToolResult struct {
	ToolCallID string `json:"toolCallId"`
	Result     string `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
}

func messageType(root map[string]any) string {
	return fields.FirstString(root, TypePaths...)
}

// ReadToolCalls returns the tool calls in order. Entries without an id are
// skipped: the platform could not match a result to them.
func ReadToolCalls(root map[string]any) []ToolCall {
	list := fields.FirstSlice(root, ToolCallListPaths...)
	out := make([]ToolCall, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		tc := ToolCall{
			ID:        fields.FirstString(m, fields.P("id"), fields.P("toolCallId")),
			Name:      fields.FirstString(m, fields.P("function.name"), fields.P("name")),
			Arguments: fields.FirstMap(m, fields.P("function.arguments"), fields.P("arguments"), fields.P("parameters")),
		}
		if tc.ID == "" {
			continue
		}
		if tc.Arguments == nil {
			tc.Arguments = map[string]any{}
		}
		out = append(out, tc)
	}
	return out
}

// ReadEndOfCallReport converts an end-of-call-report message. AgentID is
// left empty when none of AgentIDPaths is present.
func ReadEndOfCallReport(root map[string]any) reconcile.EndOfCallReport {
	r := reconcile.EndOfCallReport{
		ExternalCallID: fields.FirstString(root, CallIDPaths...),
		AgentID:        fields.FirstString(root, AgentIDPaths...),
		CallerNumber:   fields.FirstString(root, CallerNumberPaths...),
		StartedAt:      fields.FirstString(root, StartedAtPaths...),
		EndedAt:        fields.FirstString(root, EndedAtPaths...),
		MessageCount:   len(fields.FirstSlice(root, MessagesPaths...)),
		Summary:        fields.FirstString(root, SummaryPaths...),
		Transcript:     fields.FirstString(root, TranscriptPaths...),
		RecordingURL:   fields.FirstString(root, RecordingURLPaths...),
		EndedReason:    fields.FirstString(root, EndedReasonPaths...),
		Status:         fields.FirstString(root, StatusPaths...),
		StructuredData: fields.FirstMap(root, StructuredDataPaths...),
	}
	if d, ok := fields.FirstNumber(root, DurationPaths...); ok {
		r.DurationSeconds = &d
	}
	return r
}
