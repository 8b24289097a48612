package telephony

import (
	"encoding/json"
	"testing"

	"voice-receptionist/internal/fields"
)

func mustJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("json: %v", err)
	}
	return m
}

func TestReadToolCalls_Variants(t *testing.T) {
	root := mustJSON(t, `{"message":{"type":"tool-calls","toolCalls":[
		{"id":"a","function":{"name":"book_appointment","arguments":"{\"customer_name\":\"Jane\"}"}},
		{"toolCallId":"b","name":"endCall"},
		{"function":{"name":"no_id"}},
		"garbage"
	]}}`)

	got := ReadToolCalls(root)
	if len(got) != 2 {
		t.Fatalf("expected 2 tool calls, got %+v", got)
	}
	if got[0].ID != "a" || got[0].Name != "book_appointment" || got[0].Arguments["customer_name"] != "Jane" {
		t.Fatalf("unexpected first call %+v", got[0])
	}
	if got[1].ID != "b" || got[1].Name != "endCall" || got[1].Arguments == nil {
		t.Fatalf("unexpected second call %+v", got[1])
	}
}

func TestReadEndOfCallReport(t *testing.T) {
	root := mustJSON(t, `{"message":{
		"type":"end-of-call-report",
		"endedReason":"assistant-ended-call",
		"startedAt":"2026-03-04T10:00:00Z",
		"endedAt":"2026-03-04T10:02:00Z",
		"call":{"id":"c1","assistantOverrides":{"metadata":{"agentId":"a9"}},"customer":{"number":"+15551234567"}},
		"artifact":{"messages":[{},{},{}],"recordingUrl":"https://rec/1"},
		"analysis":{"structured_data":{"name":"Jane"}}
	}}`)

	r := ReadEndOfCallReport(root)
	if r.ExternalCallID != "c1" || r.AgentID != "a9" || r.CallerNumber != "+15551234567" {
		t.Fatalf("unexpected ids %+v", r)
	}
	if r.DurationSeconds != nil {
		t.Fatalf("expected no explicit duration")
	}
	if r.StartedAt == "" || r.EndedAt == "" || r.MessageCount != 3 {
		t.Fatalf("unexpected timing fields %+v", r)
	}
	if r.RecordingURL != "https://rec/1" || r.EndedReason != "assistant-ended-call" {
		t.Fatalf("unexpected report %+v", r)
	}
	if r.StructuredData["name"] != "Jane" {
		t.Fatalf("expected structured_data variant, got %v", r.StructuredData)
	}
}

func TestDialedNumberPathOrder(t *testing.T) {
	root := mustJSON(t, `{"message":{"to":"+1000","call":{"phoneNumber":{"twilioPhoneNumber":"+2000"}}}}`)
	if got := fields.FirstString(root, DialedNumberPaths...); got != "+2000" {
		t.Fatalf("expected twilioPhoneNumber to win over message.to, got %q", got)
	}
}
