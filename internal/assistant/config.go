package assistant

import "encoding/json"

// Config is the assistant definition returned to the voice platform in
// response to an assistant-request. Field names follow the platform's JSON.
type Config struct {
	Name             string `json:"name"`
	FirstMessage     string `json:"firstMessage"`
	FirstMessageMode string `json:"firstMessageMode"`

	Model       Model       `json:"model"`
	Voice       Voice       `json:"voice"`
	Transcriber Transcriber `json:"transcriber"`

	SilenceTimeoutSeconds  int      `json:"silenceTimeoutSeconds"`
	ResponseDelaySeconds   float64  `json:"responseDelaySeconds"`
	MaxDurationSeconds     int      `json:"maxDurationSeconds"`
	EndCallFunctionEnabled bool     `json:"endCallFunctionEnabled"`
	EndCallPhrases         []string `json:"endCallPhrases"`

	AnalysisPlan AnalysisPlan `json:"analysisPlan"`
	Server       Server       `json:"server"`

	Metadata map[string]string `json:"metadata"`

	Credentials []Credential `json:"credentials,omitempty"`
}

type Model struct {
	Provider    string    `json:"provider"`
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	Messages    []Message `json:"messages"`
	Tools       []Tool    `json:"tools"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Tool struct {
	Type     string        `json:"type"`
	Function *Function     `json:"function,omitempty"`
	Server   *Server       `json:"server,omitempty"`
	Messages []ToolMessage `json:"messages,omitempty"`
}

type Function struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ToolMessage is spoken by the assistant around a tool call.
type ToolMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type Voice struct {
	Provider string `json:"provider"`
	VoiceID  string `json:"voiceId"`
}

type Transcriber struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Language string `json:"language"`
}

type AnalysisPlan struct {
	SummaryPrompt        string          `json:"summaryPrompt"`
	StructuredDataPrompt string          `json:"structuredDataPrompt"`
	StructuredDataSchema json.RawMessage `json:"structuredDataSchema"`
}

// Server is where the platform posts tool calls and call events.
type Server struct {
	URL            string `json:"url"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
	Secret         string `json:"secret,omitempty"`
}

// Credential is a per-provider API key forwarded to the platform.
type Credential struct {
	Provider string `json:"provider"`
	APIKey   string `json:"apiKey"`
}
