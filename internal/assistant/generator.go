package assistant

import (
	"errors"
	"strings"
	"time"

	"voice-receptionist/internal/agents"
)

var ErrInvalidAgent = errors.New("assistant: agent id and name are required")

// Voice identities on the TTS provider.
const (
	VoiceIDFemale = "21m00Tcm4TlvDq8ikWAM"
	VoiceIDMale   = "pNInz6obpgDQGcFmaJgB"
)

const (
	WebhookPath          = "/webhooks/vapi"
	ServerTimeoutSeconds = 20

	defaultWelcome = "Hello, thanks for calling. How can I help you today?"
)

// Credentials are provider API keys forwarded to the platform. Empty keys
// are omitted from the generated config.
type Credentials struct {
	OpenAI     string
	Deepgram   string
	ElevenLabs string
}

// Context is everything Generate needs besides the agent. Nothing is read
// from the environment.
type Context struct {
	BaseURL string
	// Now should already be in the agent's time zone.
	Now time.Time
	// Secret is echoed back by the platform on tool calls to identify the agent.
	Secret      string
	Credentials Credentials
}

// Generate builds the assistant config for one inbound call. It is pure:
// the same agent and context always give the same config.
func Generate(a agents.Agent, c Context) (Config, error) {
	if strings.TrimSpace(a.ID) == "" || strings.TrimSpace(a.Name) == "" {
		return Config{}, ErrInvalidAgent
	}

	server := Server{
		URL:            strings.TrimRight(c.BaseURL, "/") + WebhookPath,
		TimeoutSeconds: ServerTimeoutSeconds,
		Secret:         c.Secret,
	}

	welcome := strings.TrimSpace(a.WelcomeMessage)
	if welcome == "" {
		welcome = defaultWelcome
	}

	return Config{
		Name:             a.Name,
		FirstMessage:     welcome,
		FirstMessageMode: "assistant-speaks-first",
		Model: Model{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.3,
			Messages:    []Message{{Role: "system", Content: systemPrompt(a, c.Now)}},
			Tools:       []Tool{bookingTool(server), endCallTool()},
		},
		Voice: Voice{
			Provider: "11labs",
			VoiceID:  VoiceID(string(a.Voice)),
		},
		Transcriber: Transcriber{
			Provider: "deepgram",
			Model:    "nova-2",
			Language: "en",
		},
		SilenceTimeoutSeconds:  30,
		ResponseDelaySeconds:   0.4,
		MaxDurationSeconds:     900,
		EndCallFunctionEnabled: true,
		EndCallPhrases:         []string{},
		AnalysisPlan: AnalysisPlan{
			SummaryPrompt:        summaryPrompt,
			StructuredDataPrompt: structuredDataPrompt,
			StructuredDataSchema: []byte(StructuredDataSchema),
		},
		Server:      server,
		Metadata:    map[string]string{"agentId": a.ID},
		Credentials: c.Credentials.list(),
	}, nil
}

// VoiceID maps a voice preference onto a TTS voice; anything but "male"
// (any case) gets the female voice.
func VoiceID(pref string) string {
	if agents.NormalizeVoice(pref) == agents.VoiceMale {
		return VoiceIDMale
	}
	return VoiceIDFemale
}

func (c Credentials) list() []Credential {
	var out []Credential
	if c.OpenAI != "" {
		out = append(out, Credential{Provider: "openai", APIKey: c.OpenAI})
	}
	if c.Deepgram != "" {
		out = append(out, Credential{Provider: "deepgram", APIKey: c.Deepgram})
	}
	if c.ElevenLabs != "" {
		out = append(out, Credential{Provider: "11labs", APIKey: c.ElevenLabs})
	}
	return out
}
