package assistant

import (
	"fmt"
	"strings"
	"time"

	"voice-receptionist/internal/agents"
)

// HardRules are part of every system prompt, unchanged. The assistant has no
// calendar and no knowledge beyond the business context it is given.
var HardRules = []string{
	"Never assume the caller's identity or preferences.",
	"Never propose specific appointment times on your own initiative. You do not have access to a live calendar, so always ask the caller for their preferred time.",
	"Answer only from the business information below. If the caller asks about a service that is not listed, say clearly that it is not offered rather than inventing it.",
	"Never make up prices, staff names, or policies.",
	"Follow this booking order exactly: (1) ask for the preferred date and time, (2) ask for the service or reason for the visit, (3) ask for the caller's full name, (4) ask for their email address and ask them to spell it out letter by letter, (5) read every detail back and ask for an explicit yes or no confirmation, (6) only after a clear yes, call the book_appointment tool, (7) if the tool reports an invalid email, apologize and ask the caller to spell the email again.",
	"Only end the call after the caller has explicitly said they have nothing else. Never hang up on your own.",
}

func systemPrompt(a agents.Agent, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, the phone receptionist", a.Name)
	if a.BusinessType != "" {
		fmt.Fprintf(&b, " for a %s", a.BusinessType)
	}
	b.WriteString(". You speak with callers, answer questions about the business and take appointment requests.\n\n")

	b.WriteString("HARD RULES\n")
	for i, r := range HardRules {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}

	b.WriteString("\nCURRENT DATE AND TIME\n")
	fmt.Fprintf(&b, "Today is %s. The local time is %s (%s).\n",
		now.Format("Monday, January 2, 2006"), now.Format("3:04 PM"), now.Location().String())
	b.WriteString("Use this only to understand relative dates such as \"tomorrow\" or \"next Friday\". Never treat the current time as the requested booking time; the caller must always state the time they want.\n")

	b.WriteString("\nBUSINESS INFORMATION\n")
	if ctx := strings.TrimSpace(a.BusinessContext); ctx != "" {
		b.WriteString(ctx)
		b.WriteString("\n")
	} else {
		b.WriteString("No additional business information was provided. Offer to take a booking request and let the team follow up on anything else.\n")
	}

	if av := strings.TrimSpace(a.Availability); av != "" {
		b.WriteString("\nOPENING HOURS\n")
		b.WriteString(av)
		b.WriteString("\nThese are opening hours, not free slots. Still ask the caller for their preferred time.\n")
	}

	b.WriteString("\nSTYLE\n")
	b.WriteString("Keep answers short and natural for a phone call. Ask one question at a time. If a tool call fails, apologize and offer to try again.\n")
	return b.String()
}

const summaryPrompt = "Summarize the call in two or three sentences: who called, what they wanted, and whether an appointment was requested."

const structuredDataPrompt = "Extract the appointment details the caller confirmed. Leave a field empty if it was not stated. Do not guess."
