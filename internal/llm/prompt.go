package llm

import (
	"fmt"
	"strings"
	"time"
)

const systemPromptTemplate = `You are a scheduling assistant that turns a user's chat message into calendar events.

## Current Date/Time Reference

Current time: %s
Current UTC offset: %s

Resolve relative dates ("tomorrow", "next Friday", "in two weeks") against the current time above.

## Rules

- Extract every event the user asks to schedule. A message may describe zero, one or several events.
- Do NOT convert times between timezones. Emit each time in the UTC offset the user stated or implied.
  When the user gives no timezone, use the current UTC offset shown above.
- If the user gives no end time, leave "endTime" out.
- Titles are short and descriptive. Do not invent events the user did not ask for.
- If nothing in the message can be scheduled, respond with [].

## Response Format

Respond with ONLY a JSON array, no prose and no markdown. Each element has exactly these keys:

[
  {
    "title": "Brief, descriptive title",
    "startTime": "YYYY-MM-DDTHH:MM:SS+HH:MM",
    "endTime": "YYYY-MM-DDTHH:MM:SS+HH:MM"
  }
]`

// BuildSystemPrompt returns the extraction instruction anchored at now.
// now's location determines the default offset the model is told to use.
func BuildSystemPrompt(now time.Time) string {
	return fmt.Sprintf(systemPromptTemplate,
		now.Format("2006-01-02 15:04 (Monday)"),
		now.Format("-07:00"),
	)
}

// BuildUserPrompt wraps the raw chat message.
func BuildUserPrompt(message string) string {
	var prompt strings.Builder
	prompt.WriteString("## Message\n\n")
	prompt.WriteString(strings.TrimSpace(message))
	prompt.WriteString("\n\nRespond with the JSON array of events.")
	return prompt.String()
}
