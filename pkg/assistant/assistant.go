package assistant

import (
	"context"
	"strings"
	"time"
)

func NewAssistantInput(system, prompt string, json bool) AssistantInput {
	now := time.Now()
	msgs := make([]AssistantMessage, 0, 2)
	if system != "" {
		msgs = append(msgs, AssistantMessage{Content: system, MsgRole: SYSTEM, CreatedAt: now})
	}
	msgs = append(msgs, AssistantMessage{Content: prompt, MsgRole: USER, CreatedAt: now})
	return AssistantInput{Msgs: msgs, JSON: json}
}

// Complete runs a single system+user exchange and returns the trimmed reply.
func Complete(ctx context.Context, a Assistant, system, prompt string, json bool) (string, error) {
	out, err := a.ProcessPrompt(ctx, NewAssistantInput(system, prompt, json))
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(out.Response.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// ExtractJSON trims markdown fences and prose around the first JSON object
// in a model reply.
func ExtractJSON(reply string) string {
	s := strings.TrimSpace(reply)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return strings.TrimSpace(s)
	}
	end := strings.LastIndexAny(s, "}]")
	if end < start {
		return strings.TrimSpace(s[start:])
	}
	return s[start : end+1]
}
