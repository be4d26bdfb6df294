package assistant

import (
	"context"
	"errors"
	"time"
)

type Role string

const (
	USER      Role = "user"
	ASSISTANT Role = "assistant"
	SYSTEM    Role = "system"
)

var (
	ErrEmptyResponse = errors.New("assistant: empty response")
	ErrNoProvider    = errors.New("assistant: no provider available")
)

type AssistantMessage struct {
	Content   string
	CreatedAt time.Time
	MsgRole   Role
}

type AssistantInput struct {
	Msgs []AssistantMessage
	// JSON asks the provider for a JSON object response where supported.
	JSON bool
	// Model overrides the provider's configured model.
	Model string
}

type AssistantOutput struct {
	Id       string
	Provider string
	Response AssistantMessage
}

// Assistant is a chat completion backend.
type Assistant interface {
	ProcessPrompt(ctx context.Context, input AssistantInput) (*AssistantOutput, error)
}
