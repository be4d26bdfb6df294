package ollama

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ollama/ollama/api"
	"github.com/xpanvictor/intervox/pkg/assistant"
	"github.com/xpanvictor/intervox/pkg/assistant/providers/ollama"
)

type ollamaAdapter struct {
	op    *ollama.OllamaProvider
	model string
}

func (o ollamaAdapter) ConvertMsgs(msgs []assistant.AssistantMessage) []api.Message {
	convertedMsgs := make([]api.Message, 0, len(msgs))
	for _, msg := range msgs {
		convertedMsgs = append(convertedMsgs, api.Message{
			Role:    string(msg.MsgRole),
			Content: msg.Content,
		})
	}
	return convertedMsgs
}

// ProcessPrompt implements assistant.Assistant. The streamed reply is
// collected into one message.
func (o *ollamaAdapter) ProcessPrompt(ctx context.Context, input assistant.AssistantInput) (*assistant.AssistantOutput, error) {
	model := o.model
	if input.Model != "" {
		model = input.Model
	}
	stream := false
	req := api.ChatRequest{
		Model:    model,
		Messages: o.ConvertMsgs(input.Msgs),
		Stream:   &stream,
	}
	if input.JSON {
		req.Format = "json"
	}

	var sb strings.Builder
	createdAt := time.Now()
	err := o.op.Chat(ctx, req, func(cr api.ChatResponse) error {
		sb.WriteString(cr.Message.Content)
		if cr.Done {
			createdAt = cr.CreatedAt
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &assistant.AssistantOutput{
		Id:       uuid.NewString(),
		Provider: "ollama",
		Response: assistant.AssistantMessage{
			Content:   sb.String(),
			CreatedAt: createdAt,
			MsgRole:   assistant.ASSISTANT,
		},
	}, nil
}

func New(provider *ollama.OllamaProvider, model string) assistant.Assistant {
	if model == "" {
		model = "llama3.1:8b-instruct"
	}
	return &ollamaAdapter{op: provider, model: model}
}
