package gemini

import (
	"context"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/xpanvictor/intervox/pkg/assistant"
	"github.com/xpanvictor/intervox/pkg/assistant/providers/gemini"
)

type geminiAdapter struct {
	gp    *gemini.GeminiProvider
	model string
}

func New(provider *gemini.GeminiProvider, model string) assistant.Assistant {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &geminiAdapter{gp: provider, model: model}
}

// ProcessPrompt implements assistant.Assistant.
func (g *geminiAdapter) ProcessPrompt(ctx context.Context, input assistant.AssistantInput) (*assistant.AssistantOutput, error) {
	name := g.model
	if input.Model != "" {
		name = input.Model
	}
	model := g.gp.GetModel(name)
	system, parts := g.ConvertMsgs(input.Msgs)
	if system != nil {
		model.SystemInstruction = system
	}
	if input.JSON {
		model.ResponseMIMEType = "application/json"
	}

	var sb strings.Builder
	iter := model.GenerateContentStream(ctx, parts...)
	err := g.gp.Chat(ctx, iter, func(resp *genai.GenerateContentResponse) error {
		sb.WriteString(g.ConvertMsgBackward(resp))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &assistant.AssistantOutput{
		Id:       uuid.NewString(),
		Provider: "gemini",
		Response: assistant.AssistantMessage{
			Content:   sb.String(),
			CreatedAt: time.Now(),
			MsgRole:   assistant.ASSISTANT,
		},
	}, nil
}

// ConvertMsgs splits system messages into the model's system instruction
// and flattens the rest into text parts.
func (g *geminiAdapter) ConvertMsgs(msgs []assistant.AssistantMessage) (*genai.Content, []genai.Part) {
	var system []genai.Part
	var parts []genai.Part
	for _, msg := range msgs {
		if msg.MsgRole == assistant.SYSTEM {
			system = append(system, genai.Text(msg.Content))
			continue
		}
		parts = append(parts, genai.Text(msg.Content))
	}
	if len(system) == 0 {
		return nil, parts
	}
	return &genai.Content{Parts: system}, parts
}

// ConvertMsgBackward extracts the text of the first candidate.
func (g *geminiAdapter) ConvertMsgBackward(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
		break
	}
	return sb.String()
}
