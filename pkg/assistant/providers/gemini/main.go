package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GeminiProvider owns the Gemini API client.
type GeminiProvider struct {
	client *genai.Client
}

func New(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is not configured")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini API client: %w", err)
	}

	return &GeminiProvider{
		client: client,
	}, nil
}

// Chat drains a response stream, handing each chunk to fn.
func (gp *GeminiProvider) Chat(
	ctx context.Context,
	iter *genai.GenerateContentResponseIterator,
	fn func(resp *genai.GenerateContentResponse) error,
) error {
	if gp.client == nil {
		return fmt.Errorf("gemini client is not initialized")
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to receive from Gemini stream: %w", err)
		}
		if err := fn(resp); err != nil {
			return err
		}
	}
}

func (gp *GeminiProvider) GetModel(modelName string) *genai.GenerativeModel {
	return gp.client.GenerativeModel(modelName)
}

func (gp *GeminiProvider) Close() error {
	return gp.client.Close()
}
