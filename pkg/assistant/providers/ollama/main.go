package ollama

import (
	"context"
	"fmt"

	"github.com/ollama/ollama/api"
	"github.com/presbrey/ollamafarm"
	"github.com/xpanvictor/intervox/pkg/Logger"
)

// OllamaProvider spreads chat requests over a farm of Ollama servers.
type OllamaProvider struct {
	ollamafarm *ollamafarm.Farm
	urls       []string
}

func New(urls []string, log *Logger.Logger) *OllamaProvider {
	log = Logger.OrNop(log)
	farm := ollamafarm.New()

	registered := make([]string, 0, len(urls))
	for _, u := range urls {
		if err := farm.RegisterURL(u, nil); err != nil {
			log.Warnf("ollama server %s not registered: %v", u, err)
			continue
		}
		registered = append(registered, u)
	}

	return &OllamaProvider{
		ollamafarm: farm,
		urls:       registered,
	}
}

func (o *OllamaProvider) Chat(
	ctx context.Context,
	req api.ChatRequest,
	fn api.ChatResponseFunc,
) error {
	// pick first available client
	ollama := o.ollamafarm.First(&ollamafarm.Where{Offline: false})
	if ollama != nil {
		return ollama.Client().Chat(ctx, &req, fn)
	}
	return fmt.Errorf("no ollama server online for model %v", req.Model)
}

func (o *OllamaProvider) URLs() []string {
	return o.urls
}
