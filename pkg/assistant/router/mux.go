package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/xpanvictor/intervox/pkg/Logger"
	"github.com/xpanvictor/intervox/pkg/assistant"
)

// InOrder keeps the configured order: primary first, then fallbacks.
type InOrder struct{}

func (InOrder) Select(_ assistant.AssistantInput, packs []AdapterPack) []AdapterPack {
	return packs
}

func New(packs ...AdapterPack) *Mux {
	return &Mux{
		RouterPolicy: InOrder{},
		Adapters:     packs,
	}
}

// ProcessPrompt implements assistant.Assistant with failover.
func (m *Mux) ProcessPrompt(ctx context.Context, input assistant.AssistantInput) (*assistant.AssistantOutput, error) {
	return m.process(ctx, input, nil)
}

// WithLogger returns an assistant that logs each failed adapter.
func (m *Mux) WithLogger(log *Logger.Logger) assistant.Assistant {
	return loggedMux{m: m, log: Logger.OrNop(log).Named("llm")}
}

func (m *Mux) process(ctx context.Context, input assistant.AssistantInput, log *Logger.Logger) (*assistant.AssistantOutput, error) {
	packs := m.RouterPolicy.Select(input, m.Adapters)
	if len(packs) == 0 {
		return nil, assistant.ErrNoProvider
	}

	var errs []error
	for _, pack := range packs {
		out, err := pack.Adapter.ProcessPrompt(ctx, input)
		if err == nil {
			return out, nil
		}
		if log != nil {
			log.Warnf("assistant %s failed: %v", pack.Name, err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", pack.Name, err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.Join(errs...)
}

type loggedMux struct {
	m   *Mux
	log *Logger.Logger
}

func (l loggedMux) ProcessPrompt(ctx context.Context, input assistant.AssistantInput) (*assistant.AssistantOutput, error) {
	return l.m.process(ctx, input, l.log)
}
