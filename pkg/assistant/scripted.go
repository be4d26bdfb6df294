package assistant

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Scripted replays canned replies in order and then keeps returning the
// last one. With no replies it fails, which exercises callers' fallbacks.
type Scripted struct {
	mu      sync.Mutex
	replies []string
	next    int
	prompts []AssistantInput
}

func NewScripted(replies ...string) *Scripted {
	return &Scripted{replies: replies}
}

// ProcessPrompt implements Assistant.
func (s *Scripted) ProcessPrompt(ctx context.Context, input AssistantInput) (*AssistantOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, input)
	if len(s.replies) == 0 {
		return nil, ErrNoProvider
	}
	reply := s.replies[s.next]
	if s.next < len(s.replies)-1 {
		s.next++
	}
	return &AssistantOutput{
		Id:       uuid.NewString(),
		Provider: "scripted",
		Response: AssistantMessage{Content: reply, CreatedAt: time.Now(), MsgRole: ASSISTANT},
	}, nil
}

// Prompts returns every input received so far.
func (s *Scripted) Prompts() []AssistantInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AssistantInput(nil), s.prompts...)
}
