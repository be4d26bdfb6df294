package router

import (
	"context"
	"errors"
	"testing"

	"github.com/xpanvictor/intervox/pkg/assistant"
)

func TestMuxFailsOver(t *testing.T) {
	broken := assistant.NewScripted()
	working := assistant.NewScripted("hello")
	m := New(
		AdapterPack{Name: "broken", Adapter: broken},
		AdapterPack{Name: "working", Adapter: working},
	)

	reply, err := assistant.Complete(context.Background(), m, "sys", "hi", false)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply != "hello" {
		t.Errorf("reply = %q", reply)
	}
	if len(broken.Prompts()) != 1 || len(working.Prompts()) != 1 {
		t.Errorf("prompts broken=%d working=%d", len(broken.Prompts()), len(working.Prompts()))
	}
}

func TestMuxAllFail(t *testing.T) {
	m := New(AdapterPack{Name: "a", Adapter: assistant.NewScripted()})
	_, err := m.WithLogger(nil).ProcessPrompt(context.Background(), assistant.NewAssistantInput("", "hi", false))
	if !errors.Is(err, assistant.ErrNoProvider) {
		t.Errorf("err = %v, want ErrNoProvider wrapped", err)
	}

	if _, err := New().ProcessPrompt(context.Background(), assistant.AssistantInput{}); !errors.Is(err, assistant.ErrNoProvider) {
		t.Errorf("empty mux err = %v", err)
	}
}
