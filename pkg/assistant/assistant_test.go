package assistant

import (
	"context"
	"errors"
	"testing"
)

func TestScriptedRepliesInOrder(t *testing.T) {
	s := NewScripted("one", "two")
	ctx := context.Background()
	for _, want := range []string{"one", "two", "two"} {
		got, err := Complete(ctx, s, "system", "prompt", false)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("reply = %q, want %q", got, want)
		}
	}

	prompts := s.Prompts()
	if len(prompts) != 3 || prompts[0].Msgs[0].MsgRole != SYSTEM || prompts[0].Msgs[1].Content != "prompt" {
		t.Errorf("unexpected prompts %+v", prompts)
	}
}

func TestCompleteRejectsBlank(t *testing.T) {
	if _, err := Complete(context.Background(), NewScripted("   "), "", "p", false); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```":       `{"a":1}`,
		"Sure! {\"a\":1} hope it helps": `{"a":1}`,
		"[1,2]":                         "[1,2]",
		"no json here":                  "no json here",
	}
	for in, want := range cases {
		if got := ExtractJSON(in); got != want {
			t.Errorf("ExtractJSON(%q) = %q, want %q", in, got, want)
		}
	}
}
