package prompts

import (
	"fmt"
	"strings"
	"time"

	"github.com/xpanvictor/intervox/pkg/assistant"
)

type PromptDefinition struct {
	Content string
	Version float32
}

type SYS_PROMPT struct {
	Intent         string
	CurrentVersion float32
	Items          map[float32]PromptDefinition // version-content
}

func (sp *SYS_PROMPT) GetVersion(version float32) (PromptDefinition, bool) {
	i, ok := sp.Items[version]
	return i, ok
}

func (sp *SYS_PROMPT) GetCurrentPrompt() PromptDefinition {
	return sp.Items[sp.CurrentVersion]
}

// Render fills the current version's verbs with args.
func (sp *SYS_PROMPT) Render(args ...any) string {
	return sp.GetCurrentPrompt().Render(args...)
}

// Render strips the source indentation and applies fmt verbs.
func (pd PromptDefinition) Render(args ...any) string {
	lines := strings.Split(strings.TrimSpace(pd.Content), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	text := strings.Join(lines, "\n")
	if len(args) == 0 {
		return text
	}
	return fmt.Sprintf(text, args...)
}

func (pd PromptDefinition) ToMessage() assistant.AssistantMessage {
	return assistant.AssistantMessage{
		MsgRole:   assistant.SYSTEM,
		Content:   pd.Render(),
		CreatedAt: time.Now(),
	}
}
