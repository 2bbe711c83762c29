package installer

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/providers/llm"
)

type choice struct {
	label string
	value string
}

// ChoiceStep is a cursor-driven single choice.
type ChoiceStep struct {
	title   string
	choices []choice
	cursor  int
	apply   func(state *InstallState, value string)
}

func NewProviderStep() Step {
	return &ChoiceStep{
		title: "Select the LLM provider used for summaries and embeddings:",
		choices: []choice{
			{label: "None (local extractive summaries, lexical scoring)", value: llm.ProviderNone},
			{label: "OpenAI", value: llm.ProviderOpenAI},
			{label: "Anthropic", value: llm.ProviderAnthropic},
			{label: "OpenRouter", value: llm.ProviderOpenRouter},
			{label: "Ollama", value: llm.ProviderOllama},
			{label: "Custom OpenAI-compatible endpoint", value: llm.ProviderCustom},
		},
		apply: func(state *InstallState, value string) {
			state.LLM.Provider = value
		},
	}
}

func NewPersistenceStep() Step {
	return &ChoiceStep{
		title: "Keep sessions across restarts (sqlite snapshots)?",
		choices: []choice{
			{label: "Yes", value: "true"},
			{label: "No, keep everything in memory", value: "false"},
		},
		apply: func(state *InstallState, value string) {
			state.App.Persist = value == "true"
		},
	}
}

func (s *ChoiceStep) Init() tea.Cmd {
	return nil
}

func (s *ChoiceStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.choices)-1 {
				s.cursor++
			}
		case "enter":
			s.apply(state, s.choices[s.cursor].value)
			return nil, nil
		}
	}
	return s, nil
}

func (s *ChoiceStep) View(state *InstallState) string {
	var b strings.Builder
	b.WriteString(s.title + "\n\n")
	for i, c := range s.choices {
		if s.cursor == i {
			b.WriteString(selStyle.Render(fmt.Sprintf("> %s", c.label)) + "\n")
		} else {
			b.WriteString(itemStyle.Render(fmt.Sprintf("  %s", c.label)) + "\n")
		}
	}
	b.WriteString(hintStyle.Render("\n(up/down to move, enter to select, ctrl+c to quit)") + "\n")
	return b.String()
}
