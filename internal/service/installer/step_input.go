package installer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/providers/llm"
)

// InputStep asks for one free-text value. The prompt is prepared lazily
// because it depends on answers given in earlier steps.
type InputStep struct {
	input    textinput.Model
	ready    bool
	title    string
	optional bool

	// prepare configures the prompt and reports whether the step applies.
	prepare func(s *InputStep, state *InstallState) bool
	apply   func(state *InstallState, value string)
}

func newInput(placeholder string, secret bool) textinput.Model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 255
	ti.Width = 50
	ti.Placeholder = placeholder
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

func NewBaseURLStep() Step {
	return &InputStep{
		prepare: func(s *InputStep, state *InstallState) bool {
			switch state.provider() {
			case llm.ProviderOllama:
				s.title = "Ollama base URL"
				s.optional = true
				s.input = newInput("http://localhost:11434", false)
			case llm.ProviderCustom:
				s.title = "OpenAI-compatible base URL"
				s.input = newInput("https://api.example.com", false)
			default:
				return false
			}
			return true
		},
		apply: func(state *InstallState, value string) {
			state.LLM.BaseURL = value
		},
	}
}

func NewAPIKeyStep() Step {
	return &InputStep{
		prepare: func(s *InputStep, state *InstallState) bool {
			switch state.provider() {
			case llm.ProviderOpenAI:
				s.title = "OpenAI API key"
				s.input = newInput("sk-...", true)
			case llm.ProviderAnthropic:
				s.title = "Anthropic API key"
				s.input = newInput("sk-ant-...", true)
			case llm.ProviderOpenRouter:
				s.title = "OpenRouter API key"
				s.input = newInput("sk-or-v1-...", true)
			case llm.ProviderOllama, llm.ProviderCustom:
				s.title = "API key"
				s.optional = true
				s.input = newInput("press enter to skip", true)
			default:
				return false
			}
			return true
		},
		apply: func(state *InstallState, value string) {
			state.LLM.APIKey = value
		},
	}
}

func NewModelStep() Step {
	return &InputStep{
		prepare: func(s *InputStep, state *InstallState) bool {
			placeholder, ok := map[string]string{
				llm.ProviderOpenAI:     "gpt-4o-mini",
				llm.ProviderAnthropic:  "claude-3-5-haiku-latest",
				llm.ProviderOpenRouter: "openai/gpt-4o-mini",
				llm.ProviderOllama:     "llama3.1",
				llm.ProviderCustom:     "model name",
			}[state.provider()]
			if !ok {
				return false
			}
			s.title = "Summary model"
			s.input = newInput(placeholder, false)
			return true
		},
		apply: func(state *InstallState, value string) {
			state.LLM.Model = value
		},
	}
}

func NewEmbeddingModelStep() Step {
	return &InputStep{
		prepare: func(s *InputStep, state *InstallState) bool {
			switch state.provider() {
			case llm.ProviderNone, llm.ProviderAnthropic, "":
				return false
			}
			s.title = "Embedding model for semantic scoring"
			s.optional = true
			s.input = newInput("e.g. text-embedding-3-small, enter to skip", false)
			return true
		},
		apply: func(state *InstallState, value string) {
			state.LLM.EmbeddingModel = value
		},
	}
}

func (s *InputStep) Init() tea.Cmd {
	return nil
}

func (s *InputStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if !s.ready {
		if !s.prepare(s, state) {
			return nil, nil
		}
		s.ready = true
		return s, textinput.Blink
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		val := strings.TrimSpace(s.input.Value())
		if val == "" && !s.optional {
			return s, cmd
		}
		s.apply(state, val)
		return nil, nil
	}
	return s, cmd
}

func (s *InputStep) View(state *InstallState) string {
	if !s.ready {
		return "Loading...\n"
	}
	hint := ""
	if s.optional {
		hint = " (optional)"
	}
	return fmt.Sprintf("Enter %s%s:\n\n%s\n\n%s\n", s.title, hint, s.input.View(), hintStyle.Render("(press enter to confirm)"))
}
