package installer

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/config"
)

type item struct {
	id    string
	title string
	desc  string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.id }

// ScorerStep picks the query scorer. Semantic scoring is only offered when
// an embedding model was configured.
type ScorerStep struct {
	list list.Model
}

func NewScorerStep() Step {
	l := list.New([]list.Item{
		item{id: config.ScorerLexical, title: "Lexical", desc: "Term overlap, no network calls"},
		item{id: config.ScorerEmbedding, title: "Embedding", desc: "Cosine similarity of provider embeddings"},
	}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Select the query scorer"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = titleStyle

	return &ScorerStep{list: l}
}

func (s *ScorerStep) Init() tea.Cmd {
	return nil
}

func (s *ScorerStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if state.LLM.EmbeddingModel == "" {
		state.Context.Scorer = config.ScorerLexical
		return nil, nil
	}

	if width > 0 && height > 4 {
		s.list.SetSize(width, height-4)
	}

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		if i, ok := s.list.SelectedItem().(item); ok {
			state.Context.Scorer = i.id
			return nil, nil
		}
	}

	var cmd tea.Cmd
	s.list, cmd = s.list.Update(msg)
	return s, cmd
}

func (s *ScorerStep) View(state *InstallState) string {
	return s.list.View()
}
