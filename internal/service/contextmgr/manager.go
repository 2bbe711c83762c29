package contextmgr

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/clock"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/log"
)

type Option func(*Manager)

// WithRepository enables snapshot persistence through repo.
func WithRepository(repo core.SessionRepository) Option {
	return func(m *Manager) { m.repo = repo }
}

func WithClock(clk clock.Clock) Option {
	return func(m *Manager) { m.clock = clk }
}

// Manager is the caller-facing facade over the session store, item
// registry, retrieval, pruning and summarization engines.
type Manager struct {
	cfg   core.ContextConfig
	clock clock.Clock
	repo  core.SessionRepository

	store     *SessionStore
	registry  *ItemRegistry
	retrieval *RetrievalEngine
	pruning   *PruningEngine
	summaries *SummarizationCoordinator

	initOnce sync.Once
	initErr  error

	// persistMu orders snapshot saves against repository deletes so a
	// flush in flight cannot write back a session deleted meanwhile.
	persistMu sync.Mutex
}

func NewManager(
	cfg core.ContextConfig,
	scorer core.Scorer,
	summarizer core.Summarizer,
	counter core.TokenCounter,
	opts ...Option,
) (*Manager, error) {
	m := &Manager{cfg: cfg}
	for _, opt := range opts {
		opt(m)
	}
	if m.clock == nil {
		m.clock = clock.Real()
	}
	if err := core.ValidateRelevance(cfg.GetDefaultItemRelevance()); err != nil {
		return nil, fmt.Errorf("default item relevance: %w", err)
	}

	m.store = NewSessionStore(m.clock)
	m.registry = NewItemRegistry(m.store, m.clock)

	var err error
	m.retrieval, err = NewRetrievalEngine(m.store, scorer, Ranking{
		StoredWeight: cfg.GetStoredWeight(),
		QueryWeight:  cfg.GetQueryWeight(),
		Timeout:      cfg.GetScorerTimeout(),
		Concurrency:  cfg.GetScorerConcurrency(),
	}, m.clock)
	if err != nil {
		return nil, fmt.Errorf("retrieval engine: %w", err)
	}

	m.pruning, err = NewPruningEngine(m.store, cfg.GetMaxItemsPerSession(), cfg.GetDefaultPruneMaxRelevance(), m.clock)
	if err != nil {
		return nil, fmt.Errorf("pruning engine: %w", err)
	}

	m.summaries, err = NewSummarizationCoordinator(
		m.store,
		summarizer,
		counter,
		cfg.GetSummarizerTimeout(),
		cfg.IsSummaryCacheEnabled(),
		m.clock,
	)
	if err != nil {
		return nil, fmt.Errorf("summarization coordinator: %w", err)
	}

	return m, nil
}

// Initialize loads persisted sessions once. Snapshots that break item
// invariants are skipped and logged. Without a repository it is a no-op.
func (m *Manager) Initialize(ctx context.Context) error {
	m.initOnce.Do(func() {
		if m.repo == nil {
			return
		}
		logger := log.FromCtx(ctx)

		sessions, err := m.repo.LoadSessions(ctx)
		if err != nil {
			m.initErr = fmt.Errorf("load sessions: %w", err)
			return
		}

		restored := 0
		for _, s := range sessions {
			if err := m.store.restore(s); err != nil {
				logger.Error().Err(err).Str("session_id", s.ID).Msg("skipping invalid session snapshot")
				continue
			}
			restored++
		}
		logger.Info().Int("sessions", restored).Msg("context sessions restored")
	})
	return m.initErr
}

func (m *Manager) CreateSession(ctx context.Context, projectID string, metadata map[string]string) (*core.Session, error) {
	s, err := m.store.Create(projectID, metadata)
	if err != nil {
		return nil, err
	}
	log.FromCtx(ctx).Debug().Str("session_id", s.ID).Str("project_id", projectID).Msg("session created")
	return &s, nil
}

func (m *Manager) GetSession(ctx context.Context, sessionID string) (*core.Session, error) {
	s, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *Manager) ListSessions(ctx context.Context, projectID string) []core.SessionInfo {
	return m.store.List(projectID)
}

func (m *Manager) DeleteSession(ctx context.Context, sessionID string) error {
	if err := m.store.Delete(sessionID); err != nil {
		return err
	}
	m.summaries.forget(sessionID)

	if m.repo != nil {
		m.persistMu.Lock()
		err := m.repo.DeleteSession(ctx, sessionID)
		m.persistMu.Unlock()
		if err != nil {
			return fmt.Errorf("delete session snapshot: %w", err)
		}
	}
	log.FromCtx(ctx).Debug().Str("session_id", sessionID).Msg("session deleted")
	return nil
}

func (m *Manager) ClearSession(ctx context.Context, sessionID string) error {
	if err := m.store.Clear(sessionID); err != nil {
		return err
	}
	m.summaries.forget(sessionID)
	return nil
}

func (m *Manager) AddContextItem(ctx context.Context, sessionID string, item core.NewItem) (*core.ContextItem, error) {
	added, err := m.registry.Add(sessionID, item)
	if err != nil {
		return nil, err
	}
	return &added, nil
}

func (m *Manager) RemoveContextItem(ctx context.Context, sessionID, itemID string) error {
	removed, err := m.registry.Remove(sessionID, itemID)
	if err != nil {
		return err
	}
	if removed {
		m.summaries.invalidate(sessionID, []string{itemID})
	}
	return nil
}

func (m *Manager) UpdateItemRelevance(ctx context.Context, sessionID, itemID string, relevance float64) (*core.ContextItem, error) {
	updated, err := m.registry.UpdateRelevance(sessionID, itemID, relevance)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (m *Manager) RetrieveRelevantContext(ctx context.Context, sessionID, query string, opts core.RetrieveOptions) (*core.RetrievalResult, error) {
	return m.retrieval.Retrieve(ctx, sessionID, query, opts)
}

func (m *Manager) GenerateContextSummary(ctx context.Context, sessionID string, maxTokens int) (*core.Summary, error) {
	return m.summaries.Summarize(ctx, sessionID, maxTokens)
}

// PruneContext removes items per opts and returns how many went away.
func (m *Manager) PruneContext(ctx context.Context, sessionID string, opts core.PruneOptions) (int, error) {
	removed, err := m.pruning.Prune(ctx, sessionID, opts)
	if err != nil {
		return 0, err
	}
	if len(removed) > 0 {
		m.summaries.invalidate(sessionID, removed)
	}
	return len(removed), nil
}

// PruneAll applies the capacity policy to every session.
func (m *Manager) PruneAll(ctx context.Context) (int, error) {
	total := 0
	for _, id := range m.store.IDs() {
		n, err := m.PruneContext(ctx, id, core.PruneOptions{})
		if err != nil {
			if core.IsNotFound(err) {
				continue
			}
			return total, err
		}
		total += n
	}
	return total, nil
}

// Flush persists every session changed since the previous flush. Sessions
// that fail to save stay dirty for the next attempt.
func (m *Manager) Flush(ctx context.Context) error {
	if m.repo == nil {
		return nil
	}

	var errs []error
	saved := 0
	for _, snap := range m.store.drainDirty() {
		ok, err := m.saveSnapshot(ctx, snap)
		if err != nil {
			m.store.markDirty(snap.ID)
			errs = append(errs, fmt.Errorf("save session %s: %w", snap.ID, err))
			continue
		}
		if ok {
			saved++
		}
	}

	if saved > 0 {
		log.FromCtx(ctx).Debug().Int("sessions", saved).Msg("context snapshots flushed")
	}
	return errors.Join(errs...)
}

// saveSnapshot writes snap unless its session was deleted after the
// snapshot was taken.
func (m *Manager) saveSnapshot(ctx context.Context, snap core.Session) (bool, error) {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	if !m.store.has(snap.ID) {
		return false, nil
	}
	if err := m.repo.SaveSession(ctx, snap); err != nil {
		return false, err
	}
	return true, nil
}
