package contextmgr

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/clock"
)

// session is the owned, mutable state behind a core.Session. Every field
// below mu is guarded by it.
type session struct {
	mu        sync.RWMutex
	id        string
	projectID string
	items     []core.ContextItem
	ids       map[string]struct{}
	createdAt time.Time
	updatedAt time.Time
	metadata  map[string]string

	// version increases on every mutation; cached summaries compare against it.
	version uint64
	// deleted is set when the session leaves the store so that writers
	// holding a stale pointer fail instead of mutating an orphan.
	deleted bool
}

func (s *session) snapshot() core.Session {
	items := make([]core.ContextItem, len(s.items))
	for i, it := range s.items {
		items[i] = it.Clone()
	}
	return core.Session{
		ID:        s.id,
		ProjectID: s.projectID,
		Items:     items,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
		Metadata:  core.CloneMetadata(s.metadata),
	}
}

func (s *session) info() core.SessionInfo {
	return core.SessionInfo{
		ID:        s.id,
		ProjectID: s.projectID,
		ItemCount: len(s.items),
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
}

func (s *session) touch(now time.Time) {
	s.updatedAt = now
	s.version++
}

func (s *session) indexOf(itemID string) int {
	if _, ok := s.ids[itemID]; !ok {
		return -1
	}
	for i := range s.items {
		if s.items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// removeWhere drops matching items, keeping insertion order, and returns the
// removed ids.
func (s *session) removeWhere(match func(core.ContextItem) bool) []string {
	var removed []string
	kept := s.items[:0]
	for _, it := range s.items {
		if match(it) {
			removed = append(removed, it.ID)
			delete(s.ids, it.ID)
			continue
		}
		kept = append(kept, it)
	}
	for i := len(kept); i < len(s.items); i++ {
		s.items[i] = core.ContextItem{}
	}
	s.items = kept
	return removed
}

// SessionStore owns every session by id. Sessions are handed out only as
// copies; each session is locked independently.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
	clock    clock.Clock

	dirtyMu sync.Mutex
	dirty   map[string]struct{}
}

func NewSessionStore(clk clock.Clock) *SessionStore {
	if clk == nil {
		clk = clock.Real()
	}
	return &SessionStore{
		sessions: make(map[string]*session),
		dirty:    make(map[string]struct{}),
		clock:    clk,
	}
}

func (st *SessionStore) Create(projectID string, metadata map[string]string) (core.Session, error) {
	if projectID == "" {
		return core.Session{}, core.NewValidationError("project_id", "must not be empty")
	}

	now := st.clock.Now()
	s := &session{
		id:        uuid.NewString(),
		projectID: projectID,
		ids:       make(map[string]struct{}),
		createdAt: now,
		updatedAt: now,
		metadata:  core.CloneMetadata(metadata),
	}

	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()
	st.markDirty(s.id)

	return s.snapshot(), nil
}

func (st *SessionStore) Get(sessionID string) (core.Session, error) {
	s, err := st.lookup(sessionID)
	if err != nil {
		return core.Session{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deleted {
		return core.Session{}, core.SessionNotFound(sessionID)
	}
	return s.snapshot(), nil
}

// List returns sessions of projectID (all when empty), most recently
// updated first.
func (st *SessionStore) List(projectID string) []core.SessionInfo {
	st.mu.RLock()
	all := make([]*session, 0, len(st.sessions))
	for _, s := range st.sessions {
		all = append(all, s)
	}
	st.mu.RUnlock()

	infos := make([]core.SessionInfo, 0, len(all))
	for _, s := range all {
		s.mu.RLock()
		if !s.deleted && (projectID == "" || s.projectID == projectID) {
			infos = append(infos, s.info())
		}
		s.mu.RUnlock()
	}

	sort.Slice(infos, func(a, b int) bool {
		if !infos[a].UpdatedAt.Equal(infos[b].UpdatedAt) {
			return infos[a].UpdatedAt.After(infos[b].UpdatedAt)
		}
		return infos[a].ID < infos[b].ID
	})
	return infos
}

func (st *SessionStore) Delete(sessionID string) error {
	st.mu.Lock()
	s, ok := st.sessions[sessionID]
	if ok {
		delete(st.sessions, sessionID)
	}
	st.mu.Unlock()
	if !ok {
		return core.SessionNotFound(sessionID)
	}

	s.mu.Lock()
	s.deleted = true
	s.mu.Unlock()

	st.dirtyMu.Lock()
	delete(st.dirty, sessionID)
	st.dirtyMu.Unlock()
	return nil
}

func (st *SessionStore) Clear(sessionID string) error {
	return st.write(sessionID, func(s *session) (bool, error) {
		for _, it := range s.items {
			delete(s.ids, it.ID)
		}
		s.items = nil
		return true, nil
	})
}

// IDs returns the ids of all live sessions.
func (st *SessionStore) IDs() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	ids := make([]string, 0, len(st.sessions))
	for id := range st.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (st *SessionStore) has(sessionID string) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	_, ok := st.sessions[sessionID]
	return ok
}

func (st *SessionStore) lookup(sessionID string) (*session, error) {
	if sessionID == "" {
		return nil, core.NewValidationError("session_id", "must not be empty")
	}
	st.mu.RLock()
	s, ok := st.sessions[sessionID]
	st.mu.RUnlock()
	if !ok {
		return nil, core.SessionNotFound(sessionID)
	}
	return s, nil
}

// write runs fn under the session's exclusive lock. When fn reports a
// change, updatedAt and the version are bumped and the session is marked
// dirty for the next snapshot flush.
func (st *SessionStore) write(sessionID string, fn func(s *session) (bool, error)) error {
	s, err := st.lookup(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.deleted {
		s.mu.Unlock()
		return core.SessionNotFound(sessionID)
	}
	changed, err := fn(s)
	if err == nil && changed {
		s.touch(st.clock.Now())
	}
	s.mu.Unlock()

	if err == nil && changed {
		st.markDirty(sessionID)
	}
	return err
}

// read runs fn under the session's shared lock.
func (st *SessionStore) read(sessionID string, fn func(s *session) error) error {
	s, err := st.lookup(sessionID)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deleted {
		return core.SessionNotFound(sessionID)
	}
	return fn(s)
}

// restore installs a persisted snapshot after re-checking the item
// invariants. The snapshot is rejected whole on the first violation.
func (st *SessionStore) restore(snap core.Session) error {
	if snap.ID == "" {
		return core.NewValidationError("session_id", "must not be empty")
	}
	if snap.ProjectID == "" {
		return core.NewValidationError("project_id", "must not be empty")
	}

	s := &session{
		id:        snap.ID,
		projectID: snap.ProjectID,
		items:     make([]core.ContextItem, 0, len(snap.Items)),
		ids:       make(map[string]struct{}, len(snap.Items)),
		createdAt: snap.CreatedAt,
		updatedAt: snap.UpdatedAt,
		metadata:  core.CloneMetadata(snap.Metadata),
	}
	for _, it := range snap.Items {
		if it.ID == "" {
			return core.NewValidationError("id", "item without id in session %s", snap.ID)
		}
		if _, dup := s.ids[it.ID]; dup {
			return core.NewValidationError("id", "duplicate item id %q in session %s", it.ID, snap.ID)
		}
		if !it.Type.Valid() {
			return core.NewValidationError("type", "unknown item type %q", it.Type)
		}
		if err := core.ValidateRelevance(it.Relevance); err != nil {
			return err
		}
		s.ids[it.ID] = struct{}{}
		s.items = append(s.items, it.Clone())
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if _, exists := st.sessions[snap.ID]; exists {
		return core.NewValidationError("session_id", "session %q already loaded", snap.ID)
	}
	st.sessions[snap.ID] = s
	return nil
}

func (st *SessionStore) markDirty(sessionID string) {
	st.dirtyMu.Lock()
	st.dirty[sessionID] = struct{}{}
	st.dirtyMu.Unlock()
}

// drainDirty snapshots every session changed since the last drain and
// resets the dirty set.
func (st *SessionStore) drainDirty() []core.Session {
	st.dirtyMu.Lock()
	ids := make([]string, 0, len(st.dirty))
	for id := range st.dirty {
		ids = append(ids, id)
	}
	st.dirty = make(map[string]struct{})
	st.dirtyMu.Unlock()

	sort.Strings(ids)
	snaps := make([]core.Session, 0, len(ids))
	for _, id := range ids {
		snap, err := st.Get(id)
		if err != nil {
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps
}
