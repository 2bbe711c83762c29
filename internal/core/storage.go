package core

import "context"

// SessionRepository persists session snapshots. Implementations store whole
// sessions; the manager re-validates invariants when loading them back.
type SessionRepository interface {
	SaveSession(ctx context.Context, session Session) error
	LoadSessions(ctx context.Context) ([]Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
}
