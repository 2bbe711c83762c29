package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/log"
)

// SessionRepo stores whole session snapshots. Saving replaces the session
// row and all of its items in one transaction.
type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) SaveSession(ctx context.Context, s core.Session) error {
	meta, err := encodeMetadata(s.Metadata)
	if err != nil {
		return fmt.Errorf("session %s metadata: %w", s.ID, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO sessions (id, project_id, metadata, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET project_id = excluded.project_id, metadata = excluded.metadata, updated_at = excluded.updated_at`
	if _, err := tx.ExecContext(ctx, query, s.ID, s.ProjectID, meta, s.CreatedAt.UnixNano(), s.UpdatedAt.UnixNano()); err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM context_items WHERE session_id = ?`, s.ID); err != nil {
		return fmt.Errorf("failed to clear session items: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO context_items
		(session_id, position, id, type, content, relevance, source, created_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare item insert: %w", err)
	}
	defer stmt.Close()

	for pos, it := range s.Items {
		itemMeta, err := encodeMetadata(it.Metadata)
		if err != nil {
			return fmt.Errorf("item %s metadata: %w", it.ID, err)
		}
		_, err = stmt.ExecContext(ctx, s.ID, pos, it.ID, string(it.Type), it.Content, it.Relevance, it.Source, it.Timestamp.UnixNano(), itemMeta)
		if err != nil {
			return fmt.Errorf("failed to insert item %s: %w", it.ID, err)
		}
	}

	return tx.Commit()
}

// LoadSessions returns every stored session with items in insertion order.
// Rows are returned as stored; validation is up to the caller.
func (r *SessionRepo) LoadSessions(ctx context.Context) ([]core.Session, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, project_id, metadata, created_at, updated_at FROM sessions ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []core.Session
	index := make(map[string]int)
	for rows.Next() {
		var (
			s                core.Session
			meta             string
			created, updated int64
		)
		if err := rows.Scan(&s.ID, &s.ProjectID, &meta, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if s.Metadata, err = decodeMetadata(meta); err != nil {
			log.FromCtx(ctx).Warn().Err(err).Str("session_id", s.ID).Msg("dropping unreadable session metadata")
		}
		s.CreatedAt = fromNanos(created)
		s.UpdatedAt = fromNanos(updated)
		index[s.ID] = len(sessions)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}

	if err := r.loadItems(ctx, sessions, index); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *SessionRepo) loadItems(ctx context.Context, sessions []core.Session, index map[string]int) error {
	rows, err := r.db.QueryContext(ctx, `SELECT session_id, id, type, content, relevance, source, created_at, metadata
		FROM context_items ORDER BY session_id, position`)
	if err != nil {
		return fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			sessionID, typ, meta string
			created              int64
			it                   core.ContextItem
		)
		if err := rows.Scan(&sessionID, &it.ID, &typ, &it.Content, &it.Relevance, &it.Source, &created, &meta); err != nil {
			return fmt.Errorf("failed to scan item: %w", err)
		}
		idx, ok := index[sessionID]
		if !ok {
			continue
		}
		it.Type = core.ItemType(typ)
		it.Timestamp = fromNanos(created)
		if it.Metadata, err = decodeMetadata(meta); err != nil {
			log.FromCtx(ctx).Warn().Err(err).Str("item_id", it.ID).Msg("dropping unreadable item metadata")
		}
		sessions[idx].Items = append(sessions[idx].Items, it)
	}
	return rows.Err()
}

func (r *SessionRepo) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func encodeMetadata(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeMetadata(s string) (map[string]string, error) {
	if s == "" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
