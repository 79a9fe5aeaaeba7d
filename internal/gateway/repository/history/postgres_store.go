package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"

	llmclient "geomentor/internal/llm/client"
)

// PostgresStore keeps every turn as a row so histories survive restarts.
type PostgresStore struct {
	db         *sql.DB
	schemaOnce sync.Once
	schemaErr  error
}

func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewPostgresStore(db), nil
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS chat_turns (
    id BIGSERIAL PRIMARY KEY,
    session_id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_chat_turns_session ON chat_turns(session_id, id);
`)
	})
	return s.schemaErr
}

func (s *PostgresStore) Load(ctx context.Context, sessionID string) ([]llmclient.Message, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content FROM chat_turns WHERE session_id=$1 ORDER BY id`,
		normalizeSession(sessionID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []llmclient.Message
	for rows.Next() {
		var m llmclient.Message
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Append(ctx context.Context, sessionID string, msgs ...llmclient.Message) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := insertTurns(ctx, tx, normalizeSession(sessionID), msgs); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PostgresStore) Replace(ctx context.Context, sessionID string, msgs []llmclient.Message) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	id := normalizeSession(sessionID)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_turns WHERE session_id=$1`, id); err != nil {
		return err
	}
	if err := insertTurns(ctx, tx, id, msgs); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PostgresStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM chat_turns WHERE session_id=$1`, normalizeSession(sessionID))
	return err
}

func insertTurns(ctx context.Context, tx *sql.Tx, sessionID string, msgs []llmclient.Message) error {
	for _, m := range msgs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chat_turns (session_id, role, content) VALUES ($1, $2, $3)`,
			sessionID, m.Role, m.Content); err != nil {
			return err
		}
	}
	return nil
}
