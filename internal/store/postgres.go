package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"chathub/internal/core"
)

// PostgresStore implements Store for PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgreSQL creates a new PostgreSQL store. It creates a connection
// pool, verifies connectivity, and applies the schema.
func NewPostgreSQL(ctx context.Context, cfg PostgreSQLConfig) (*PostgresStore, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("PostgreSQL URL is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL URL: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	} else {
		poolCfg.MaxConns = 10
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			model TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id BIGSERIAL PRIMARY KEY,
			conversation_id BIGINT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			response_time BIGINT,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id)`,
	}
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, password string) (*User, error) {
	now := time.Now().UTC()
	var id int64
	err := s.pool.QueryRow(ctx,
		"INSERT INTO users (username, password, created_at) VALUES ($1, $2, $3) RETURNING id",
		username, password, now,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, core.NewValidationError("username already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &User{ID: id, Username: username, Password: password, CreatedAt: now}, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		"SELECT id, username, password, created_at FROM users WHERE username = $1",
		username,
	).Scan(&u.ID, &u.Username, &u.Password, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.NewNotFoundError("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) ListConversations(ctx context.Context) ([]*Conversation, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, title, model, created_at, updated_at FROM conversations ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	conversations := make([]*Conversation, 0)
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.Model, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, &c)
	}
	return conversations, rows.Err()
}

func (s *PostgresStore) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	var c Conversation
	err := s.pool.QueryRow(ctx,
		"SELECT id, title, model, created_at, updated_at FROM conversations WHERE id = $1", id,
	).Scan(&c.ID, &c.Title, &c.Model, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.NewNotFoundError("conversation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) CreateConversation(ctx context.Context, title, model string) (*Conversation, error) {
	now := time.Now().UTC()
	var id int64
	err := s.pool.QueryRow(ctx,
		"INSERT INTO conversations (title, model, created_at, updated_at) VALUES ($1, $2, $3, $3) RETURNING id",
		title, model, now,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return &Conversation{ID: id, Title: title, Model: model, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *PostgresStore) UpdateConversation(ctx context.Context, id int64, upd ConversationUpdate) (*Conversation, error) {
	existing, err := s.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}

	title := existing.Title
	if upd.Title != nil {
		title = *upd.Title
	}
	model := existing.Model
	if upd.Model != nil {
		model = *upd.Model
	}
	updatedAt := monotonicUpdatedAt(existing.UpdatedAt, upd.UpdatedAt)

	_, err = s.pool.Exec(ctx,
		"UPDATE conversations SET title = $1, model = $2, updated_at = $3 WHERE id = $4",
		title, model, updatedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}

	return &Conversation{
		ID:        id,
		Title:     title,
		Model:     model,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: updatedAt,
	}, nil
}

func (s *PostgresStore) DeleteConversation(ctx context.Context, id int64) (bool, error) {
	// Messages go with the conversation via ON DELETE CASCADE.
	tag, err := s.pool.Exec(ctx, "DELETE FROM conversations WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete conversation: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ListMessages(ctx context.Context, conversationID int64) ([]*Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, conversation_id, role, content, response_time, created_at
		 FROM messages WHERE conversation_id = $1 ORDER BY id`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.ResponseTime, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

func (s *PostgresStore) CreateMessage(ctx context.Context, conversationID int64, role, content string, responseTime *int64) (*Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages (conversation_id, role, content, response_time, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		conversationID, role, content, responseTime, now,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return &Message{
		ID:             id,
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		ResponseTime:   responseTime,
		CreatedAt:      now,
	}, nil
}

func (s *PostgresStore) ClearMessages(ctx context.Context, conversationID int64) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM messages WHERE conversation_id = $1", conversationID); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
