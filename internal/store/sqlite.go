package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"chathub/internal/core"
)

// SQLiteStore implements Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite store. It enables WAL mode for better
// concurrent read/write behavior and applies the schema.
func NewSQLite(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		cfg.Path = "data/chathub.db"
	}

	if cfg.Path != ":memory:" {
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	dsn := cfg.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite only allows one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			model TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id INTEGER NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			response_time INTEGER,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, username, password string) (*User, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, password, created_at) VALUES (?, ?, ?)",
		username, password, formatTime(now),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, core.NewValidationError("username already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}
	return &User{ID: id, Username: username, Password: password, CreatedAt: now}, nil
}

func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var (
		u         User
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, password, created_at FROM users WHERE username = ?",
		username,
	).Scan(&u.ID, &u.Username, &u.Password, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

func (s *SQLiteStore) ListConversations(ctx context.Context) ([]*Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, model, created_at, updated_at FROM conversations ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	conversations := make([]*Conversation, 0)
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

func (s *SQLiteStore) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, title, model, created_at, updated_at FROM conversations WHERE id = ?", id,
	)
	c, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("conversation not found")
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *SQLiteStore) CreateConversation(ctx context.Context, title, model string) (*Conversation, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO conversations (title, model, created_at, updated_at) VALUES (?, ?, ?, ?)",
		title, model, formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation id: %w", err)
	}
	return &Conversation{ID: id, Title: title, Model: model, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *SQLiteStore) UpdateConversation(ctx context.Context, id int64, upd ConversationUpdate) (*Conversation, error) {
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

	_, err = s.db.ExecContext(ctx,
		"UPDATE conversations SET title = ?, model = ?, updated_at = ? WHERE id = ?",
		title, model, formatTime(updatedAt), id,
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

func (s *SQLiteStore) DeleteConversation(ctx context.Context, id int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Delete owned messages first: the cascade must not depend on the
	// foreign_keys pragma surviving connection churn.
	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE conversation_id = ?", id); err != nil {
		return false, fmt.Errorf("failed to delete messages: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM conversations WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete conversation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit delete: %w", err)
	}

	return affected > 0, nil
}

func (s *SQLiteStore) ListMessages(ctx context.Context, conversationID int64) ([]*Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, response_time, created_at
		 FROM messages WHERE conversation_id = ? ORDER BY id`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*Message, 0)
	for rows.Next() {
		var (
			m            Message
			responseTime sql.NullInt64
			createdAt    string
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &responseTime, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if responseTime.Valid {
			v := responseTime.Int64
			m.ResponseTime = &v
		}
		m.CreatedAt = parseTime(createdAt)
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

func (s *SQLiteStore) CreateMessage(ctx context.Context, conversationID int64, role, content string, responseTime *int64) (*Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var rt interface{}
	if responseTime != nil {
		rt = *responseTime
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (conversation_id, role, content, response_time, created_at) VALUES (?, ?, ?, ?, ?)",
		conversationID, role, content, rt, formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read message id: %w", err)
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

func (s *SQLiteStore) ClearMessages(ctx context.Context, conversationID int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE conversation_id = ?", conversationID); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConversation(row rowScanner) (*Conversation, error) {
	var (
		c                    Conversation
		createdAt, updatedAt string
	)
	if err := row.Scan(&c.ID, &c.Title, &c.Model, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan conversation: %w", err)
	}
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime decodes a stored RFC3339 timestamp. Timestamps are written by
// this process only, so a parse failure means a corrupted row; the zero
// time is returned rather than failing the read.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
