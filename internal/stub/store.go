package stub

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// User is an account row in the stub database.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Email        string
	Avatar       string
	CreatedAt    time.Time
}

// StoredMessage is a message row in the stub database.
type StoredMessage struct {
	ID        int64
	UserID    int64
	Username  string
	Text      string
	CreatedAt time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	email         TEXT NOT NULL DEFAULT '',
	avatar        TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL,
	username   TEXT NOT NULL,
	text       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Store persists stub users and messages in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (and if needed initializes) the stub database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateUser inserts a new account.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash, email, avatar string) (*User, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, email, avatar)
		VALUES (?, ?, ?, ?)
	`, username, passwordHash, email, avatar)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}
	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves an account by id.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, email, avatar, created_at
		FROM users WHERE id = ?
	`, id))
}

// GetUserByUsername retrieves an account by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, email, avatar, created_at
		FROM users WHERE username = ?
	`, username))
}

func (s *Store) scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Avatar, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// SaveMessage inserts a message and returns it with its assigned id.
func (s *Store) SaveMessage(ctx context.Context, userID int64, username, text string) (*StoredMessage, error) {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (user_id, username, text, created_at)
		VALUES (?, ?, ?, ?)
	`, userID, username, text, now)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}
	return &StoredMessage{ID: id, UserID: userID, Username: username, Text: text, CreatedAt: now}, nil
}

// ListMessages returns all messages in insertion order.
func (s *Store) ListMessages(ctx context.Context) ([]*StoredMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, username, text, created_at
		FROM messages ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	defer rows.Close()

	var messages []*StoredMessage
	for rows.Next() {
		var m StoredMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.Username, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// GetMessage retrieves a message by id.
func (s *Store) GetMessage(ctx context.Context, id int64) (*StoredMessage, error) {
	var m StoredMessage
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, username, text, created_at
		FROM messages WHERE id = ?
	`, id).Scan(&m.ID, &m.UserID, &m.Username, &m.Text, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan message: %w", err)
	}
	return &m, nil
}

// DeleteMessage removes a message by id.
func (s *Store) DeleteMessage(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}
