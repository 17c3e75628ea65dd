package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/forcegate/forcegate/internal/logger"
	"github.com/google/uuid"

	// Database drivers
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Driver represents the type of database driver backing a SQLStore.
type Driver string

// Database driver constants
const (
	SQLite     Driver = "sqlite3"
	PostgreSQL Driver = "postgres"
)

// DetectDriver determines the database driver from the connection string.
func DetectDriver(connectionString string) Driver {
	connectionString = strings.ToLower(connectionString)

	switch {
	case strings.HasPrefix(connectionString, "postgres://") ||
		strings.HasPrefix(connectionString, "postgresql://") ||
		strings.Contains(connectionString, "host="):
		return PostgreSQL
	default:
		// Plain paths, file: URIs and :memory: are all SQLite.
		return SQLite
	}
}

const createSessionsTable = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	credential TEXT,
	created_at TIMESTAMP NOT NULL
)`

// SQLStore persists sessions in a relational database so they survive
// restarts. The credential is stored as a JSON column; a NULL credential
// marks the session unauthenticated.
type SQLStore struct {
	db     *sql.DB
	driver Driver
}

// OpenSQLStore opens the database named by connectionString, creates the
// sessions table if needed, and returns a store over it.
func OpenSQLStore(connectionString string) (*SQLStore, error) {
	driver := DetectDriver(connectionString)

	if driver == SQLite && !strings.Contains(connectionString, "?") && connectionString != ":memory:" {
		connectionString += "?_busy_timeout=10000&_journal_mode=WAL"
	}

	logger.Info("Opening session database", "driver", string(driver))

	db, err := sql.Open(string(driver), connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	if driver == SQLite {
		// SQLite does not benefit from connection pooling.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping session database: %w", err)
	}
	if _, err := db.Exec(createSessionsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}
	return &SQLStore{db: db, driver: driver}, nil
}

// NewSQLStore wraps an already-open database. The sessions table must exist.
func NewSQLStore(db *sql.DB, driver Driver) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// placeholder returns the SQL placeholder for the given position.
func (s *SQLStore) placeholder(position int) string {
	if s.driver == PostgreSQL {
		return fmt.Sprintf("$%d", position)
	}
	return "?"
}

// Get retrieves a session by ID.
func (s *SQLStore) Get(ctx context.Context, id string) (*Session, error) {
	query := fmt.Sprintf("SELECT id, credential, created_at FROM sessions WHERE id = %s", s.placeholder(1))

	var (
		sess       Session
		credential sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&sess.ID, &credential, &sess.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if credential.Valid {
		var cred Credential
		if err := json.Unmarshal([]byte(credential.String), &cred); err != nil {
			return nil, fmt.Errorf("failed to decode stored credential: %w", err)
		}
		sess.Credential = &cred
	}
	return &sess, nil
}

// Create mints a new unauthenticated session.
func (s *SQLStore) Create(ctx context.Context) (*Session, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	query := fmt.Sprintf("INSERT INTO sessions (id, credential, created_at) VALUES (%s, NULL, %s)",
		s.placeholder(1), s.placeholder(2))
	if _, err := s.db.ExecContext(ctx, query, sess.ID, sess.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

// SetCredential replaces the session's credential.
func (s *SQLStore) SetCredential(ctx context.Context, id string, cred *Credential) error {
	payload, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}
	query := fmt.Sprintf("UPDATE sessions SET credential = %s WHERE id = %s",
		s.placeholder(1), s.placeholder(2))
	res, err := s.db.ExecContext(ctx, query, string(payload), id)
	if err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Destroy removes the session row.
func (s *SQLStore) Destroy(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM sessions WHERE id = %s", s.placeholder(1))
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}
