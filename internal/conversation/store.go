package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store manages session and message persistence with an embedded SQLite
// backend. Every public operation is a bounded, independently-atomic unit of
// work; no locks are held across calls.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db           *sql.DB
	historyLimit int
	logger       *slog.Logger
}

// New creates a new Store instance.
//
// historyLimit is the default number of messages History and ContextWindow
// return when the caller passes no limit; values <= 0 fall back to
// DefaultHistoryLimit. A nil logger falls back to slog.Default().
func New(db *sql.DB, historyLimit int, logger *slog.Logger) *Store {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		db:           db,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// HistoryLimit returns the configured default history limit.
func (s *Store) HistoryLimit() int {
	return s.historyLimit
}

// CreateSession inserts a new session row with a zero message count.
//
// Returns (true, nil) on success and (false, nil) when the identifier is
// already registered — a duplicate is an expected, recoverable outcome the
// caller can treat as "proceed with the existing session". Any other
// persistence failure is logged and returned.
func (s *Store) CreateSession(ctx context.Context, sessionID, ownerID string, metadata Metadata) (bool, error) {
	metaJSON, err := marshalMetadata(metadata)
	if err != nil {
		s.logger.Error("failed to encode session metadata",
			"session_id", sessionID, "error", err)
		return false, fmt.Errorf("failed to encode session metadata: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, owner_id, created_at, updated_at, metadata)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, ownerID, now, now, metaJSON,
	)
	if err != nil {
		if isConstraintErr(err, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE) {
			s.logger.Debug("session already exists", "session_id", sessionID)
			return false, nil
		}
		s.logger.Error("failed to create session",
			"session_id", sessionID, "owner_id", ownerID, "error", err)
		return false, fmt.Errorf("failed to create session %s: %w", sessionID, err)
	}

	s.logger.Debug("created session", "session_id", sessionID, "owner_id", ownerID)
	return true, nil
}

// SessionExists reports whether sessionID is registered. No side effects.
func (s *Store) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM sessions WHERE session_id = ?", sessionID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check session %s: %w", sessionID, err)
	}
	return true, nil
}

// Session retrieves the full session record, decoding the stored metadata
// document. Returns ErrNotFound when the identifier is unknown.
func (s *Store) Session(ctx context.Context, sessionID string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, owner_id, created_at, updated_at, metadata, message_count
		 FROM sessions
		 WHERE session_id = ?`,
		sessionID,
	)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	return sess, nil
}

// AddMessage appends one role-tagged message to a session.
//
// The message insert and the owning session's updated_at/message_count bump
// happen in a single transaction: both effects are visible together or not
// at all. Appending to an unknown session fails with ErrNotFound rather than
// auto-creating it; a role outside the closed set fails with ErrInvalidRole
// before anything is written.
func (s *Store) AddMessage(ctx context.Context, sessionID, role, content string, metadata Metadata, toolCalls []ToolCall) error {
	if !ValidRole(role) {
		s.logger.Warn("rejected message with invalid role",
			"session_id", sessionID, "role", role)
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	metaJSON, err := marshalMetadata(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode message metadata: %w", err)
	}

	var toolCallsArg any
	if len(toolCalls) > 0 {
		encoded, err := json.Marshal(toolCalls)
		if err != nil {
			return fmt.Errorf("failed to encode tool calls: %w", err)
		}
		toolCallsArg = string(encoded)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("failed to begin transaction",
			"session_id", sessionID, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.logger.Debug("transaction rollback", "session_id", sessionID, "error", err)
		}
	}()

	now := time.Now().UTC()

	// The counter bump comes first: it doubles as the existence check and,
	// because it takes SQLite's write lock, serializes concurrent appends to
	// the same session so message_count never drifts.
	res, err := tx.ExecContext(ctx,
		`UPDATE sessions
		 SET updated_at = ?, message_count = message_count + 1
		 WHERE session_id = ?`,
		now, sessionID,
	)
	if err != nil {
		s.logger.Error("failed to update session on append",
			"session_id", sessionID, "error", err)
		return fmt.Errorf("failed to update session %s: %w", sessionID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		s.logger.Warn("cannot append to unknown session", "session_id", sessionID)
		return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, timestamp, metadata, tool_calls)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, role, content, now, metaJSON, toolCallsArg,
	); err != nil {
		s.logger.Error("failed to insert message",
			"session_id", sessionID, "role", role, "error", err)
		return fmt.Errorf("failed to insert message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("failed to commit message append",
			"session_id", sessionID, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debug("added message", "session_id", sessionID, "role", role)
	return nil
}

// History retrieves up to limit most-recently appended messages for a
// session, returned in chronological (oldest-first) insertion order.
// limit <= 0 uses the store's configured default.
//
// The retrieval fetches the newest-first page and then reverses it: a naive
// oldest-first query with LIMIT would truncate to the oldest messages
// instead of the most recent ones. A session with no messages yields an
// empty slice, not an error.
func (s *Store) History(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = s.historyLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, timestamp, metadata, tool_calls
		 FROM messages
		 WHERE session_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		s.logger.Error("failed to query history",
			"session_id", sessionID, "error", err)
		return nil, fmt.Errorf("failed to get history for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}

	// Newest-first page back to chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	s.logger.Debug("retrieved history", "session_id", sessionID, "count", len(messages))
	return messages, nil
}

// ContextWindow returns the recency window of a session projected down to
// what a generation call consumes: role, content and any tool calls, in the
// same chronological order History guarantees.
func (s *Store) ContextWindow(ctx context.Context, sessionID string, limit int) ([]ContextMessage, error) {
	messages, err := s.History(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}

	window := make([]ContextMessage, 0, len(messages))
	for _, msg := range messages {
		window = append(window, ContextMessage{
			Role:      msg.Role,
			Content:   msg.Content,
			ToolCalls: msg.ToolCalls,
		})
	}
	return window, nil
}

// Sessions lists sessions owned by ownerID, most recently active first.
// limit <= 0 uses DefaultListLimit; the limit is a hard cap, not a page
// size — callers needing more raise it.
func (s *Store) Sessions(ctx context.Context, ownerID string, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, owner_id, created_at, updated_at, metadata, message_count
		 FROM sessions
		 WHERE owner_id = ?
		 ORDER BY updated_at DESC
		 LIMIT ?`,
		ownerID, limit,
	)
	if err != nil {
		s.logger.Error("failed to list sessions", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("failed to list sessions for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session rows: %w", err)
	}

	s.logger.Debug("listed sessions", "owner_id", ownerID, "count", len(sessions))
	return sessions, nil
}

// DeleteSession removes a session and, through the schema's cascade, every
// message referencing it.
//
// Returns (true, nil) when a row was removed and (false, nil) — logged as a
// warning, not an error — when the identifier did not exist: deleting a
// missing session is a no-op outcome, not a failure.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE session_id = ?", sessionID,
	)
	if err != nil {
		s.logger.Error("failed to delete session",
			"session_id", sessionID, "error", err)
		return false, fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		s.logger.Warn("session not found for deletion", "session_id", sessionID)
		return false, nil
	}

	s.logger.Info("deleted session", "session_id", sessionID)
	return true, nil
}

// Stats computes aggregate counters directly from the tables: exact counts,
// acceptable because this is a diagnostic query rather than a hot path.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{HistoryLimit: s.historyLimit}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions",
	).Scan(&stats.TotalSessions); err != nil {
		return Stats{}, fmt.Errorf("failed to count sessions: %w", err)
	}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM messages",
	).Scan(&stats.TotalMessages); err != nil {
		return Stats{}, fmt.Errorf("failed to count messages: %w", err)
	}

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE updated_at > ?", cutoff,
	).Scan(&stats.RecentSessions); err != nil {
		return Stats{}, fmt.Errorf("failed to count recent sessions: %w", err)
	}

	return stats, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var (
		sess     Session
		metaJSON string
	)
	if err := row.Scan(
		&sess.ID, &sess.OwnerID, &sess.CreatedAt, &sess.UpdatedAt,
		&metaJSON, &sess.MessageCount,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(metaJSON), &sess.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode session metadata: %w", err)
	}
	return &sess, nil
}

func scanMessage(row scanner) (Message, error) {
	var (
		msg           Message
		metaJSON      string
		toolCallsJSON sql.NullString
	)
	if err := row.Scan(
		&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.Timestamp,
		&metaJSON, &toolCallsJSON,
	); err != nil {
		return Message{}, err
	}

	if err := json.Unmarshal([]byte(metaJSON), &msg.Metadata); err != nil {
		return Message{}, fmt.Errorf("failed to decode message metadata: %w", err)
	}
	if toolCallsJSON.Valid {
		if err := json.Unmarshal([]byte(toolCallsJSON.String), &msg.ToolCalls); err != nil {
			return Message{}, fmt.Errorf("failed to decode tool calls: %w", err)
		}
	}
	return msg, nil
}

// marshalMetadata encodes metadata as a JSON document, defaulting a nil map
// to the empty document so the column is never NULL.
func marshalMetadata(metadata Metadata) (string, error) {
	if metadata == nil {
		return "{}", nil
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// isConstraintErr reports whether err is a SQLite constraint violation with
// one of the given extended result codes.
func isConstraintErr(err error, codes ...int) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	for _, code := range codes {
		if serr.Code() == code {
			return true
		}
	}
	return false
}
