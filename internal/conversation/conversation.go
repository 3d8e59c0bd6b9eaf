package conversation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for store operations, checked with errors.Is().
var (
	// ErrNotFound indicates the requested session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidRole indicates a message role outside the closed role set.
	ErrInvalidRole = errors.New("invalid message role")
)

// Message role constants. The role column is constrained to this closed set;
// anything else is rejected before it reaches the database.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

const (
	// DefaultHistoryLimit is the store-wide default for History and
	// ContextWindow when the caller passes no limit.
	DefaultHistoryLimit = 10

	// DefaultListLimit caps Sessions listings when the caller passes no limit.
	DefaultListLimit = 50
)

// ValidRole reports whether role belongs to the closed role set.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return true
	}
	return false
}

// NewSessionID mints a fresh globally unique session identifier.
// Pure generation: the session is not registered until CreateSession.
func NewSessionID() string {
	return uuid.NewString()
}

// Metadata is an open mapping of caller-defined context carried opaquely by
// sessions and messages. It is serialized as a JSON document; the store
// never interprets its contents.
type Metadata map[string]any

// ToolCall describes one tool invocation attached to a message. The shape is
// caller-defined; the store treats it as an opaque JSON object.
type ToolCall map[string]any

// Session represents one conversation session.
type Session struct {
	ID           string
	OwnerID      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Metadata     Metadata
	MessageCount int
}

// Message represents a single turn within a session. ID is assigned by the
// database and expresses insertion order; Timestamp carries wall-clock time
// but ordering always follows ID.
type Message struct {
	ID        int64
	SessionID string
	Role      string
	Content   string
	Timestamp time.Time
	Metadata  Metadata
	ToolCalls []ToolCall
}

// ContextMessage is the consumption-ready projection of a Message: only what
// a downstream generation call needs, storage fields stripped.
type ContextMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Stats reports aggregate counters for diagnostics. Counts are exact; this
// is an operational query, not a hot path.
type Stats struct {
	TotalSessions  int64
	TotalMessages  int64
	RecentSessions int64 // sessions updated within the last 24 hours
	HistoryLimit   int
}
