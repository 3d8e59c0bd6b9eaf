// Package conversation provides durable persistence for multi-turn dialogue
// sessions backed by embedded SQLite.
//
// A session is a single threaded conversation owned by one principal and
// identified by an opaque, globally unique string. Messages are role-tagged
// turns appended to a session; they are totally ordered by their insertion
// id and never reordered on retrieval.
//
// Key operations:
//
//   - Session lifecycle: [NewSessionID], [Store.CreateSession], [Store.SessionExists], [Store.Session], [Store.Sessions], [Store.DeleteSession]
//   - Message persistence: [Store.AddMessage] (transactional insert + counter bump)
//   - Context assembly: [Store.History], [Store.ContextWindow]
//   - Diagnostics: [Store.Stats]
//
// # Transaction Safety
//
// [Store.AddMessage] performs the message insert and the owning session's
// updated_at/message_count bump inside one transaction, so the denormalized
// counter can never drift from the true message count. SQLite's single-writer
// locking serializes concurrent appends to the same session.
//
// # Concurrency
//
// Store is safe for concurrent use. All state lives in the database; no
// shared Go-side state exists. Each operation is one bounded transaction
// with the connection released on every exit path.
//
// # Local State
//
// [SaveCurrentSessionID] and [LoadCurrentSessionID] persist the locally
// active session id to ~/.eva/current_session using atomic writes
// (temp file + rename) with file locking via [github.com/gofrs/flock].
package conversation
