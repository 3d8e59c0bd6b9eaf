package conversation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const (
	stateDir  = ".eva"
	stateFile = "current_session"
)

// StateFilePath returns the full path to the current session state file,
// creating the state directory (~/.eva) if it doesn't exist.
func StateFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	stateDirPath := filepath.Join(homeDir, stateDir)
	if err := os.MkdirAll(stateDirPath, 0750); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}

	return filepath.Join(stateDirPath, stateFile), nil
}

// LoadCurrentSessionID loads the locally active session id from the state
// file. Returns ("", nil) when no current session is recorded — that is not
// an error.
func LoadCurrentSessionID() (string, error) {
	filePath, err := StateFilePath()
	if err != nil {
		return "", err
	}
	return loadCurrentSessionID(filePath)
}

func loadCurrentSessionID(filePath string) (string, error) {
	lock := flock.New(filePath + ".lock")
	if err := lock.RLock(); err != nil {
		return "", fmt.Errorf("failed to acquire state file lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read state file: %w", err)
	}

	sessionID := strings.TrimSpace(string(data))
	if sessionID == "" {
		return "", nil
	}

	if err := uuid.Validate(sessionID); err != nil {
		return "", fmt.Errorf("invalid session ID in state file: %w", err)
	}

	return sessionID, nil
}

// SaveCurrentSessionID records sessionID as the locally active session.
// The write is atomic (temp file + rename) under an exclusive file lock.
func SaveCurrentSessionID(sessionID string) error {
	filePath, err := StateFilePath()
	if err != nil {
		return err
	}
	return saveCurrentSessionID(filePath, sessionID)
}

func saveCurrentSessionID(filePath, sessionID string) error {
	lock := flock.New(filePath + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire state file lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(sessionID), 0600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}

// ClearCurrentSessionID removes the current session state file. Idempotent:
// clearing when no current session exists is not an error.
func ClearCurrentSessionID() error {
	filePath, err := StateFilePath()
	if err != nil {
		return err
	}

	lock := flock.New(filePath + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire state file lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}

	return nil
}
