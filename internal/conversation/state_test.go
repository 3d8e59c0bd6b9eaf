package conversation

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCurrentSessionState_RoundTrip(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "current_session")
	sessionID := NewSessionID()

	if err := saveCurrentSessionID(filePath, sessionID); err != nil {
		t.Fatalf("saveCurrentSessionID() failed: %v", err)
	}

	loaded, err := loadCurrentSessionID(filePath)
	if err != nil {
		t.Fatalf("loadCurrentSessionID() failed: %v", err)
	}
	if loaded != sessionID {
		t.Errorf("loaded = %q, want %q", loaded, sessionID)
	}
}

func TestCurrentSessionState_MissingFileIsNotAnError(t *testing.T) {
	loaded, err := loadCurrentSessionID(filepath.Join(t.TempDir(), "current_session"))
	if err != nil {
		t.Fatalf("loadCurrentSessionID() failed: %v", err)
	}
	if loaded != "" {
		t.Errorf("loaded = %q, want empty", loaded)
	}
}

func TestCurrentSessionState_RejectsMalformedID(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "current_session")
	if err := os.WriteFile(filePath, []byte("not-a-uuid"), 0600); err != nil {
		t.Fatalf("writing state file: %v", err)
	}

	if _, err := loadCurrentSessionID(filePath); err == nil {
		t.Error("expected error for malformed session id")
	}
}

func TestCurrentSessionState_OverwriteReplacesPreviousID(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "current_session")

	first := NewSessionID()
	second := NewSessionID()
	if err := saveCurrentSessionID(filePath, first); err != nil {
		t.Fatalf("saveCurrentSessionID() failed: %v", err)
	}
	if err := saveCurrentSessionID(filePath, second); err != nil {
		t.Fatalf("saveCurrentSessionID() failed: %v", err)
	}

	loaded, err := loadCurrentSessionID(filePath)
	if err != nil {
		t.Fatalf("loadCurrentSessionID() failed: %v", err)
	}
	if loaded != second {
		t.Errorf("loaded = %q, want %q", loaded, second)
	}
}
