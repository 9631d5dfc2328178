package chatclient

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Controlfox/InnoviaHub/internal/models"
)

// StorageKey is the fixed name a serialized session is stored under.
const StorageKey = "aiReceptionistSessionChat"

// Storage persists one serialized conversation session.
type Storage interface {
	Load() ([]models.Message, error)
	Save(msgs []models.Message) error
	Clear() error
}

// FileStorage stores the session as a JSON file named after StorageKey in
// the given directory.
type FileStorage struct {
	path string
}

// NewFileStorage creates a file-backed storage rooted at dir.
func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{path: filepath.Join(dir, StorageKey+".json")}
}

// Load reads the persisted session. A missing or unreadable file yields an
// empty session rather than an error, matching a fresh browser tab.
func (f *FileStorage) Load() ([]models.Message, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, nil
	}
	var msgs []models.Message
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, nil
	}
	return msgs, nil
}

// Save writes the session atomically via a temp file rename, so a reset or
// crash never leaves a partially written session visible.
func (f *FileStorage) Save(msgs []models.Message) error {
	raw, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return os.Rename(tmp, f.path)
}

// Clear removes the persisted session.
func (f *FileStorage) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MemoryStorage is an in-process Storage used by tests.
type MemoryStorage struct {
	msgs []models.Message
}

func NewMemoryStorage() *MemoryStorage { return &MemoryStorage{} }

func (m *MemoryStorage) Load() ([]models.Message, error) {
	out := make([]models.Message, len(m.msgs))
	copy(out, m.msgs)
	return out, nil
}

func (m *MemoryStorage) Save(msgs []models.Message) error {
	m.msgs = make([]models.Message, len(msgs))
	copy(m.msgs, msgs)
	return nil
}

func (m *MemoryStorage) Clear() error {
	m.msgs = nil
	return nil
}
