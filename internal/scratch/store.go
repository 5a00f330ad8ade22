package scratch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Store keeps large parsed-row payloads on disk between the preview and the
// confirm calls so the session map never holds them resident. The import
// session owns the key and releases it exactly once on its terminal event.
type Store struct {
	dir string
	mu  sync.Mutex
}

func NewStore() (*Store, error) {
	dir := strings.TrimSpace(os.Getenv("IMPORT_SCRATCH_DIR"))
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "acente-import")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create scratch dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Put serializes payload to a fresh scratch file and returns its key.
func (s *Store) Put(payload interface{}) (string, error) {
	key := uuid.NewString()
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal scratch payload: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.path(key), data, 0644); err != nil {
		return "", fmt.Errorf("write scratch payload: %w", err)
	}
	return key, nil
}

// Get loads the payload back into out.
func (s *Store) Get(key string, out interface{}) error {
	s.mu.Lock()
	data, err := os.ReadFile(s.path(key))
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("read scratch payload %s: %w", key, err)
	}
	return json.Unmarshal(data, out)
}

// Release deletes the payload. Safe to call for an already-released key.
func (s *Store) Release(key string) {
	if strings.TrimSpace(key) == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	os.Remove(s.path(key))
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
