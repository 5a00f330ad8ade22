package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ImportSession tracks one uploaded carrier file between preview and the last
// confirmed batch. The parsed rows themselves live in scratch storage under
// ScratchKey; only counters and the lazily loaded commit caches stay here.
type ImportSession struct {
	ID          string
	UserID      string
	CarrierID   string
	FileName    string
	FileHash    string
	FormatLabel string
	ScratchKey  string

	TotalRows int
	ValidRows int
	Processed int

	CreatedAt time.Time
	ExpiresAt time.Time

	// Commit caches, loaded once on the first confirmed batch and retained
	// across the rest. Guarded by the single-writer lock below, not by the
	// manager mutex.
	CachesLoaded bool
	DupKeys      map[string]struct{}
	NameIndex    map[string]string
	NewCustomers int

	// Rows are kept resident after the first confirm loads them from scratch.
	ResidentRows interface{}

	writer   sync.Mutex
	released bool
}

// TryAcquire takes the per-session single-writer lock. Batches for one
// session must run strictly one at a time; nothing in the data model enforces
// that, so the commit path refuses concurrent confirms instead of corrupting
// the caches.
func (s *ImportSession) TryAcquire() bool {
	return s.writer.TryLock()
}

func (s *ImportSession) Release() {
	s.writer.Unlock()
}

// ReleaseFunc runs exactly once per session, on whichever terminal event
// comes first: completion, explicit removal, or TTL expiry. Extending or
// re-registering a live session never triggers it.
type ReleaseFunc func(s *ImportSession)

type Manager struct {
	sessions  map[string]*ImportSession
	mu        sync.Mutex
	ttl       time.Duration
	onRelease ReleaseFunc
}

func NewManager(ttl time.Duration, onRelease ReleaseFunc) *Manager {
	return &Manager{
		sessions:  make(map[string]*ImportSession),
		ttl:       ttl,
		onRelease: onRelease,
	}
}

func (m *Manager) Create(userID, carrierID, fileName, fileHash, formatLabel, scratchKey string, totalRows, validRows int) *ImportSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	s := &ImportSession{
		ID:          uuid.NewString(),
		UserID:      userID,
		CarrierID:   carrierID,
		FileName:    fileName,
		FileHash:    fileHash,
		FormatLabel: formatLabel,
		ScratchKey:  scratchKey,
		TotalRows:   totalRows,
		ValidRows:   validRows,
		CreatedAt:   now,
		ExpiresAt:   now.Add(m.ttl),
	}
	m.sessions[s.ID] = s
	return s
}

// Get returns a live session. Expired sessions are treated as absent but are
// left for the sweeper so their scratch storage is still released once.
func (m *Manager) Get(sessionID string) (*ImportSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok || time.Now().After(s.ExpiresAt) {
		return nil, false
	}
	return s, true
}

// Touch extends the expiry window after a non-final batch. This is the
// "session replaced/extended" path: no cleanup may happen here.
func (m *Manager) Touch(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok {
		s.ExpiresAt = time.Now().Add(m.ttl)
	}
}

// Remove drops the session and fires the release hook once.
func (m *Manager) Remove(sessionID string) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()
	if ok {
		m.release(s)
	}
}

// Sweep removes truly expired sessions and releases their scratch storage.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	now := time.Now()
	expired := make([]*ImportSession, 0)
	for id, s := range m.sessions {
		if now.After(s.ExpiresAt) {
			delete(m.sessions, id)
			expired = append(expired, s)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		m.release(s)
	}
	return len(expired)
}

// FindByOwner returns the owner's live sessions, most useful for checking
// whether a document is already staged.
func (m *Manager) FindByOwner(userID string) []*ImportSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	out := make([]*ImportSession, 0)
	for _, s := range m.sessions {
		if s.UserID == userID && !now.After(s.ExpiresAt) {
			out = append(out, s)
		}
	}
	return out
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) release(s *ImportSession) {
	if s.released {
		return
	}
	s.released = true
	if m.onRelease != nil {
		m.onRelease(s)
	}
}
