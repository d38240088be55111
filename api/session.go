package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/beebasmgo/beebasm/asm"
	"github.com/beebasmgo/beebasm/config"
)

var (
	// ErrSessionNotFound is returned when a session ID has no session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionAlreadyExists is returned on a generated-ID collision.
	ErrSessionAlreadyExists = errors.New("session already exists")
)

// Session is one client's independent assembler: its own symbol table,
// program counter and output, surviving across every line it sends.
type Session struct {
	ID        string
	Assembler *asm.Assembler
	CreatedAt time.Time
}

// SessionManager owns every active Session, keyed by generated ID.
type SessionManager struct {
	sessions    map[string]*Session
	broadcaster *Broadcaster
	cfg         *config.Config
	mu          sync.RWMutex
}

// NewSessionManager returns a SessionManager whose sessions use cfg's
// engine/clock tunables. The manager keeps broadcaster but publishes
// nothing to it; WebSocket clients publish their sessions' updates.
func NewSessionManager(broadcaster *Broadcaster, cfg *config.Config) *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*Session),
		broadcaster: broadcaster,
		cfg:         cfg,
	}
}

// CreateSession starts a new session with a fresh Assembler.
func (sm *SessionManager) CreateSession() (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:        id,
		Assembler: asm.NewWithConfig(id, sm.cfg),
		CreatedAt: time.Now(),
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.sessions[id]; exists {
		return nil, ErrSessionAlreadyExists
	}
	sm.sessions[id] = session
	debugLog("session %s created, %d active", id, len(sm.sessions))
	return session, nil
}

// GetSession retrieves a session by ID.
func (sm *SessionManager) GetSession(id string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// DestroySession removes a session by ID.
func (sm *SessionManager) DestroySession(id string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.sessions[id]; !exists {
		return ErrSessionNotFound
	}
	delete(sm.sessions, id)
	debugLog("session %s destroyed, %d active", id, len(sm.sessions))
	return nil
}

// ListSessions returns every active session ID.
func (sm *SessionManager) ListSessions() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of active sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

func generateSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
