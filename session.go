package main

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SessionIdleTimeout is how long an empty session survives before it is
// reaped. A variable so tests can shorten it.
var SessionIdleTimeout = 60 * time.Second

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many active sessions")
)

// Session is a named match that players can join
type Session struct {
	ID      string
	Name    string
	Game    *Game
	Created time.Time
}

// SessionManager handles creation, lookup and reaping of sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      *Config
	arena    *Arena
}

// NewSessionManager creates a SessionManager whose matches run on arena
func NewSessionManager(cfg *Config, arena *Arena) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		arena:    arena,
	}
}

// CreateSession starts a new match
func (sm *SessionManager) CreateSession(name string) (*Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= sm.cfg.MaxSessions {
		return nil, ErrTooManySessions
	}
	id := uuid.NewString()
	sess := &Session{
		ID:      id,
		Name:    name,
		Game:    NewGame(id, sm.cfg, sm.arena),
		Created: time.Now(),
	}
	sm.sessions[id] = sess
	go sess.Game.Run()

	log.Info().Str("session", id).Str("name", name).Msg("session created")
	return sess, nil
}

// GetSession returns a session by id
func (sm *SessionManager) GetSession(id string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sess, ok := sm.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// ListSessions returns info about all active sessions, newest first
func (sm *SessionManager) ListSessions() []SessionInfo {
	sm.mu.RLock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sm.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Created.After(sessions[j].Created)
	})
	list := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		list = append(list, SessionInfo{
			ID:         s.ID,
			Name:       s.Name,
			Players:    s.Game.PlayerCount(),
			Spectators: s.Game.SpectatorCount(),
		})
	}
	return list
}

// Count returns the number of sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// Reap stops and removes sessions that have been empty for longer than
// SessionIdleTimeout.
func (sm *SessionManager) Reap(now time.Time) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	n := 0
	for id, s := range sm.sessions {
		since := s.Game.EmptySince()
		if since.IsZero() || now.Sub(since) < SessionIdleTimeout {
			continue
		}
		s.Game.Stop()
		delete(sm.sessions, id)
		n++
		log.Info().Str("session", id).Msg("session closed")
	}
	return n
}

// Close stops every session
func (sm *SessionManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for id, s := range sm.sessions {
		s.Game.Stop()
		delete(sm.sessions, id)
	}
}
