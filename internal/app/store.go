package app

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/faru128/social-deduction-game/internal/content"
	"github.com/faru128/social-deduction-game/internal/domain"
)

const (
	// DefaultLobbyCodeLength is the default length for lobby codes
	DefaultLobbyCodeLength = 5

	// DefaultStaleLobbyTimeout is how long a never-joined lobby may sit idle
	// before the reaper removes it
	DefaultStaleLobbyTimeout = 2 * time.Hour
)

// LobbyCodeChars are the characters used for lobby codes (no ambiguous chars)
const LobbyCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Store maps lobby codes to live sessions. Insert and delete are atomic
// with respect to concurrent creates and deletion-on-empty, so codes can
// neither collide nor be resurrected after removal.
type Store struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	codeLength   int
	staleTimeout time.Duration
	words        content.Source
	logger       *slog.Logger
	done         chan struct{}
}

// NewStore creates a lobby store and starts the stale-lobby reaper
func NewStore(words content.Source, codeLength int, staleTimeout time.Duration, logger *slog.Logger) *Store {
	if codeLength <= 0 {
		codeLength = DefaultLobbyCodeLength
	}
	if staleTimeout <= 0 {
		staleTimeout = DefaultStaleLobbyTimeout
	}

	store := &Store{
		sessions:     make(map[string]*Session),
		codeLength:   codeLength,
		staleTimeout: staleTimeout,
		words:        words,
		logger:       logger,
		done:         make(chan struct{}),
	}

	go store.cleanupLoop()

	return store
}

// Create generates a fresh collision-checked lobby code and stores a new
// session for it. The session removes itself from the store once every
// member has disconnected.
func (s *Store) Create() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var code string
	for attempts := 0; attempts < 10; attempts++ {
		candidate, err := s.generateCode()
		if err != nil {
			return nil, err
		}
		code = candidate
		if _, exists := s.sessions[code]; !exists {
			break
		}
	}
	if _, exists := s.sessions[code]; exists {
		return nil, fmt.Errorf("failed to generate unique lobby code")
	}

	session := NewSession(domain.NewLobby(code), s.words, s.logger, func(code string) {
		s.Remove(code)
	})
	s.sessions[code] = session

	s.logger.Info("lobby created", "lobbyCode", code)

	return session, nil
}

// Find returns the session for a lobby code
func (s *Store) Find(code string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[code]
	if !ok {
		return nil, domain.ErrLobbyNotFound
	}
	return session, nil
}

// FindByMember locates the session a player identity belongs to. A linear
// scan over all sessions; fine at the session counts this serves.
func (s *Store) FindByMember(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, session := range s.sessions {
		if _, ok := session.MemberName(id); ok {
			return session, true
		}
	}
	return nil, false
}

// Remove deletes a session. Idempotent.
func (s *Store) Remove(code string) {
	s.mu.Lock()
	session, ok := s.sessions[code]
	if ok {
		delete(s.sessions, code)
	}
	s.mu.Unlock()

	if ok {
		session.Close()
		s.logger.Info("lobby deleted", "lobbyCode", code)
	}
}

// Count returns the number of active sessions
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// TotalPlayerCount returns the total number of players across all sessions
func (s *Store) TotalPlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, session := range s.sessions {
		total += session.PlayerCount()
	}
	return total
}

// Close shuts down the store and all sessions
func (s *Store) Close() {
	close(s.done)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, session := range s.sessions {
		session.Close()
	}
	s.sessions = make(map[string]*Session)
}

// generateCode generates a random lobby code. Caller must hold the lock for
// the collision check that follows.
func (s *Store) generateCode() (string, error) {
	b := make([]byte, s.codeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate lobby code: %w", err)
	}

	code := make([]byte, s.codeLength)
	for i := range code {
		code[i] = LobbyCodeChars[int(b[i])%len(LobbyCodeChars)]
	}
	return string(code), nil
}

// cleanupLoop periodically reaps lobbies that were created but never joined.
// Lobbies with members are destroyed by the disconnect path instead.
func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.cleanupStaleLobbies()
		}
	}
}

// cleanupStaleLobbies removes empty sessions past the stale timeout
func (s *Store) cleanupStaleLobbies() {
	s.mu.RLock()
	now := time.Now()
	stale := make([]string, 0)
	for code, session := range s.sessions {
		if session.PlayerCount() == 0 && now.Sub(session.CreatedAt()) > s.staleTimeout {
			stale = append(stale, code)
		}
	}
	s.mu.RUnlock()

	for _, code := range stale {
		s.Remove(code)
		s.logger.Info("stale lobby cleaned up", "lobbyCode", code)
	}
}
