// Package session implements the connection-level state machine: a client
// goes NONE -> AUTHENTICATING -> CONNECTED, may drop to SOFT_DISCONNECTED
// and reclaim its world state within a grace window, or time out back to
// NONE. This is distinct from internal/world's Player, which owns
// simulation state that outlives any one socket.
package session

import (
	"sync"
	"time"
)

// State is a connection's position in the reconnection state machine.
type State int

const (
	StateNone State = iota
	StateAuthenticating
	StateConnected
	StateSoftDisconnected
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "NONE"
	case StateAuthenticating:
		return "AUTHENTICATING"
	case StateConnected:
		return "CONNECTED"
	case StateSoftDisconnected:
		return "SOFT_DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Session is one account's connection lifecycle record. AccountID is the
// durable key; ConnID changes across reconnects.
type Session struct {
	mu sync.Mutex

	AccountID int
	ConnID    string

	State State

	AuthDeadline       time.Time
	SoftDisconnectedAt time.Time
	LastActivity       time.Time
}

func (s *Session) snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.State
}

// Registry is the process-wide table of sessions, keyed by account id, plus
// the reverse index by connection id needed to route inbound frames back to
// an account before authentication completes.
type Registry struct {
	mu sync.Mutex

	byAccount map[int]*Session
	byConn    map[string]*Session

	authDeadline    time.Duration
	softDisconnect  time.Duration
	idleTimeout     time.Duration
}

func NewRegistry(authDeadline, softDisconnect, idleTimeout time.Duration) *Registry {
	return &Registry{
		byAccount:      make(map[int]*Session),
		byConn:         make(map[string]*Session),
		authDeadline:   authDeadline,
		softDisconnect: softDisconnect,
		idleTimeout:    idleTimeout,
	}
}

// BeginAuth registers a brand-new connection in AUTHENTICATING state. It
// does not yet know the account id — that's the point of authentication —
// so it's keyed only by connID until Authenticate succeeds.
func (r *Registry) BeginAuth(connID string, now time.Time) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &Session{
		ConnID:       connID,
		State:        StateAuthenticating,
		AuthDeadline: now.Add(r.authDeadline),
		LastActivity: now,
	}
	r.byConn[connID] = s
	return s
}

// Authenticate promotes an AUTHENTICATING connection to CONNECTED under the
// given account id. If another session already owns that account and is
// itself CONNECTED, this fails with ErrAlreadyConnected. If the existing session is
// SOFT_DISCONNECTED, this is a reconnection: the old session is replaced,
// the connection takes over its account-level identity.
func (r *Registry) Authenticate(connID string, accountID int, now time.Time) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byConn[connID]
	if !ok || s.snapshot() != StateAuthenticating {
		return nil, ErrWrongState
	}

	if existing, has := r.byAccount[accountID]; has {
		switch existing.snapshot() {
		case StateConnected, StateAuthenticating:
			return nil, ErrAlreadyConnected
		case StateSoftDisconnected:
			delete(r.byConn, existing.ConnID)
		}
	}

	s.mu.Lock()
	s.AccountID = accountID
	s.State = StateConnected
	s.LastActivity = now
	s.mu.Unlock()

	r.byAccount[accountID] = s
	return s, nil
}

// Touch records activity on a session, resetting its idle timer.
func (r *Registry) Touch(connID string, now time.Time) {
	r.mu.Lock()
	s, ok := r.byConn[connID]
	r.mu.Unlock()
	if !ok {
		return
	}
	s.mu.Lock()
	s.LastActivity = now
	s.mu.Unlock()
}

// SoftDisconnect marks a session as having lost its transport without
// evicting its world state, opening the reclaim window.
func (r *Registry) SoftDisconnect(connID string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byConn[connID]
	if !ok {
		return
	}
	delete(r.byConn, connID)
	s.mu.Lock()
	s.State = StateSoftDisconnected
	s.SoftDisconnectedAt = now
	s.mu.Unlock()
}

// GetByAccount returns the current session for an account, if any.
func (r *Registry) GetByAccount(accountID int) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byAccount[accountID]
	return s, ok
}

// Sweep evicts sessions that have exceeded their auth deadline or reclaim
// window, returning the account ids that were fully dropped (world state
// should be released for these).
func (r *Registry) Sweep(now time.Time) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var dropped []int
	for connID, s := range r.byConn {
		s.mu.Lock()
		state := s.State
		expired := (state == StateAuthenticating && now.After(s.AuthDeadline)) ||
			(state == StateConnected && r.idleTimeout > 0 && now.Sub(s.LastActivity) > r.idleTimeout)
		s.mu.Unlock()
		if expired {
			delete(r.byConn, connID)
			if state == StateConnected {
				r.dropAccountLocked(s.AccountID, &dropped)
			}
		}
	}
	for accountID, s := range r.byAccount {
		s.mu.Lock()
		expired := s.State == StateSoftDisconnected && now.Sub(s.SoftDisconnectedAt) > r.softDisconnect
		s.mu.Unlock()
		if expired {
			delete(r.byAccount, accountID)
			dropped = append(dropped, accountID)
		}
	}
	return dropped
}

func (r *Registry) dropAccountLocked(accountID int, dropped *[]int) {
	delete(r.byAccount, accountID)
	*dropped = append(*dropped, accountID)
}
