package mcp

import (
	"sync"

	"github.com/google/uuid"
)

// sessionState tracks handshake progress.
type sessionState int

const (
	stateUninitialized sessionState = iota
	stateInitializing               // initialize succeeded, awaiting the initialized notification
	stateReady
)

// Protocol versions accepted by initialize. "1.0" predates the dated
// scheme and negotiates the same contract as "2025-06-18", so the two are
// treated as aliases of each other.
var protocolAliasGroups = [][]string{
	{"2025-06-18", "1.0"},
	{"2025-03-26"},
}

// versionSupported reports whether initialize may accept this version.
func versionSupported(version string) bool {
	for _, group := range protocolAliasGroups {
		for _, member := range group {
			if member == version {
				return true
			}
		}
	}
	return false
}

// versionsMatch reports whether two version strings are equal or belong
// to the same alias group.
func versionsMatch(a, b string) bool {
	if a == b {
		return true
	}
	for _, group := range protocolAliasGroups {
		inA, inB := false, false
		for _, member := range group {
			if member == a {
				inA = true
			}
			if member == b {
				inB = true
			}
		}
		if inA && inB {
			return true
		}
	}
	return false
}

// session holds the per-connection handshake state. All fields are
// guarded by the mutex since concurrent calls share one session.
type session struct {
	mu         sync.Mutex
	id         string
	state      sessionState
	negotiated string
}

func newSession() *session {
	return &session{id: uuid.New().String()}
}

// negotiate records a successful initialize. A repeat initialize simply
// overwrites the negotiated version; a session that already completed the
// handshake stays Ready.
func (s *session) negotiate(version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.negotiated = version
	if s.state == stateUninitialized {
		s.state = stateInitializing
	}
}

// markReady flips the session to Ready. Returns false when initialize
// never completed, in which case the notification is ignored.
func (s *session) markReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateUninitialized {
		return false
	}
	s.state = stateReady
	return true
}

func (s *session) currentState() sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *session) negotiatedVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.negotiated
}

// headerMatches checks a protocol-version header against the negotiated
// version under alias equivalence. An absent header always passes.
func (s *session) headerMatches(header string) bool {
	if header == "" {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.negotiated == "" {
		return versionSupported(header)
	}
	return versionsMatch(header, s.negotiated)
}
