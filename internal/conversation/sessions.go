package conversation

import (
	"sync"
	"time"

	"github.com/Yvann20/Flask/internal/metrics"
	"github.com/shopspring/decimal"
)

// SessionKey identifies one conversation: the chat it happens in and the
// user typing in it.
type SessionKey struct {
	ChatID int64
	UserID int64
}

// Draft is the order being assembled. Nothing in it is persisted until the
// conversation is committed.
type Draft struct {
	ID             string
	DocumentNumber string
	Name           string
	Product        string
	Value          decimal.Decimal
	Discount       decimal.Decimal
	TransactionID  string
	CreatedAt      time.Time
}

// State is the current step of a session together with its draft.
type State struct {
	Step  Step
	Draft Draft
}

// Sessions holds at most one State per SessionKey.
type Sessions struct {
	mu       sync.Mutex
	sessions map[SessionKey]State
	metrics  *metrics.Registry
}

func NewSessions(reg *metrics.Registry) *Sessions {
	return &Sessions{
		sessions: make(map[SessionKey]State),
		metrics:  reg,
	}
}

// Create starts a fresh session for key, replacing any previous one.
func (s *Sessions) Create(key SessionKey) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{Step: StepAskID}
	s.sessions[key] = state
	s.metrics.ActiveSessions.Set(float64(len(s.sessions)))

	return state
}

func (s *Sessions) Fetch(key SessionKey) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[key]
	return state, ok
}

// Save replaces the state of an existing session. It is a no-op when the
// session was discarded in the meantime.
func (s *Sessions) Save(key SessionKey, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[key]; !ok {
		return
	}
	s.sessions[key] = state
}

// Discard drops the session and reports whether one existed.
func (s *Sessions) Discard(key SessionKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[key]
	delete(s.sessions, key)
	s.metrics.ActiveSessions.Set(float64(len(s.sessions)))

	return ok
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}
