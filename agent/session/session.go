package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/paylane/collections-agent/agent/contract"
	customerx "github.com/paylane/collections-agent/agent/customer"
)

type Status string

const (
	StatusActive     Status = "active"
	StatusEscalated  Status = "escalated"
	StatusTerminated Status = "terminated"
)

const DefaultMaxTurns = 10

var defaultExitKeywords = []string{"exit", "quit", "bye", "goodbye"}

type Config struct {
	MaxTurns     int
	ExitKeywords []string
}

// Session wraps one customer conversation with session-level state. It is a
// caller-owned value; nothing about it lives in process-wide storage.
type Session struct {
	id        string
	customer  *customerx.Profile
	convo     *Conversation
	status    Status
	startedAt time.Time

	maxTurns     int
	turnsTaken   int
	exitKeywords []string

	escalationReason string
}

func New(customer *customerx.Profile, cfg Config) *Session {
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	keywords := cfg.ExitKeywords
	if len(keywords) == 0 {
		keywords = defaultExitKeywords
	}

	return &Session{
		id:           uuid.NewString(),
		customer:     customer,
		convo:        NewConversation(customer.ID),
		status:       StatusActive,
		startedAt:    time.Now().UTC(),
		maxTurns:     maxTurns,
		exitKeywords: keywords,
	}
}

func (s *Session) ID() string                   { return s.id }
func (s *Session) Customer() *customerx.Profile { return s.customer }
func (s *Session) Conversation() *Conversation  { return s.convo }
func (s *Session) Status() Status               { return s.status }
func (s *Session) StartedAt() time.Time         { return s.startedAt }
func (s *Session) EscalationReason() string     { return s.escalationReason }

// IsExitDirective reports whether the caller-supplied input is an explicit
// session-control exit keyword.
func (s *Session) IsExitDirective(input string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	for _, kw := range s.exitKeywords {
		if trimmed == kw {
			return true
		}
	}
	return false
}

// NoteTurn counts one completed customer turn and terminates the session
// when the configured maximum is exhausted.
func (s *Session) NoteTurn() {
	if s.status != StatusActive {
		return
	}
	s.turnsTaken++
	if s.turnsTaken >= s.maxTurns {
		log.Info().
			Str("session_id", s.id).
			Int("max_turns", s.maxTurns).
			Msg("maximum turn count reached, terminating session")
		s.status = StatusTerminated
	}
}

// Escalate moves the session to Escalated. The signal comes from the
// escalation capability itself, not from scanning model output.
func (s *Session) Escalate(reason string) {
	if s.status == StatusTerminated {
		return
	}
	s.status = StatusEscalated
	s.escalationReason = reason
}

func (s *Session) Terminate() {
	s.status = StatusTerminated
}

func (s *Session) Active() bool {
	return s.status == StatusActive
}

// EnsureActive guards turn-taking against a closed session.
func (s *Session) EnsureActive() error {
	if s.status != StatusActive {
		return fmt.Errorf("%w: status=%s", contractx.ErrSessionClosed, s.status)
	}
	return nil
}

// PersistTranscript saves the transcript when the customer has consented to
// storage. Without consent no record is produced at all.
func (s *Session) PersistTranscript(ctx context.Context, store Store) (string, error) {
	if !s.customer.ConsentToStoreTranscript {
		log.Warn().
			Str("customer_id", s.customer.ID).
			Msg("transcript not saved: customer has not consented to storage")
		return "", nil
	}

	t := BuildTranscript(s.customer, s.convo, s.startedAt)
	ref, err := store.Save(ctx, t)
	if err != nil {
		return "", err
	}

	log.Info().
		Str("customer_id", s.customer.ID).
		Str("ref", ref).
		Int("retention_days", s.customer.TranscriptRetentionDays).
		Msg("transcript saved")
	return ref, nil
}
