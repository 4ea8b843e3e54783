package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/problem-tracker/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserSignedUp   EventType = "user_signed_up"
	EventUserLoggedIn   EventType = "user_logged_in"
	EventLoginFailed    EventType = "login_failed"
	EventProblemCreated EventType = "problem_created"
	EventProblemUpdated EventType = "problem_updated"
	EventProblemDeleted EventType = "problem_deleted"
)

// Actor identifies who triggered an event. UserID is empty for anonymous callers.
type Actor struct {
	UserID   string      `json:"user_id,omitempty"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// New stamps an event with a fresh id.
func New(eventType EventType, actor Actor, at time.Time, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Timestamp: at.UTC(),
		Payload:   payload,
	}
}

// ActorFromPrincipal converts a verified principal.
func ActorFromPrincipal(p domain.Principal) Actor {
	return Actor{UserID: p.UserID, Username: p.Username, Role: p.Role}
}

// ProblemChangedPayload describes created, updated and deleted problems.
type ProblemChangedPayload struct {
	ProblemIDs []string             `json:"problem_ids"`
	Status     domain.ProblemStatus `json:"status,omitempty"`
}

// LoginFailedPayload carries the reason a login was refused. It is never sent to clients.
type LoginFailedPayload struct {
	Reason string `json:"reason"`
}
