package memory

import (
	"context"
	"errors"
)

// ErrStoreUnavailable marks a failure to reach the session memory store.
var ErrStoreUnavailable = errors.New("session store unavailable")

// Turn is a single exchange between the user and the bot. Immutable once
// appended; session history is append-only and chronological.
type Turn struct {
	Question string `json:"question" dynamodbav:"question"`
	Answer   string `json:"answer" dynamodbav:"answer"`
}

// SessionStore persists conversation state across requests. It is the only
// durable state in the system; everything else is request-scoped.
type SessionStore interface {
	// Load returns the session's turns in append order. An unknown session
	// yields an empty slice, not an error.
	Load(ctx context.Context, sessionID string) ([]Turn, error)

	// Append durably adds one turn to the session, creating the session on
	// first use. The write is visible to subsequent Load calls.
	Append(ctx context.Context, sessionID string, turn Turn) error
}

// Window returns the last k turns of a history. The condenser only looks at
// a fixed recent window, not the whole session.
func Window(turns []Turn, k int) []Turn {
	if k <= 0 {
		return []Turn{}
	}
	if len(turns) <= k {
		return turns
	}
	return turns[len(turns)-k:]
}
