package chat

import (
	"context"
	"errors"
)

// ErrSessionNotFound is returned when a session id has no stored record.
var ErrSessionNotFound = errors.New("chat session not found")

// Store persists chat sessions and recent prompts with recency-bounded
// retention. Implementations enforce the configured maxima by evicting the
// oldest entries; the upsert and the trim may be separate operations, so the
// bound can transiently be exceeded and is restored on a later write.
type Store interface {
	// SaveSession upserts the session by id, stamps LastUpdated with the
	// server time and trims the oldest sessions past the retention bound.
	// Sessions with zero messages are rejected.
	SaveSession(ctx context.Context, session *ChatSession) (*ChatSession, error)

	// ListSessions returns up to the configured maximum of sessions ordered
	// by LastUpdated descending. Index entries whose record is gone are
	// skipped silently.
	ListSessions(ctx context.Context) ([]*ChatSession, error)

	// GetSession returns the session or ErrSessionNotFound.
	GetSession(ctx context.Context, id string) (*ChatSession, error)

	// DeleteSession removes the record and its index entry, reporting
	// whether a record existed. Deleting a missing id is not an error.
	DeleteSession(ctx context.Context, id string) (bool, error)

	// AddPrompt upserts the trimmed prompt text with the current time as
	// score, then trims past the retention bound. Re-adding refreshes the
	// score without duplicating.
	AddPrompt(ctx context.Context, text string) (*RecentPrompt, error)

	// ListPrompts returns up to the configured maximum of prompts, most
	// recently used first.
	ListPrompts(ctx context.Context) ([]RecentPrompt, error)

	// DeletePrompt removes the exact text, reporting whether it existed.
	DeletePrompt(ctx context.Context, text string) (bool, error)
}
