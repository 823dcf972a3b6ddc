package ports

import (
	"context"
	"time"

	"github.com/grademind/grademind-api/internal/core/domain"
)

// SessionRepository is the append-only ledger of logins.
type SessionRepository interface {
	Insert(ctx context.Context, session *domain.Session) error
	// FindActiveByToken returns domain.ErrSessionNotFound when the token has no
	// active row.
	FindActiveByToken(ctx context.Context, token string) (*domain.Session, error)
	Deactivate(ctx context.Context, sessionID string) error
	// Touch bumps last_activity on the active row holding token.
	Touch(ctx context.Context, token string, at time.Time) error
	// DeactivateExpired flips is_active on rows whose expiry is before now and
	// returns how many rows changed.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Session, error)
}

// RevocationStore is a denylist of tokens invalidated before their expiry.
type RevocationStore interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}
