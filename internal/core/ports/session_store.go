package ports

import (
	"context"
	"time"

	"github.com/comanda/account-service/internal/core/domain"
)

// SessionStore persists server-side sessions. Find returns
// domain.ErrSessionNotFound for unknown or expired ids. Delete reports whether
// a live session was removed.
type SessionStore interface {
	Save(ctx context.Context, session *domain.Session, ttl time.Duration) error
	Find(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) (bool, error)
}
