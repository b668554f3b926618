package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/comanda/account-service/internal/core/domain"
	"github.com/comanda/account-service/internal/core/ports"
)

const defaultSessionTTL = 12 * time.Hour

// SessionManager issues server-side sessions. The client only holds a signed
// token naming the session id; the binding itself lives in the SessionStore
// and ends as soon as it is deleted there.
type SessionManager struct {
	store  ports.SessionStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionManager(store ports.SessionStore, secret string, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionManager{store: store, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is the lifetime given to new sessions.
func (m *SessionManager) TTL() time.Duration { return m.ttl }

// Start binds identity to a new session and returns it with its signed token.
func (m *SessionManager) Start(ctx context.Context, identity domain.Identity) (*domain.Session, string, error) {
	now := m.now().UTC()
	session := &domain.Session{
		ID:        uuid.NewString(),
		Identity:  identity,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	token, err := m.sign(session)
	if err != nil {
		return nil, "", fmt.Errorf("sign session: %w", err)
	}
	if err := m.store.Save(ctx, session, m.ttl); err != nil {
		return nil, "", fmt.Errorf("%w: save session: %w", domain.ErrPersistence, err)
	}
	return session, token, nil
}

// Resolve verifies token and loads the session it names.
func (m *SessionManager) Resolve(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := m.parse(token)
	if err != nil {
		return nil, err
	}

	session, err := m.store.Find(ctx, claims.ID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find session: %w", domain.ErrPersistence, err)
	}
	if session.Expired(m.now()) || session.Identity.UserID != claims.Subject {
		return nil, domain.ErrUnauthenticated
	}
	return session, nil
}

// End deletes the session named by token and reports whether one was live.
// Unreadable tokens have nothing to end.
func (m *SessionManager) End(ctx context.Context, token string) (bool, error) {
	claims, err := m.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return false, nil
	}
	return m.store.Delete(ctx, claims.ID)
}

func (m *SessionManager) sign(session *domain.Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		Subject:   session.Identity.UserID,
		IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *SessionManager) parse(token string, opts ...jwt.ParserOption) (*jwt.RegisteredClaims, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)

	claims := &jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil || !tkn.Valid || claims.ID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return claims, nil
}
