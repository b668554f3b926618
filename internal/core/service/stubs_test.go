package service

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/comanda/account-service/internal/core/domain"
	"github.com/comanda/account-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users  map[string]*domain.User
	nextID int
	writes int

	failErr    error // if set, every call returns this error
	hideEmails bool  // if set, FindByEmail misses (simulates a lost race)
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) emailOwner(email string) *domain.User {
	for _, u := range r.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.failErr != nil {
		return nil, r.failErr
	}
	if r.hideEmails {
		return nil, domain.ErrUserNotFound
	}
	if u := r.emailOwner(email); u != nil {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.failErr != nil {
		return nil, r.failErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) ListByRole(_ context.Context, role domain.Role, onlyActive bool) ([]*domain.User, error) {
	if r.failErr != nil {
		return nil, r.failErr
	}
	var out []*domain.User
	for _, u := range r.users {
		if u.Role != role || (onlyActive && !u.Active) {
			continue
		}
		out = append(out, cloneUser(u))
	}
	// Mirrors the Mongo sort: created_at, then id.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.failErr != nil {
		return nil, r.failErr
	}
	// Mirrors the unique index on email.
	if r.emailOwner(user.Email) != nil {
		return nil, domain.ErrDuplicateEmail
	}
	r.nextID++
	stored := cloneUser(user)
	stored.ID = fmt.Sprintf("u%03d", r.nextID)
	r.users[stored.ID] = stored
	r.writes++
	return cloneUser(stored), nil
}

func (r *stubUserRepo) Update(_ context.Context, id string, c ports.UserChanges) (*domain.User, error) {
	if r.failErr != nil {
		return nil, r.failErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if c.Email != nil {
		if owner := r.emailOwner(*c.Email); owner != nil && owner.ID != id {
			return nil, domain.ErrDuplicateEmail
		}
	}
	next := cloneUser(u)
	if c.Name != nil {
		next.Name = *c.Name
	}
	if c.Email != nil {
		next.Email = *c.Email
	}
	if c.PasswordHash != nil {
		next.PasswordHash = *c.PasswordHash
	}
	if c.Role != nil {
		next.Role = *c.Role
	}
	next.UpdatedAt = c.UpdatedAt
	r.users[id] = next
	r.writes++
	return cloneUser(next), nil
}

func (r *stubUserRepo) SetActive(_ context.Context, id string, active bool, at time.Time) (*domain.User, error) {
	if r.failErr != nil {
		return nil, r.failErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Active = active
	u.UpdatedAt = at
	r.writes++
	return cloneUser(u), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) (*domain.User, error) {
	if r.failErr != nil {
		return nil, r.failErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	delete(r.users, id)
	r.writes++
	return cloneUser(u), nil
}

type stubSessionStore struct {
	sessions map[string]*domain.Session
	ttls     map[string]time.Duration
	saveErr  error
	findErr  error
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{
		sessions: make(map[string]*domain.Session),
		ttls:     make(map[string]time.Duration),
	}
}

func (s *stubSessionStore) Save(_ context.Context, session *domain.Session, ttl time.Duration) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	clone := *session
	s.sessions[session.ID] = &clone
	s.ttls[session.ID] = ttl
	return nil
}

func (s *stubSessionStore) Find(_ context.Context, id string) (*domain.Session, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	clone := *session
	return &clone, nil
}

func (s *stubSessionStore) Delete(_ context.Context, id string) (bool, error) {
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	delete(s.ttls, id)
	return ok, nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func newTestStore(repo ports.UserRepository) *CredentialStore {
	return NewCredentialStore(repo, bcrypt.MinCost, zerolog.Nop())
}

type gatewayFixture struct {
	repo     *stubUserRepo
	sessions *stubSessionStore
	store    *CredentialStore
	svc      *AuthService
	cashier  domain.Identity
}

func newGatewayFixture(t testing.TB) *gatewayFixture {
	t.Helper()
	repo := newStubUserRepo()
	sessions := newStubSessionStore()
	store := newTestStore(repo)
	svc := NewAuthService(store, NewSessionManager(sessions, "test-secret", time.Hour), zerolog.Nop())

	// Cashiers are provisioned out of band, straight through the store.
	cashier, err := store.Create(context.Background(), ports.NewUserInput{
		Name: "Carla", Email: "carla@x.com", Password: "till-pass", Role: domain.RoleCashier,
	})
	if err != nil {
		t.Fatalf("seed cashier: %v", err)
	}

	return &gatewayFixture{
		repo:     repo,
		sessions: sessions,
		store:    store,
		svc:      svc,
		cashier:  cashier.Identity(),
	}
}
