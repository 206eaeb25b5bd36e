package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"semicolon/internal/usertoken"
	"semicolon/pkg/domain"
	"semicolon/pkg/storage"
)

// Persisted session keys.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

var (
	// ErrNotAuthenticated indicates an operation that needs a signed-in session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrEmptyToken indicates a login without a credential.
	ErrEmptyToken = errors.New("token is required")
)

// Session is the authenticated identity held by the client. Token and User
// are either both set or both empty.
type Session struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}

// Authenticated reports whether the session carries a credential.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

// AuthStore is the single source of truth for the current session. Every
// operation writes storage before it updates memory, under one lock, so the
// two agree whenever an operation returns.
type AuthStore struct {
	mu      sync.Mutex
	state   *Writable[Session]
	storage storage.Storage
	logger  *slog.Logger
}

type authOptions struct {
	leeway time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// AuthOption customises NewAuthStore.
type AuthOption func(*authOptions)

// WithTokenLeeway tolerates clock skew when judging a stored token expired.
func WithTokenLeeway(d time.Duration) AuthOption {
	return func(o *authOptions) { o.leeway = d }
}

// WithClock overrides the time source used at rehydration.
func WithClock(now func() time.Time) AuthOption {
	return func(o *authOptions) { o.now = now }
}

// WithLogger sets the logger used for storage warnings.
func WithLogger(logger *slog.Logger) AuthOption {
	return func(o *authOptions) { o.logger = logger }
}

// NewAuthStore rehydrates the session from s. The store starts authenticated
// only when both keys are present, the user record decodes and the token is
// not known to be expired; any other persisted leftovers are cleared.
// A nil storage behaves like storage.NoopStorage.
func NewAuthStore(s storage.Storage, opts ...AuthOption) *AuthStore {
	o := authOptions{now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if s == nil {
		s = storage.NoopStorage{}
	}
	a := &AuthStore{storage: s, logger: o.logger}
	a.state = NewWritable(a.rehydrate(o))
	return a
}

func (a *AuthStore) rehydrate(o authOptions) Session {
	token, hasToken, err := a.storage.Get(KeyToken)
	if err != nil {
		a.logger.Warn("session storage read failed", "key", KeyToken, "err", err)
		a.clearStored()
		return Session{}
	}
	rawUser, hasUser, err := a.storage.Get(KeyUser)
	if err != nil {
		a.logger.Warn("session storage read failed", "key", KeyUser, "err", err)
		a.clearStored()
		return Session{}
	}
	if !hasToken && !hasUser {
		return Session{}
	}

	var user domain.User
	valid := hasToken && hasUser && usertoken.Usable(token, o.now(), o.leeway)
	if valid {
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
			a.logger.Warn("stored user record is invalid", "err", err)
			valid = false
		}
	}
	if !valid {
		a.logger.Info("discarding stored session", "has_token", hasToken, "has_user", hasUser)
		a.clearStored()
		return Session{}
	}
	return Session{Token: strings.TrimSpace(token), User: &user}
}

// clearStored removes unusable session keys so storage agrees with an
// anonymous start.
func (a *AuthStore) clearStored() {
	if err := a.storage.Delete(KeyToken, KeyUser); err != nil {
		a.logger.Warn("clear stored session failed", "err", err)
	}
}

// Get returns the current session.
func (a *AuthStore) Get() Session {
	return a.state.Get()
}

// Subscribe observes session changes.
func (a *AuthStore) Subscribe(fn func(Session)) func() {
	return a.state.Subscribe(fn)
}

// Token returns the current bearer credential, or "" when signed out.
func (a *AuthStore) Token() string {
	return a.state.Get().Token
}

// Login stores token and user as a pair and notifies subscribers. If the pair
// cannot be persisted the session is left unchanged.
func (a *AuthStore) Login(token string, user domain.User) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.storage.Put(map[string]string{KeyToken: token, KeyUser: string(data)}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	a.state.Set(Session{Token: token, User: &user})
	return nil
}

// Logout removes the persisted session and signs out.
func (a *AuthStore) Logout() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.storage.Delete(KeyToken, KeyUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	a.state.Set(Session{})
	return nil
}

// UpdateUser replaces the signed-in user's record; the token is untouched.
func (a *AuthStore) UpdateUser(user domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	current := a.state.Get()
	if !current.Authenticated() {
		return ErrNotAuthenticated
	}
	if err := a.storage.Put(map[string]string{KeyUser: string(data)}); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	a.state.Set(Session{Token: current.Token, User: &user})
	return nil
}
