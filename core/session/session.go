package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ArcaneNova/annadata-client-sub001/core/kv"
)

type Role string

const (
	RoleConsumer Role = "consumer"
	RoleVendor   Role = "vendor"
	RoleFarmer   Role = "farmer"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Phone string `json:"phone"`
}

// Durable keys owned by the session.
const (
	UserKey  = "user"
	TokenKey = "token"

	RememberedEmailKey    = "rememberedEmail"
	RememberedPasswordKey = "rememberedPassword"
	RememberMeKey         = "rememberMe"
)

// ClearFunc wipes every session related key from storage.
type ClearFunc func(ctx context.Context, storage kv.Storage) error

// ClearKeys removes the user, the token and the remembered credentials.
func ClearKeys(ctx context.Context, storage kv.Storage) error {
	keys := []string{UserKey, TokenKey, RememberedEmailKey, RememberedPasswordKey, RememberMeKey}
	for _, k := range keys {
		if err := storage.Remove(ctx, k); err != nil {
			return fmt.Errorf("removing %s: %w", k, err)
		}
	}
	return nil
}

// Store holds the signed in user and their bearer token. In memory state is
// only changed after the matching durable write succeeded.
type Store struct {
	mu      sync.RWMutex
	storage kv.Storage
	clear   ClearFunc
	user    *User
	token   string
}

// Open rehydrates the session from storage. In memory state is restored only
// when both the user record and the token are present.
func Open(ctx context.Context, storage kv.Storage) (*Store, error) {
	s := &Store{storage: storage, clear: ClearKeys}

	u, err := loadUser(ctx, storage)
	if err != nil {
		return nil, err
	}
	tok, err := loadToken(ctx, storage)
	if err != nil {
		return nil, err
	}

	if u != nil && tok != "" {
		s.user = u
		s.token = tok
	}
	return s, nil
}

// WithClear replaces the collaborator Logout delegates to.
func (s *Store) WithClear(f ClearFunc) *Store {
	s.clear = f
	return s
}

func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetUser persists u, or removes the record when u is nil.
func (s *Store) SetUser(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u == nil {
		if err := s.storage.Remove(ctx, UserKey); err != nil {
			return fmt.Errorf("removing user: %w", err)
		}
		s.user = nil
		return nil
	}

	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}
	if err := s.storage.Set(ctx, UserKey, b); err != nil {
		return fmt.Errorf("saving user: %w", err)
	}

	cp := *u
	s.user = &cp
	return nil
}

// SetToken persists token, or removes it when token is empty.
func (s *Store) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" {
		if err := s.storage.Remove(ctx, TokenKey); err != nil {
			return fmt.Errorf("removing token: %w", err)
		}
		s.token = ""
		return nil
	}

	if err := s.storage.Set(ctx, TokenKey, []byte(token)); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	s.token = token
	return nil
}

func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.clear(ctx, s.storage); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	s.user = nil
	s.token = ""
	return nil
}

// IsAuthenticated reads the durable token, not the in memory copy.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	tok, err := loadToken(ctx, s.storage)
	return err == nil && tok != ""
}

func (s *Store) IsConsumer(ctx context.Context) bool { return s.hasRole(ctx, RoleConsumer) }

func (s *Store) IsFarmer(ctx context.Context) bool { return s.hasRole(ctx, RoleFarmer) }

func (s *Store) IsVendor(ctx context.Context) bool { return s.hasRole(ctx, RoleVendor) }

func (s *Store) IsAdmin(ctx context.Context) bool { return s.hasRole(ctx, RoleAdmin) }

func (s *Store) hasRole(ctx context.Context, r Role) bool {
	u, err := loadUser(ctx, s.storage)
	return err == nil && u != nil && u.Role == r
}

func loadUser(ctx context.Context, storage kv.Storage) (*User, error) {
	b, err := storage.Get(ctx, UserKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}

	var u User
	if err := json.Unmarshal(b, &u); err != nil {
		return nil, fmt.Errorf("decoding user: %w", err)
	}
	return &u, nil
}

func loadToken(ctx context.Context, storage kv.Storage) (string, error) {
	b, err := storage.Get(ctx, TokenKey)
	if errors.Is(err, kv.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading token: %w", err)
	}
	return string(b), nil
}
