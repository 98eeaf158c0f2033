package kv

import (
	"context"

	"github.com/alexedwards/scs/v2"
)

// Session keeps values inside the caller's scs session. The context passed to
// each call must come from a request wrapped by the session manager's
// LoadAndSave.
type Session struct {
	sm *scs.SessionManager
}

func NewSession(sm *scs.SessionManager) *Session {
	return &Session{sm: sm}
}

func (s *Session) Get(ctx context.Context, key string) ([]byte, error) {
	if !s.sm.Exists(ctx, key) {
		return nil, ErrNotFound
	}
	return s.sm.GetBytes(ctx, key), nil
}

func (s *Session) Set(ctx context.Context, key string, value []byte) error {
	s.sm.Put(ctx, key, value)
	return nil
}

func (s *Session) Remove(ctx context.Context, key string) error {
	s.sm.Remove(ctx, key)
	return nil
}
