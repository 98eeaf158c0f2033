package kv

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

const scsPrefix = "scs:session:"

// SessionStore lets scs keep its session data in a Storage, so a browser's
// cookie, and the device id inside it, outlive the process.
type SessionStore struct {
	s   Storage
	now func() time.Time
}

func NewSessionStore(s Storage) *SessionStore {
	return &SessionStore{s: Prefixed(s, scsPrefix), now: time.Now}
}

// Find returns found false for unknown or expired tokens.
func (st *SessionStore) Find(token string) ([]byte, bool, error) {
	ctx := context.Background()

	v, err := st.s.Get(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(v) < 8 {
		return nil, false, fmt.Errorf("session %s: truncated record", token)
	}

	expiry := time.Unix(0, int64(binary.BigEndian.Uint64(v[:8])))
	if !st.now().Before(expiry) {
		st.s.Remove(ctx, token)
		return nil, false, nil
	}
	return v[8:], true, nil
}

func (st *SessionStore) Commit(token string, b []byte, expiry time.Time) error {
	v := make([]byte, 8, 8+len(b))
	binary.BigEndian.PutUint64(v, uint64(expiry.UnixNano()))
	v = append(v, b...)
	return st.s.Set(context.Background(), token, v)
}

func (st *SessionStore) Delete(token string) error {
	return st.s.Remove(context.Background(), token)
}
