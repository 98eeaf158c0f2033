package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/ArcaneNova/annadata-client-sub001/core/kv"
	"golang.org/x/crypto/nacl/secretbox"
)

var ErrSealKey = errors.New("remember key must be 32 hex encoded bytes")

// Sealer encrypts remembered passwords at rest.
type Sealer struct {
	key [32]byte
}

func NewSealer(hexKey string) (*Sealer, error) {
	b, err := hex.DecodeString(hexKey)
	if err != nil || len(b) != 32 {
		return nil, ErrSealKey
	}

	var s Sealer
	copy(s.key[:], b)
	return &s, nil
}

func (s *Sealer) seal(msg []byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("reading nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], msg, &nonce, &s.key), nil
}

func (s *Sealer) open(box []byte) ([]byte, error) {
	if len(box) < 24+secretbox.Overhead {
		return nil, errors.New("sealed value too short")
	}

	var nonce [24]byte
	copy(nonce[:], box[:24])
	msg, ok := secretbox.Open(nil, box[24:], &nonce, &s.key)
	if !ok {
		return nil, errors.New("sealed value does not authenticate")
	}
	return msg, nil
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Remember keeps the login form values so the next visit can prefill them.
func (s *Store) Remember(ctx context.Context, sealer *Sealer, c Credentials) error {
	box, err := sealer.seal([]byte(c.Password))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	writes := []struct {
		key   string
		value []byte
	}{
		{RememberedEmailKey, []byte(c.Email)},
		{RememberedPasswordKey, box},
		{RememberMeKey, []byte("true")},
	}
	for _, w := range writes {
		if err := s.storage.Set(ctx, w.key, w.value); err != nil {
			return fmt.Errorf("saving %s: %w", w.key, err)
		}
	}
	return nil
}

// Remembered returns the remembered credentials, if any were kept.
func (s *Store) Remembered(ctx context.Context, sealer *Sealer) (Credentials, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flag, err := s.storage.Get(ctx, RememberMeKey)
	if errors.Is(err, kv.ErrNotFound) || (err == nil && string(flag) != "true") {
		return Credentials{}, false, nil
	}
	if err != nil {
		return Credentials{}, false, fmt.Errorf("loading remember flag: %w", err)
	}

	email, err := s.storage.Get(ctx, RememberedEmailKey)
	if err != nil {
		return Credentials{}, false, fmt.Errorf("loading remembered email: %w", err)
	}
	box, err := s.storage.Get(ctx, RememberedPasswordKey)
	if err != nil {
		return Credentials{}, false, fmt.Errorf("loading remembered password: %w", err)
	}

	pw, err := sealer.open(box)
	if err != nil {
		return Credentials{}, false, fmt.Errorf("opening remembered password: %w", err)
	}

	return Credentials{Email: string(email), Password: string(pw)}, true, nil
}
