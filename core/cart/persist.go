package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ArcaneNova/annadata-client-sub001/core/kv"
)

// StorageKey is where the full cart snapshot lives in a shopper's storage.
const StorageKey = "cart-storage"

// Persister writes every committed snapshot to storage.
func Persister(storage kv.Storage) Subscriber {
	return func(ctx context.Context, s State) error {
		b, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encoding cart: %w", err)
		}
		if err := storage.Set(ctx, StorageKey, b); err != nil {
			return fmt.Errorf("saving cart: %w", err)
		}
		return nil
	}
}

// Load rehydrates the persisted snapshot. A missing key is an empty cart.
func Load(ctx context.Context, storage kv.Storage) (State, error) {
	b, err := storage.Get(ctx, StorageKey)
	if errors.Is(err, kv.ErrNotFound) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("loading cart: %w", err)
	}

	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return State{}, fmt.Errorf("decoding cart: %w", err)
	}
	return s, nil
}

// Open rehydrates the cart kept in storage and returns a store that persists
// every change back to it.
func Open(ctx context.Context, storage kv.Storage, opts ...Option) (*Store, error) {
	s, err := Load(ctx, storage)
	if err != nil {
		return nil, err
	}

	opts = append(opts, WithSubscriber(Persister(storage)))
	return NewStore(s, opts...), nil
}
