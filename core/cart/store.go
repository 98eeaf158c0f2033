package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ArcaneNova/annadata-client-sub001/core/notify"
	"github.com/ArcaneNova/annadata-client-sub001/core/product"
	"github.com/shopspring/decimal"
)

// Subscriber receives every snapshot the store commits, in commit order.
type Subscriber func(ctx context.Context, s State) error

type Option func(*Store)

func WithNotifier(n notify.Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithSingleSeller rejects additions from a seller other than the one
// already in the cart.
func WithSingleSeller() Option {
	return func(s *Store) { s.singleSeller = true }
}

func WithSubscriber(sub Subscriber) Option {
	return func(s *Store) { s.subs = append(s.subs, sub) }
}

// Store is the single source of truth for one shopper's cart.
type Store struct {
	mu           sync.Mutex
	state        State
	notifier     notify.Notifier
	singleSeller bool
	subs         []Subscriber
}

func NewStore(initial State, opts ...Option) *Store {
	s := &Store{
		state:    initial,
		notifier: notify.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) AddToCart(ctx context.Context, p product.Product, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.state.Add(p, quantity, s.singleSeller)
	if err != nil {
		switch {
		case errors.Is(err, ErrStockExceeded):
			available := p.Stock
			if it, ok := s.state.Find(p.ID); ok {
				available -= it.Quantity
			}
			notify.Errorf(ctx, s.notifier, "Stock exceeded", "Only %d more %s of %s can be added", available, p.Unit, p.Name)
		case errors.Is(err, ErrSellerMismatch):
			notify.Errorf(ctx, s.notifier, "Different seller", "Your cart already holds items from another seller")
		default:
			notify.Errorf(ctx, s.notifier, "Could not add to cart", "%v", err)
		}
		return err
	}

	if err := s.commit(ctx, next); err != nil {
		return err
	}
	notify.Successf(ctx, s.notifier, "Added to cart", "%s added to your cart", p.Name)
	return nil
}

func (s *Store) RemoveFromCart(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.remove(ctx, productID)
}

func (s *Store) remove(ctx context.Context, productID string) error {
	if err := s.commit(ctx, s.state.Remove(productID)); err != nil {
		return err
	}
	notify.Successf(ctx, s.notifier, "Removed from cart", "Item removed from your cart")
	return nil
}

func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.state.Find(productID)
	if !ok {
		return nil
	}

	if quantity < 1 {
		return s.remove(ctx, productID)
	}

	next, err := s.state.Update(productID, quantity)
	if err != nil {
		notify.Errorf(ctx, s.notifier, "Stock exceeded", "Only %d %s of %s available", it.Stock, it.Unit, it.Name)
		return err
	}

	if err := s.commit(ctx, next); err != nil {
		return err
	}
	notify.Successf(ctx, s.notifier, "Cart updated", "%s quantity set to %d", it.Name, quantity)
	return nil
}

func (s *Store) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(ctx, State{})
}

// Reconcile refreshes the stock cached on each line from live catalogue
// payloads and reports the lines whose quantity no longer fits, carrying the
// live stock. Short lines keep their previous stock so quantity <= stock
// still holds; the caller decides what to do with shortages.
func (s *Store) Reconcile(ctx context.Context, live []product.Product) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state
	var short []Item
	for _, p := range live {
		it, ok := next.Find(p.ID)
		if !ok {
			continue
		}
		if it.Quantity > p.Stock {
			it.Stock = p.Stock
			short = append(short, it)
			continue
		}
		next = next.Restock(p)
	}

	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	return short, nil
}

func (s *Store) Total() decimal.Decimal { return s.Snapshot().Total() }

func (s *Store) TotalItems() int { return s.Snapshot().TotalItems() }

func (s *Store) VendorID() (string, bool) { return s.Snapshot().VendorID() }

// commit swaps in next and hands it to every subscriber. Callers hold s.mu.
func (s *Store) commit(ctx context.Context, next State) error {
	s.state = next
	for _, sub := range s.subs {
		if err := sub(ctx, next); err != nil {
			return fmt.Errorf("publishing cart snapshot: %w", err)
		}
	}
	return nil
}
