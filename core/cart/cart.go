package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ArcaneNova/annadata-client-sub001/core/product"
	"github.com/ArcaneNova/annadata-client-sub001/validate"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrStockExceeded   = errors.New("stock exceeded")
	ErrSellerMismatch  = errors.New("cart holds items from another seller")
	ErrInvalidProduct  = errors.New("invalid product")
)

type Item struct {
	ProductID string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Unit      string          `json:"unit"`
	Image     string          `json:"image"`
	SellerID  string          `json:"sellerId"`
	Quantity  int             `json:"quantity"`
}

type ItemNew struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

type ItemUp struct {
	Quantity int `json:"quantity"`
}

func (it Item) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// State is an immutable cart snapshot. Every operation returns a new State and
// leaves the receiver untouched.
type State struct {
	items []Item
}

func NewState(items ...Item) State {
	return State{items: append([]Item(nil), items...)}
}

// Items returns the lines in first insertion order.
func (s State) Items() []Item {
	return append([]Item(nil), s.items...)
}

func (s State) Len() int { return len(s.items) }

func (s State) Empty() bool { return len(s.items) == 0 }

func (s State) Find(productID string) (Item, bool) {
	if i := s.index(productID); i >= 0 {
		return s.items[i], true
	}
	return Item{}, false
}

func (s State) index(productID string) int {
	for i, it := range s.items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// Add merges quantity into the line for p, or appends a new line. The
// resulting quantity may not exceed p.Stock.
func (s State) Add(p product.Product, quantity int, singleSeller bool) (State, error) {
	if err := validate.Var(quantity, "gte=1"); err != nil {
		return s, ErrInvalidQuantity
	}
	if err := validate.Check(p); err != nil {
		return s, fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	if p.Price.IsNegative() {
		return s, fmt.Errorf("%w: negative price", ErrInvalidProduct)
	}

	if singleSeller {
		if vid, ok := s.VendorID(); ok && vid != p.SellerID {
			return s, ErrSellerMismatch
		}
	}

	i := s.index(p.ID)

	total := quantity
	if i >= 0 {
		total += s.items[i].Quantity
	}
	if total > p.Stock {
		return s, fmt.Errorf("%w: %d requested, %d available", ErrStockExceeded, total, p.Stock)
	}

	items := s.Items()
	if i >= 0 {
		items[i].Quantity = total
		return State{items: items}, nil
	}

	items = append(items, Item{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		Unit:      p.Unit,
		Image:     p.Image,
		SellerID:  p.SellerID,
		Quantity:  quantity,
	})
	return State{items: items}, nil
}

// Update replaces the quantity of a line, checked against the stock cached on
// the line. A quantity below 1 removes the line. Absent products are ignored.
func (s State) Update(productID string, quantity int) (State, error) {
	i := s.index(productID)
	if i < 0 {
		return s, nil
	}
	if quantity > s.items[i].Stock {
		return s, fmt.Errorf("%w: %d requested, %d available", ErrStockExceeded, quantity, s.items[i].Stock)
	}
	if quantity < 1 {
		return s.Remove(productID), nil
	}

	items := s.Items()
	items[i].Quantity = quantity
	return State{items: items}, nil
}

func (s State) Remove(productID string) State {
	i := s.index(productID)
	if i < 0 {
		return s
	}

	items := make([]Item, 0, len(s.items)-1)
	items = append(items, s.items[:i]...)
	items = append(items, s.items[i+1:]...)
	return State{items: items}
}

// Restock replaces the stock cached on the line for p.
func (s State) Restock(p product.Product) State {
	i := s.index(p.ID)
	if i < 0 {
		return s
	}
	items := s.Items()
	items[i].Stock = p.Stock
	return State{items: items}
}

func (s State) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (s State) TotalItems() int {
	var n int
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// VendorID is the seller of the first line.
func (s State) VendorID() (string, bool) {
	if len(s.items) == 0 {
		return "", false
	}
	return s.items[0].SellerID, true
}

type snapshot struct {
	Items   []Item `json:"items"`
	Version int    `json:"version"`
}

const snapshotVersion = 1

func (s State) MarshalJSON() ([]byte, error) {
	items := s.items
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(snapshot{Items: items, Version: snapshotVersion})
}

func (s *State) UnmarshalJSON(b []byte) error {
	var snap snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return err
	}

	items := make([]Item, 0, len(snap.Items))
	seen := make(map[string]bool, len(snap.Items))
	for _, it := range snap.Items {
		if it.ProductID == "" || it.Quantity < 1 || it.Quantity > it.Stock || it.Price.IsNegative() || seen[it.ProductID] {
			continue
		}
		seen[it.ProductID] = true
		items = append(items, it)
	}
	s.items = items
	return nil
}
