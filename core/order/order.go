package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArcaneNova/annadata-client-sub001/core/cart"
	"github.com/ArcaneNova/annadata-client-sub001/core/checkout"
	"github.com/ArcaneNova/annadata-client-sub001/core/notify"
	"github.com/ArcaneNova/annadata-client-sub001/validate"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidOrder         = errors.New("order service returned an invalid order")
	ErrMissingPaymentFields = errors.New("order id, payment id and signature are required")
	ErrStockChanged         = errors.New("stock changed since the items were added")
)

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
)

type Type string

const (
	TypeRetail    Type = "retail"
	TypeWholesale Type = "wholesale"
)

type Status string

const (
	Pending   Status = "pending"
	Confirmed Status = "confirmed"
	Shipped   Status = "shipped"
	Delivered Status = "delivered"
	Cancelled Status = "cancelled"
)

type Line struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

type NewOrder struct {
	Products        []Line                   `json:"products" validate:"required,min=1,dive"`
	ShippingAddress checkout.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod            `json:"paymentMethod" validate:"required,oneof=cod online"`
	OrderType       Type                     `json:"orderType" validate:"required,oneof=retail wholesale"`
}

type Item struct {
	ProductID string          `json:"product"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type Order struct {
	ID              string                   `json:"_id"`
	OrderNumber     string                   `json:"orderNumber"`
	Status          Status                   `json:"status"`
	PaymentStatus   string                   `json:"paymentStatus,omitempty"`
	PaymentMethod   PaymentMethod            `json:"paymentMethod"`
	OrderType       Type                     `json:"orderType,omitempty"`
	TotalAmount     decimal.Decimal          `json:"totalAmount"`
	Items           []Item                   `json:"items,omitempty"`
	ShippingAddress checkout.ShippingAddress `json:"shippingAddress"`
	CreatedAt       time.Time                `json:"createdAt"`
}

type PaymentVerification struct {
	OrderID   string `json:"orderId" validate:"required"`
	PaymentID string `json:"paymentId" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// Backend is the remote order collaborator.
type Backend interface {
	CreateOrder(ctx context.Context, no NewOrder) (Order, error)
	VerifyPayment(ctx context.Context, pv PaymentVerification) (Order, error)
	Orders(ctx context.Context) ([]Order, error)
	Order(ctx context.Context, id string) (Order, error)
}

// Lines turns cart lines into order lines.
func Lines(s cart.State) []Line {
	items := s.Items()
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines
}

// Service reports every failure to the shopper and hands it back to the
// caller, so a parent flow can stop before the payment step.
type Service struct {
	backend  Backend
	notifier notify.Notifier
}

func NewService(backend Backend, nt notify.Notifier) *Service {
	if nt == nil {
		nt = notify.Discard
	}
	return &Service{backend: backend, notifier: nt}
}

func (s *Service) Create(ctx context.Context, no NewOrder) (Order, error) {
	if err := validate.Check(no); err != nil {
		notify.Errorf(ctx, s.notifier, "Order failed", "%v", err)
		return Order{}, fmt.Errorf("validating order: %w", err)
	}

	ord, err := s.backend.CreateOrder(ctx, no)
	if err != nil {
		notify.Errorf(ctx, s.notifier, "Order failed", "%s", message(err, "Failed to create order"))
		return Order{}, fmt.Errorf("creating order: %w", err)
	}

	if ord.ID == "" || ord.OrderNumber == "" {
		notify.Errorf(ctx, s.notifier, "Order failed", "Invalid order response from server")
		return Order{}, ErrInvalidOrder
	}

	notify.Successf(ctx, s.notifier, "Order placed", "Order %s created", ord.OrderNumber)
	return ord, nil
}

func (s *Service) Verify(ctx context.Context, pv PaymentVerification) (Order, error) {
	if err := validate.Check(pv); err != nil {
		notify.Errorf(ctx, s.notifier, "Payment verification failed", "Missing payment details")
		return Order{}, fmt.Errorf("%w: %v", ErrMissingPaymentFields, err)
	}

	ord, err := s.backend.VerifyPayment(ctx, pv)
	if err != nil {
		notify.Errorf(ctx, s.notifier, "Payment verification failed", "%s", message(err, "Failed to verify payment"))
		return Order{}, fmt.Errorf("verifying payment for order[%s]: %w", pv.OrderID, err)
	}

	notify.Successf(ctx, s.notifier, "Payment successful", "Payment for order %s verified", ord.OrderNumber)
	return ord, nil
}

type remoteMessage interface{ RemoteMessage() string }

// message prefers the collaborator's own explanation of err.
func message(err error, fallback string) string {
	var rm remoteMessage
	if errors.As(err, &rm) && rm.RemoteMessage() != "" {
		return rm.RemoteMessage()
	}
	return fallback
}
