package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ArcaneNova/annadata-client-sub001/api/web"
	"github.com/ArcaneNova/annadata-client-sub001/api/weberr"
	"github.com/ArcaneNova/annadata-client-sub001/core/cart"
	"github.com/ArcaneNova/annadata-client-sub001/core/checkout"
	"github.com/ArcaneNova/annadata-client-sub001/core/notify"
	"github.com/ArcaneNova/annadata-client-sub001/core/product"
	"github.com/ArcaneNova/annadata-client-sub001/rate"
	"github.com/sirupsen/logrus"
)

// BackendOpener returns the order collaborator authenticated as the
// requesting device's user.
type BackendOpener func(ctx context.Context) (Backend, error)

type PlaceConfig struct {
	Carts     cart.Opener
	Addresses checkout.SourceOpener
	Orders    BackendOpener
	Catalog   cart.Catalog
	Limiter   *rate.Limiter
	Device    func(ctx context.Context) string
	Notifier  notify.Notifier
	Log       logrus.FieldLogger
}

type Checkout struct {
	AddressID     string                 `json:"addressId"`
	NewAddress    *checkout.ShippingForm `json:"newAddress"`
	PaymentMethod PaymentMethod          `json:"paymentMethod"`
	OrderType     Type                   `json:"orderType"`
}

type Placed struct {
	Order Order `json:"order"`
	// PaymentRequired tells the view to open the payment gateway next.
	PaymentRequired bool `json:"paymentRequired"`
}

func HandlePlace(cfg PlaceConfig) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if cfg.Limiter != nil && !cfg.Limiter.Check(cfg.Device(ctx)) {
			err := errors.New("too many checkout attempts")
			return weberr.TooManyRequests(err)
		}

		var in Checkout
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}
		if in.PaymentMethod == "" {
			in.PaymentMethod = PaymentCOD
		}
		if in.OrderType == "" {
			in.OrderType = TypeRetail
		}

		st, err := cfg.Carts(ctx)
		if err != nil {
			return fmt.Errorf("opening cart: %w", err)
		}
		src, err := cfg.Addresses(ctx)
		if err != nil {
			return fmt.Errorf("opening address source: %w", err)
		}
		backend, err := cfg.Orders(ctx)
		if err != nil {
			return fmt.Errorf("opening order backend: %w", err)
		}

		flow := checkout.NewFlow(src, cfg.Notifier, cfg.Log)
		flow.Load(ctx)

		switch {
		case in.NewAddress != nil:
			if err := flow.AddNew(); err != nil {
				return err
			}
			if err := flow.Fill(*in.NewAddress); err != nil {
				return err
			}
		case in.AddressID != "":
			if err := flow.Select(in.AddressID); err != nil {
				return weberr.Unprocessable(err)
			}
		}

		svc := NewService(backend, cfg.Notifier)

		var placed Placed
		err = flow.Submit(ctx, st.Snapshot().Empty(), func(ctx context.Context, addr checkout.ShippingAddress) error {
			if err := revalidate(ctx, st, cfg.Catalog, cfg.Notifier); err != nil {
				return err
			}

			ord, err := svc.Create(ctx, NewOrder{
				Products:        Lines(st.Snapshot()),
				ShippingAddress: addr,
				PaymentMethod:   in.PaymentMethod,
				OrderType:       in.OrderType,
			})
			if err != nil {
				return err
			}

			placed = Placed{Order: ord, PaymentRequired: in.PaymentMethod == PaymentOnline}

			// Online orders keep the cart until the payment is verified.
			if in.PaymentMethod == PaymentCOD {
				if err := st.ClearCart(ctx); err != nil {
					return fmt.Errorf("clearing cart after order[%s]: %w", ord.ID, err)
				}
			}
			return nil
		})
		if err != nil {
			return placeError(err)
		}

		return web.Respond(ctx, w, placed, http.StatusCreated)
	}
}

// revalidate refreshes cached stock from the live catalogue and refuses to
// place an order the catalogue can no longer cover.
func revalidate(ctx context.Context, st *cart.Store, catalog cart.Catalog, nt notify.Notifier) error {
	items := st.Snapshot().Items()
	live := make([]product.Product, 0, len(items))
	for _, it := range items {
		p, err := catalog.Product(ctx, it.ProductID)
		if err != nil {
			notify.Errorf(ctx, nt, "Order failed", "%s", message(err, "Could not verify stock"))
			return fmt.Errorf("fetching product[%s]: %w", it.ProductID, err)
		}
		live = append(live, p)
	}

	short, err := st.Reconcile(ctx, live)
	if err != nil {
		return err
	}
	if len(short) > 0 {
		it := short[0]
		notify.Errorf(ctx, nt, "Stock exceeded", "Only %d %s of %s left", it.Stock, it.Unit, it.Name)
		return fmt.Errorf("%w: product[%s]", ErrStockChanged, it.ProductID)
	}
	return nil
}

func placeError(err error) error {
	switch {
	case errors.Is(err, checkout.ErrMissingAddress), errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, ErrInvalidOrder):
		return weberr.Unprocessable(err)
	case errors.Is(err, checkout.ErrInProgress), errors.Is(err, ErrStockChanged):
		return weberr.Conflict(err)
	}
	return weberr.BadGateway(err, message(err, "Failed to create order"))
}

func HandleVerifyPayment(carts cart.Opener, orders BackendOpener, nt notify.Notifier) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var pv PaymentVerification
		if err := web.Decode(w, r, &pv); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		backend, err := orders(ctx)
		if err != nil {
			return fmt.Errorf("opening order backend: %w", err)
		}

		ord, err := NewService(backend, nt).Verify(ctx, pv)
		if err != nil {
			if errors.Is(err, ErrMissingPaymentFields) {
				return weberr.Unprocessable(err)
			}
			return weberr.BadGateway(err, message(err, "Failed to verify payment"))
		}

		st, err := carts(ctx)
		if err != nil {
			return fmt.Errorf("opening cart: %w", err)
		}
		if err := st.ClearCart(ctx); err != nil {
			return fmt.Errorf("clearing cart after payment for order[%s]: %w", ord.ID, err)
		}

		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}
