package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ArcaneNova/annadata-client-sub001/api/web"
	"github.com/ArcaneNova/annadata-client-sub001/api/weberr"
	"github.com/ArcaneNova/annadata-client-sub001/core/cart"
	"github.com/shopspring/decimal"
)

// Summary is the dashboard read model: remote orders next to the local cart.
type Summary struct {
	Orders   []Order         `json:"orders"`
	ByStatus map[Status]int  `json:"byStatus"`
	Spent    decimal.Decimal `json:"spent"`
	Cart     cart.View       `json:"cart"`
}

func Summarize(orders []Order, s cart.State) Summary {
	sum := Summary{
		Orders:   orders,
		ByStatus: make(map[Status]int),
		Spent:    decimal.Zero,
		Cart:     cart.NewView(s),
	}
	if sum.Orders == nil {
		sum.Orders = []Order{}
	}

	for _, o := range orders {
		sum.ByStatus[o.Status]++
		if o.Status != Cancelled {
			sum.Spent = sum.Spent.Add(o.TotalAmount)
		}
	}
	return sum
}

func HandleList(carts cart.Opener, orders BackendOpener) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		backend, err := orders(ctx)
		if err != nil {
			return fmt.Errorf("opening order backend: %w", err)
		}

		list, err := backend.Orders(ctx)
		if err != nil {
			return weberr.BadGateway(err, message(err, "Failed to load orders"))
		}

		st, err := carts(ctx)
		if err != nil {
			return fmt.Errorf("opening cart: %w", err)
		}

		return web.Respond(ctx, w, Summarize(list, st.Snapshot()), http.StatusOK)
	}
}

func HandleShow(orders BackendOpener) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")

		backend, err := orders(ctx)
		if err != nil {
			return fmt.Errorf("opening order backend: %w", err)
		}

		ord, err := backend.Order(ctx, id)
		if err != nil {
			var sc interface{ StatusCode() int }
			if errors.As(err, &sc) && sc.StatusCode() == http.StatusNotFound {
				return weberr.NotFound(err)
			}
			return weberr.BadGateway(err, message(err, "Failed to load order"))
		}

		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}
