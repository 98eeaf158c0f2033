package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ArcaneNova/annadata-client-sub001/api/web"
	"github.com/ArcaneNova/annadata-client-sub001/api/weberr"
	"github.com/ArcaneNova/annadata-client-sub001/core/product"
	"github.com/ArcaneNova/annadata-client-sub001/validate"
	"github.com/shopspring/decimal"
)

// Opener returns the store of the device making the request.
type Opener func(ctx context.Context) (*Store, error)

// Catalog resolves the product payload a new cart line is built from.
type Catalog interface {
	Product(ctx context.Context, id string) (product.Product, error)
}

type View struct {
	Items      []Item          `json:"items"`
	Total      decimal.Decimal `json:"total"`
	TotalItems int             `json:"totalItems"`
	VendorID   *string         `json:"vendorId"`
}

func NewView(s State) View {
	v := View{
		Items:      s.Items(),
		Total:      s.Total(),
		TotalItems: s.TotalItems(),
	}
	if v.Items == nil {
		v.Items = []Item{}
	}
	if id, ok := s.VendorID(); ok {
		v.VendorID = &id
	}
	return v
}

func HandleShow(open Opener) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		st, err := open(ctx)
		if err != nil {
			return fmt.Errorf("opening cart: %w", err)
		}

		return web.Respond(ctx, w, NewView(st.Snapshot()), http.StatusOK)
	}
}

func HandleCreateItem(open Opener, catalog Catalog) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.Unprocessable(err)
		}

		p, err := catalog.Product(ctx, in.ProductID)
		if err != nil {
			return catalogError(fmt.Errorf("fetching product[%s]: %w", in.ProductID, err))
		}

		st, err := open(ctx)
		if err != nil {
			return fmt.Errorf("opening cart: %w", err)
		}

		if err := st.AddToCart(ctx, p, in.Quantity); err != nil {
			return storeError(err)
		}

		return web.Respond(ctx, w, NewView(st.Snapshot()), http.StatusOK)
	}
}

func HandleUpdateItem(open Opener) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID := web.Param(r, "product_id")

		var up ItemUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		st, err := open(ctx)
		if err != nil {
			return fmt.Errorf("opening cart: %w", err)
		}

		if err := st.UpdateQuantity(ctx, productID, up.Quantity); err != nil {
			return storeError(err)
		}

		return web.Respond(ctx, w, NewView(st.Snapshot()), http.StatusOK)
	}
}

func HandleDeleteItem(open Opener) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID := web.Param(r, "product_id")

		st, err := open(ctx)
		if err != nil {
			return fmt.Errorf("opening cart: %w", err)
		}

		if err := st.RemoveFromCart(ctx, productID); err != nil {
			return fmt.Errorf("removing product[%s]: %w", productID, err)
		}

		return web.Respond(ctx, w, NewView(st.Snapshot()), http.StatusOK)
	}
}

func HandleDelete(open Opener) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		st, err := open(ctx)
		if err != nil {
			return fmt.Errorf("opening cart: %w", err)
		}

		if err := st.ClearCart(ctx); err != nil {
			return fmt.Errorf("clearing cart: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func storeError(err error) error {
	switch {
	case errors.Is(err, ErrStockExceeded), errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidProduct):
		return weberr.Unprocessable(err)
	case errors.Is(err, ErrSellerMismatch):
		return weberr.Conflict(err)
	}
	return err
}

func catalogError(err error) error {
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) && sc.StatusCode() == http.StatusNotFound {
		return weberr.NotFound(err)
	}
	return weberr.BadGateway(err, "the product catalogue is unavailable")
}
