package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ArcaneNova/annadata-client-sub001/core/checkout"
	"github.com/ArcaneNova/annadata-client-sub001/core/order"
	"github.com/ArcaneNova/annadata-client-sub001/core/product"
	"github.com/ArcaneNova/annadata-client-sub001/core/session"
)

func (c *Client) Addresses(ctx context.Context) ([]checkout.Address, error) {
	var out struct {
		Addresses []checkout.Address `json:"addresses"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/addresses", nil, &out); err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("no saved addresses: %w", err)
		}
		return nil, err
	}
	return out.Addresses, nil
}

func (c *Client) Product(ctx context.Context, id string) (product.Product, error) {
	var out struct {
		Product product.Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &out); err != nil {
		return product.Product{}, err
	}
	return out.Product, nil
}

func (c *Client) CreateOrder(ctx context.Context, no order.NewOrder) (order.Order, error) {
	var out struct {
		Order order.Order `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders", no, &out); err != nil {
		return order.Order{}, err
	}
	return out.Order, nil
}

func (c *Client) VerifyPayment(ctx context.Context, pv order.PaymentVerification) (order.Order, error) {
	var out struct {
		Order order.Order `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/payments/verify", pv, &out); err != nil {
		return order.Order{}, err
	}
	return out.Order, nil
}

func (c *Client) Orders(ctx context.Context) ([]order.Order, error) {
	var out struct {
		Orders []order.Order `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

func (c *Client) Order(ctx context.Context, id string) (order.Order, error) {
	var out struct {
		Order order.Order `json:"order"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, &out); err != nil {
		return order.Order{}, err
	}
	return out.Order, nil
}

// Login exchanges credentials for the user and its bearer token.
func (c *Client) Login(ctx context.Context, cr session.Credentials) (session.User, string, error) {
	var out struct {
		User  session.User `json:"user"`
		Token string       `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", cr, &out); err != nil {
		return session.User{}, "", err
	}
	return out.User, out.Token, nil
}
