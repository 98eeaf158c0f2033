package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ArcaneNova/annadata-client-sub001/api/background"
	"github.com/ArcaneNova/annadata-client-sub001/api/middleware"
	"github.com/ArcaneNova/annadata-client-sub001/api/web"
	"github.com/ArcaneNova/annadata-client-sub001/api/weberr"
	"github.com/ArcaneNova/annadata-client-sub001/client"
	"github.com/ArcaneNova/annadata-client-sub001/core/cart"
	"github.com/ArcaneNova/annadata-client-sub001/core/checkout"
	"github.com/ArcaneNova/annadata-client-sub001/core/kv"
	"github.com/ArcaneNova/annadata-client-sub001/core/notify"
	"github.com/ArcaneNova/annadata-client-sub001/core/order"
	"github.com/ArcaneNova/annadata-client-sub001/core/session"
	"github.com/ArcaneNova/annadata-client-sub001/rate"
	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	CorsOrigin string
	Log        logrus.FieldLogger
	Session    *scs.SessionManager
	// Storage keeps device state. Nil keeps it inside the scs session.
	Storage      kv.Storage
	Remote       *client.Client
	Background   *background.Background
	Limiter      *rate.Limiter
	Sealer       *session.Sealer
	SingleSeller bool
}

type api struct {
	*mux.Router
	mw    []web.Middleware
	log   logrus.FieldLogger
	cfg   APIConfig
	flash *notify.Flash
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
		cfg:    cfg,
		flash:  notify.NewFlash(cfg.Session),
	}

	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Device(cfg.Session))
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := a.authenticate()
	renew := renewToken(cfg.Session)

	a.Handle(http.MethodGet, "/auth/session", session.HandleShow(a.openSession, cfg.Sealer))
	a.Handle(http.MethodPost, "/auth/login", session.HandleLogin(a.openSession, cfg.Remote, cfg.Sealer), renew)
	a.Handle(http.MethodPost, "/auth/logout", session.HandleLogout(a.openSession), renew)

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(a.openCart))
	a.Handle(http.MethodDelete, "/cart", cart.HandleDelete(a.openCart))
	a.Handle(http.MethodPut, "/cart/items", cart.HandleCreateItem(a.openCart, cfg.Remote))
	a.Handle(http.MethodPatch, "/cart/items/{product_id}", cart.HandleUpdateItem(a.openCart))
	a.Handle(http.MethodDelete, "/cart/items/{product_id}", cart.HandleDeleteItem(a.openCart))

	a.Handle(http.MethodGet, "/checkout", checkout.HandleShow(a.openAddresses, cfg.Log), authen)
	a.Handle(http.MethodPost, "/checkout", order.HandlePlace(order.PlaceConfig{
		Carts:     a.openCart,
		Addresses: a.openAddresses,
		Orders:    a.openOrders,
		Catalog:   cfg.Remote,
		Limiter:   cfg.Limiter,
		Device:    middleware.ContextDevice,
		Notifier:  a.notifier(),
		Log:       cfg.Log,
	}), authen)

	a.Handle(http.MethodPost, "/payments/verify", order.HandleVerifyPayment(a.openCart, a.openOrders, a.notifier()), authen)
	a.Handle(http.MethodGet, "/orders/{id}", order.HandleShow(a.openOrders), authen)
	a.Handle(http.MethodGet, "/orders", order.HandleList(a.openCart, a.openOrders), authen)

	a.Handle(http.MethodGet, "/notifications", a.handleNotifications())

	return cfg.Session.LoadAndSave(a.Router)
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}

// storage is the key-value namespace of the requesting device.
func (a *api) storage(ctx context.Context) kv.Storage {
	if a.cfg.Storage == nil {
		return kv.NewSession(a.cfg.Session)
	}
	return kv.Prefixed(a.cfg.Storage, "device:"+middleware.ContextDevice(ctx)+":")
}

// notifier reaches the shopper through the session flash queue and the
// operator through the log.
func (a *api) notifier() notify.Notifier {
	var log notify.Notifier = notify.NewLog(a.log)
	if a.cfg.Background != nil {
		log = notify.NewAsync(log, a.cfg.Background)
	}
	return notify.Multi(a.flash, log)
}

func (a *api) openCart(ctx context.Context) (*cart.Store, error) {
	opts := []cart.Option{cart.WithNotifier(a.notifier())}
	if a.cfg.SingleSeller {
		opts = append(opts, cart.WithSingleSeller())
	}
	return cart.Open(ctx, a.storage(ctx), opts...)
}

func (a *api) openSession(ctx context.Context) (*session.Store, error) {
	return session.Open(ctx, a.storage(ctx))
}

// remote is the API client acting as the signed in user of the device.
func (a *api) remote(ctx context.Context) (*client.Client, error) {
	s, err := a.openSession(ctx)
	if err != nil {
		return nil, err
	}
	return a.cfg.Remote.WithToken(s.Token()), nil
}

func (a *api) openAddresses(ctx context.Context) (checkout.AddressSource, error) {
	c, err := a.remote(ctx)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (a *api) openOrders(ctx context.Context) (order.Backend, error) {
	c, err := a.remote(ctx)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (a *api) authenticate() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			s, err := a.openSession(ctx)
			if err != nil {
				return fmt.Errorf("opening session: %w", err)
			}
			if !s.IsAuthenticated(ctx) {
				return weberr.NotAuthorized(errors.New("device has no signed in user"))
			}
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// renewToken rotates the session cookie whenever the privilege level changes.
func renewToken(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if err := sm.RenewToken(ctx); err != nil {
				return fmt.Errorf("renewing session token: %w", err)
			}
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

func (a *api) handleNotifications() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, a.flash.Pop(ctx), http.StatusOK)
	}
}
