package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ArcaneNova/annadata-client-sub001/api/web"
	"github.com/ArcaneNova/annadata-client-sub001/api/weberr"
	"github.com/ArcaneNova/annadata-client-sub001/validate"
)

// Opener returns the session of the device making the request.
type Opener func(ctx context.Context) (*Store, error)

// Authenticator exchanges credentials for a user and bearer token.
type Authenticator interface {
	Login(ctx context.Context, c Credentials) (User, string, error)
}

type Login struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe"`
}

type View struct {
	User            *User  `json:"user"`
	Authenticated   bool   `json:"authenticated"`
	Consumer        bool   `json:"isConsumer"`
	Farmer          bool   `json:"isFarmer"`
	Vendor          bool   `json:"isVendor"`
	Admin           bool   `json:"isAdmin"`
	RememberedEmail string `json:"rememberedEmail,omitempty"`
}

func newView(ctx context.Context, s *Store) View {
	return View{
		User:          s.User(),
		Authenticated: s.IsAuthenticated(ctx),
		Consumer:      s.IsConsumer(ctx),
		Farmer:        s.IsFarmer(ctx),
		Vendor:        s.IsVendor(ctx),
		Admin:         s.IsAdmin(ctx),
	}
}

func HandleShow(open Opener, sealer *Sealer) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, err := open(ctx)
		if err != nil {
			return fmt.Errorf("opening session: %w", err)
		}

		v := newView(ctx, s)
		if sealer != nil {
			if c, ok, err := s.Remembered(ctx, sealer); err == nil && ok {
				v.RememberedEmail = c.Email
			}
		}

		return web.Respond(ctx, w, v, http.StatusOK)
	}
}

func HandleLogin(open Opener, auth Authenticator, sealer *Sealer) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in Login
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.Unprocessable(err)
		}

		creds := Credentials{Email: in.Email, Password: in.Password}
		u, token, err := auth.Login(ctx, creds)
		if err != nil {
			return weberr.NotAuthorized(fmt.Errorf("logging in %s: %w", in.Email, err))
		}
		if token == "" {
			return weberr.NotAuthorized(errors.New("login returned no token"))
		}

		s, err := open(ctx)
		if err != nil {
			return fmt.Errorf("opening session: %w", err)
		}

		// The token goes last: a stored token alone reads as signed in.
		if err := s.SetUser(ctx, &u); err != nil {
			return err
		}
		if err := s.SetToken(ctx, token); err != nil {
			s.SetUser(ctx, nil)
			return err
		}

		if in.RememberMe && sealer != nil {
			if err := s.Remember(ctx, sealer, creds); err != nil {
				return fmt.Errorf("remembering credentials: %w", err)
			}
		}

		return web.Respond(ctx, w, newView(ctx, s), http.StatusOK)
	}
}

func HandleLogout(open Opener) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, err := open(ctx)
		if err != nil {
			return fmt.Errorf("opening session: %w", err)
		}

		if err := s.Logout(ctx); err != nil {
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
