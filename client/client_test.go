package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ArcaneNova/annadata-client-sub001/core/checkout"
	"github.com/ArcaneNova/annadata-client-sub001/core/order"
	"github.com/ArcaneNova/annadata-client-sub001/core/session"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

type seen struct {
	method string
	path   string
	auth   string
	reqID  string
	body   map[string]interface{}
}

func newRemote(t *testing.T, status int, reply string) (*Client, *[]seen) {
	t.Helper()

	var calls []seen
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := seen{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
			reqID:  r.Header.Get("X-Request-Id"),
		}
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&s.body)
		}
		calls = append(calls, s)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/api/", time.Second)
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	return c, &calls
}

func TestNewRejectsRelativeURL(t *testing.T) {
	if _, err := New("/api", time.Second); err == nil {
		t.Fatal("expected error for relative url")
	}
}

func TestAddresses(t *testing.T) {
	c, calls := newRemote(t, http.StatusOK, `{"addresses":[{"_id":"a1","street":"12 Market Rd","city":"Pune","state":"MH","pincode":"411001"}]}`)

	got, err := c.WithToken("tok-1").Addresses(context.Background())
	if err != nil {
		t.Fatalf("listing addresses: %v", err)
	}

	want := []checkout.Address{{ID: "a1", Street: "12 Market Rd", City: "Pune", State: "MH", Pincode: "411001"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("addresses (-want +got):\n%s", diff)
	}

	call := (*calls)[0]
	if call.method != http.MethodGet || call.path != "/api/users/addresses" {
		t.Fatalf("unexpected call %s %s", call.method, call.path)
	}
	if call.auth != "Bearer tok-1" {
		t.Fatalf("expected bearer token, got %q", call.auth)
	}
	if !strings.HasPrefix(call.reqID, "sf-") {
		t.Fatalf("expected generated request id, got %q", call.reqID)
	}
}

func TestAnonymousClientSendsNoToken(t *testing.T) {
	c, calls := newRemote(t, http.StatusOK, `{"product":{"_id":"p1","name":"Tomatoes","price":"10","stock":5,"unit":"kg","seller":"f1"}}`)

	p, err := c.WithToken("").Product(context.Background(), "p1")
	if err != nil {
		t.Fatalf("fetching product: %v", err)
	}
	if p.ID != "p1" || !p.Price.Equal(decimal.NewFromInt(10)) || p.SellerID != "f1" {
		t.Fatalf("unexpected product %+v", p)
	}
	if a := (*calls)[0].auth; a != "" {
		t.Fatalf("expected no authorization header, got %q", a)
	}
}

type roundTripFunc func(r *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestWithTransport(t *testing.T) {
	var auth string
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		auth = r.Header.Get("Authorization")
		rec := httptest.NewRecorder()
		rec.WriteHeader(http.StatusOK)
		rec.WriteString(`{"orders":[]}`)
		return rec.Result(), nil
	})

	c, err := New("http://marketplace.test/api", time.Second, WithTransport(rt))
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	if _, err := c.WithToken("tok-1").Orders(context.Background()); err != nil {
		t.Fatalf("listing orders: %v", err)
	}
	if auth != "Bearer tok-1" {
		t.Fatalf("expected the token through the custom transport, got %q", auth)
	}
}

func TestCreateOrder(t *testing.T) {
	c, calls := newRemote(t, http.StatusCreated, `{"order":{"_id":"o1","orderNumber":"ORD-1","status":"pending","paymentMethod":"cod","totalAmount":"20"}}`)

	no := order.NewOrder{
		Products:        []order.Line{{ProductID: "p1", Quantity: 2}},
		ShippingAddress: checkout.ShippingAddress{Street: "a", City: "b", State: "c", Pincode: "d"},
		PaymentMethod:   order.PaymentCOD,
		OrderType:       order.TypeRetail,
	}
	ord, err := c.CreateOrder(context.Background(), no)
	if err != nil {
		t.Fatalf("creating order: %v", err)
	}
	if ord.ID != "o1" || ord.OrderNumber != "ORD-1" {
		t.Fatalf("unexpected order %+v", ord)
	}

	call := (*calls)[0]
	if call.method != http.MethodPost || call.path != "/api/orders" {
		t.Fatalf("unexpected call %s %s", call.method, call.path)
	}
	if call.body["paymentMethod"] != "cod" || call.body["orderType"] != "retail" {
		t.Fatalf("unexpected payload %v", call.body)
	}
}

func TestLogin(t *testing.T) {
	c, calls := newRemote(t, http.StatusOK, `{"user":{"_id":"u1","name":"Asha","email":"asha@example.com","role":"consumer"},"token":"tok-9"}`)

	u, tok, err := c.Login(context.Background(), session.Credentials{Email: "asha@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("logging in: %v", err)
	}
	if u.ID != "u1" || u.Role != session.RoleConsumer || tok != "tok-9" {
		t.Fatalf("unexpected login result %+v %q", u, tok)
	}
	if (*calls)[0].body["email"] != "asha@example.com" {
		t.Fatalf("unexpected payload %v", (*calls)[0].body)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reply  string
		msg    string
	}{
		{"message field", http.StatusBadRequest, `{"message":"Product out of stock"}`, "Product out of stock"},
		{"error field", http.StatusUnauthorized, `{"error":"Token expired"}`, "Token expired"},
		{"no body", http.StatusInternalServerError, ``, ""},
		{"html body", http.StatusBadGateway, `<html>bad gateway</html>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newRemote(t, tt.status, tt.reply)

			_, err := c.Orders(context.Background())

			var re *Error
			if !errors.As(err, &re) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if re.StatusCode() != tt.status || re.RemoteMessage() != tt.msg {
				t.Fatalf("unexpected error %+v", re)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	c, _ := newRemote(t, http.StatusNotFound, `{"message":"No addresses"}`)

	_, err := c.Addresses(context.Background())
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if IsNotFound(errors.New("boom")) {
		t.Fatal("plain errors are not remote 404s")
	}
}
