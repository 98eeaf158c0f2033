package web

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type payload struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"ok", `{"productId":"p1","quantity":2}`, false},
		{"empty", ``, true},
		{"unknown field", `{"productId":"p1","qty":2}`, true},
		{"two values", `{"productId":"p1"}{"productId":"p2"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPut, "/cart/items", bytes.NewBufferString(tt.body))
			var p payload
			err := Decode(httptest.NewRecorder(), r, &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestWrapMiddlewareOrder(t *testing.T) {
	var calls []string
	mark := func(name string) Middleware {
		return func(h Handler) Handler {
			return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				calls = append(calls, name)
				return h(ctx, w, r)
			}
		}
	}

	h := WrapMiddleware([]Middleware{mark("outer"), nil, mark("inner")}, func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		calls = append(calls, "handler")
		return nil
	})
	h(context.Background(), httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if diff := cmp.Diff([]string{"outer", "inner", "handler"}, calls); diff != "" {
		t.Fatalf("call order (-want +got):\n%s", diff)
	}
}

func TestRespond(t *testing.T) {
	w := httptest.NewRecorder()
	if err := Respond(context.Background(), w, payload{ProductID: "p1", Quantity: 1}, http.StatusCreated); err != nil {
		t.Fatalf("responding: %v", err)
	}
	if w.Code != http.StatusCreated || w.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected response %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	if got := w.Body.String(); got != `{"productId":"p1","quantity":1}` {
		t.Fatalf("unexpected body %s", got)
	}

	w = httptest.NewRecorder()
	Respond(context.Background(), w, nil, http.StatusNoContent)
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("expected empty 204, got %d %q", w.Code, w.Body.String())
	}
}
