package telemetry

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Init("storefront-test", &buf)
	if err != nil {
		t.Fatalf("initializing telemetry: %v", err)
	}

	h := Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), "storefront-test")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutting down: %v", err)
	}
	if !strings.Contains(buf.String(), "HTTP GET /cart") {
		t.Fatalf("expected exported span named after the request, got %q", buf.String())
	}
}
