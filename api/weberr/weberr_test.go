package weberr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fieldErr struct{ field string }

func (e fieldErr) Error() string     { return e.field + " is required" }
func (e fieldErr) FieldName() string { return e.field }

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New("plain"), http.StatusInternalServerError},
		{NotFound(errors.New("x")), http.StatusNotFound},
		{fmt.Errorf("outer: %w", Conflict(errors.New("x"))), http.StatusConflict},
		{BadGateway(errors.New("x"), "remote down"), http.StatusBadGateway},
		{TooManyRequests(errors.New("x")), http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		if got := Status(tt.err); got != tt.want {
			t.Fatalf("%v: expected %d, got %d", tt.err, tt.want, got)
		}
	}
}

func TestUnprocessableNamesField(t *testing.T) {
	err := Unprocessable(fmt.Errorf("checking: %w", fieldErr{"street"}))

	body, code, ok := Response(err)
	if !ok || code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 response, got %d %v", code, ok)
	}

	want := &ErrorResponse{Error: "checking: street is required", Field: "street"}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldsAndUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := InternalError(cause, WithFields(map[string]interface{}{"order": "o1"}))

	if !errors.Is(err, cause) {
		t.Fatal("expected the cause to stay reachable")
	}
	f, ok := Fields(err)
	if !ok || f["order"] != "o1" {
		t.Fatalf("expected fields, got %v", f)
	}
}
