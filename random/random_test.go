package random

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	for _, n := range []int{0, 1, 16, 64} {
		s := String(n)
		if len(s) != n {
			t.Fatalf("expected length %d, got %d", n, len(s))
		}
		for _, c := range s {
			if !strings.ContainsRune(charset, c) {
				t.Fatalf("unexpected character %q in %q", c, s)
			}
		}
	}
}

func TestRequestID(t *testing.T) {
	a, b := RequestID("sf"), RequestID("sf")
	if !strings.HasPrefix(a, "sf-") || len(a) != len("sf-")+12 {
		t.Fatalf("unexpected id %q", a)
	}
	if a == b {
		t.Fatalf("expected distinct ids, got %q twice", a)
	}
}
