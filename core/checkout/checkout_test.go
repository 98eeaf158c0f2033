package checkout

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/ArcaneNova/annadata-client-sub001/core/notify"
	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
)

type fakeSource struct {
	addrs []Address
	err   error
}

func (f fakeSource) Addresses(ctx context.Context) ([]Address, error) {
	return f.addrs, f.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func saved() []Address {
	return []Address{
		{ID: "a1", Street: "12 Market Rd", City: "Pune", State: "MH", Pincode: "411001"},
		{ID: "a2", Street: "4 Lake View", City: "Nashik", State: "MH", Pincode: "422001"},
	}
}

func fullForm() ShippingForm {
	return ShippingForm{
		FullName: "Ravi Kumar",
		Phone:    "9000000001",
		Street:   "7 Farm Lane",
		City:     "Indore",
		State:    "MP",
		Pincode:  "452001",
	}
}

func TestLoadWithSavedAddresses(t *testing.T) {
	f := NewFlow(fakeSource{addrs: saved()}, nil, quietLogger())

	if f.Step() != StepLoading {
		t.Fatalf("expected initial step loading, got %s", f.Step())
	}
	if got := f.Load(context.Background()); got != StepSelected {
		t.Fatalf("expected step selected, got %s", got)
	}
	if v := f.View(); v.SelectedID != "a1" {
		t.Fatalf("expected first address preselected, got %q", v.SelectedID)
	}
}

func TestLoadWithoutAddresses(t *testing.T) {
	f := NewFlow(fakeSource{addrs: []Address{}}, nil, quietLogger())

	if got := f.Load(context.Background()); got != StepNewEntry {
		t.Fatalf("expected step new, got %s", got)
	}
	if v := f.View(); v.SelectedID != "" {
		t.Fatalf("expected no preselected address, got %q", v.SelectedID)
	}
}

func TestLoadFailureDegrades(t *testing.T) {
	rec := &notify.Recorder{}
	f := NewFlow(fakeSource{err: errors.New("connection refused")}, rec, quietLogger())

	if got := f.Load(context.Background()); got != StepNewEntry {
		t.Fatalf("expected step new, got %s", got)
	}
	if len(rec.Sent()) != 0 {
		t.Fatalf("fetch failure must not notify, got %v", rec.Sent())
	}
}

func TestSelectAndAddNew(t *testing.T) {
	f := NewFlow(fakeSource{addrs: saved()}, nil, quietLogger())
	f.Load(context.Background())

	if err := f.Select("a2"); err != nil {
		t.Fatalf("selecting a2: %v", err)
	}
	if f.Step() != StepSelected || f.View().SelectedID != "a2" {
		t.Fatalf("expected a2 selected, got %+v", f.View())
	}

	if err := f.Select("zz"); !errors.Is(err, ErrUnknownAddress) {
		t.Fatalf("expected ErrUnknownAddress, got %v", err)
	}

	if err := f.AddNew(); err != nil {
		t.Fatalf("adding new: %v", err)
	}
	if f.Step() != StepNewEntry || f.View().SelectedID != "" {
		t.Fatalf("expected new entry without selection, got %+v", f.View())
	}
}

func TestStepGuards(t *testing.T) {
	f := NewFlow(fakeSource{addrs: saved()}, nil, quietLogger())

	if err := f.AddNew(); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("expected ErrWrongStep while loading, got %v", err)
	}
	err := f.Submit(context.Background(), false, func(context.Context, ShippingAddress) error { return nil })
	if !errors.Is(err, ErrWrongStep) {
		t.Fatalf("expected ErrWrongStep while loading, got %v", err)
	}

	f.Load(context.Background())
	if err := f.Fill(fullForm()); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("expected ErrWrongStep when filling with a saved address selected, got %v", err)
	}
}

func TestSubmitNewAddress(t *testing.T) {
	f := NewFlow(fakeSource{}, nil, quietLogger())
	f.Load(context.Background())
	f.Fill(fullForm())

	var calls []ShippingAddress
	err := f.Submit(context.Background(), false, func(ctx context.Context, a ShippingAddress) error {
		calls = append(calls, a)
		return nil
	})
	if err != nil {
		t.Fatalf("submitting: %v", err)
	}

	want := []ShippingAddress{{Street: "7 Farm Lane", City: "Indore", State: "MP", Pincode: "452001"}}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Fatalf("callback mismatch (-want +got):\n%s", diff)
	}
	if f.Step() != StepNewEntry || f.Processing() {
		t.Fatalf("expected flow back in new entry and idle, got %+v", f.View())
	}
}

func TestSubmitSavedAddress(t *testing.T) {
	f := NewFlow(fakeSource{addrs: saved()}, nil, quietLogger())
	f.Load(context.Background())
	f.Select("a2")

	var got ShippingAddress
	err := f.Submit(context.Background(), false, func(ctx context.Context, a ShippingAddress) error {
		got = a
		return nil
	})
	if err != nil {
		t.Fatalf("submitting: %v", err)
	}

	want := ShippingAddress{Street: "4 Lake View", City: "Nashik", State: "MH", Pincode: "422001"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("callback mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitMissingStreet(t *testing.T) {
	rec := &notify.Recorder{}
	f := NewFlow(fakeSource{}, rec, quietLogger())
	f.Load(context.Background())

	form := fullForm()
	form.Street = ""
	f.Fill(form)

	called := false
	err := f.Submit(context.Background(), false, func(context.Context, ShippingAddress) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrMissingAddress) {
		t.Fatalf("expected ErrMissingAddress, got %v", err)
	}
	if called {
		t.Fatal("callback must not run")
	}
	if n, _ := rec.Last(); n.Title != "Missing Address Information" {
		t.Fatalf("unexpected notification %+v", n)
	}
	if f.Step() != StepNewEntry {
		t.Fatalf("expected flow back in new entry, got %s", f.Step())
	}
}

func TestSubmitEmptyCart(t *testing.T) {
	rec := &notify.Recorder{}
	f := NewFlow(fakeSource{addrs: saved()}, rec, quietLogger())
	f.Load(context.Background())

	called := false
	err := f.Submit(context.Background(), true, func(context.Context, ShippingAddress) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	if called {
		t.Fatal("callback must not run")
	}
	if n, _ := rec.Last(); n.Title != "Empty Cart" {
		t.Fatalf("unexpected notification %+v", n)
	}
	if f.Step() != StepSelected {
		t.Fatalf("expected flow back in selected, got %s", f.Step())
	}
}

func TestSubmitWhileProcessing(t *testing.T) {
	f := NewFlow(fakeSource{addrs: saved()}, nil, quietLogger())
	f.Load(context.Background())

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- f.Submit(context.Background(), false, func(context.Context, ShippingAddress) error {
			close(entered)
			<-release
			return nil
		})
	}()

	<-entered
	if !f.Processing() || f.Step() != StepSubmitting {
		t.Fatalf("expected a busy flow, got %+v", f.View())
	}

	err := f.Submit(context.Background(), false, func(context.Context, ShippingAddress) error { return nil })
	if !errors.Is(err, ErrInProgress) {
		t.Fatalf("expected ErrInProgress, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if f.Processing() {
		t.Fatal("expected flow to be idle again")
	}
}

func TestSubmitReturnsCallbackError(t *testing.T) {
	f := NewFlow(fakeSource{addrs: saved()}, nil, quietLogger())
	f.Load(context.Background())

	boom := errors.New("order service down")
	err := f.Submit(context.Background(), false, func(context.Context, ShippingAddress) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
}
