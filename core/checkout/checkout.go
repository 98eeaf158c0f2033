// Package checkout gathers a validated shipping address before an order is
// placed.
//
// A flow starts in StepLoading. Load moves it to StepSelected when the shopper
// has saved addresses, or to StepNewEntry otherwise; a failed fetch counts as
// having none. Submit passes through StepSubmitting and returns to the step it
// came from.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ArcaneNova/annadata-client-sub001/core/notify"
	"github.com/ArcaneNova/annadata-client-sub001/validate"
	"github.com/sirupsen/logrus"
)

var (
	ErrMissingAddress = errors.New("missing address information")
	ErrEmptyCart      = errors.New("empty cart")
	ErrInProgress     = errors.New("checkout already in progress")
	ErrUnknownAddress = errors.New("unknown saved address")
	ErrWrongStep      = errors.New("operation not allowed in the current step")
)

type Step string

const (
	StepLoading    Step = "loading"
	StepSelected   Step = "selected"
	StepNewEntry   Step = "new"
	StepSubmitting Step = "submitting"
)

type Address struct {
	ID      string `json:"_id"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// ShippingForm is the new address form. Name and phone are collected but not
// required.
type ShippingForm struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
}

// ShippingAddress is what a successful submit hands over.
type ShippingAddress struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Pincode string `json:"pincode" validate:"required"`
}

// AddressSource lists the shopper's saved addresses.
type AddressSource interface {
	Addresses(ctx context.Context) ([]Address, error)
}

type View struct {
	Step       Step         `json:"step"`
	Addresses  []Address    `json:"addresses"`
	SelectedID string       `json:"selectedAddressId,omitempty"`
	Form       ShippingForm `json:"form"`
	Loading    bool         `json:"isLoading"`
	Processing bool         `json:"isProcessing"`
}

type Flow struct {
	mu         sync.Mutex
	source     AddressSource
	notifier   notify.Notifier
	log        logrus.FieldLogger
	step       Step
	addresses  []Address
	selectedID string
	form       ShippingForm
	loading    bool
	processing bool
}

func NewFlow(source AddressSource, nt notify.Notifier, log logrus.FieldLogger) *Flow {
	if nt == nil {
		nt = notify.Discard
	}
	return &Flow{
		source:   source,
		notifier: nt,
		log:      log,
		step:     StepLoading,
	}
}

// Load fetches the saved addresses. Failures are logged and treated as an
// empty list.
func (f *Flow) Load(ctx context.Context) Step {
	f.mu.Lock()
	if f.loading {
		step := f.step
		f.mu.Unlock()
		return step
	}
	f.loading = true
	f.mu.Unlock()

	addrs, err := f.source.Addresses(ctx)
	if err != nil {
		f.log.WithError(err).Debug("saved addresses unavailable, falling back to a new address")
		addrs = nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.loading = false
	f.addresses = addrs
	if len(addrs) > 0 {
		f.step = StepSelected
		f.selectedID = addrs[0].ID
	} else {
		f.step = StepNewEntry
		f.selectedID = ""
	}
	return f.step
}

// Select picks another saved address.
func (f *Flow) Select(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepSelected && f.step != StepNewEntry {
		return ErrWrongStep
	}
	if _, ok := f.find(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAddress, id)
	}

	f.step = StepSelected
	f.selectedID = id
	return nil
}

// AddNew switches to the new address form and drops the preselected address.
func (f *Flow) AddNew() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepSelected && f.step != StepNewEntry {
		return ErrWrongStep
	}
	f.step = StepNewEntry
	f.selectedID = ""
	return nil
}

func (f *Flow) Fill(form ShippingForm) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepNewEntry {
		return ErrWrongStep
	}
	f.form = form
	return nil
}

// Submit validates the resolved address and the cart, then calls onSuccess
// exactly once with the address. The flow stays busy until onSuccess returns
// and a second Submit meanwhile fails with ErrInProgress.
func (f *Flow) Submit(ctx context.Context, cartEmpty bool, onSuccess func(context.Context, ShippingAddress) error) error {
	f.mu.Lock()
	if f.processing {
		f.mu.Unlock()
		return ErrInProgress
	}
	if f.step != StepSelected && f.step != StepNewEntry {
		f.mu.Unlock()
		return ErrWrongStep
	}

	prev := f.step
	addr := f.resolve()
	f.step = StepSubmitting
	f.processing = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.step = prev
		f.processing = false
		f.mu.Unlock()
	}()

	if err := validate.Check(addr); err != nil {
		notify.Errorf(ctx, f.notifier, "Missing Address Information", "Please fill in street, city, state and pincode")
		return fmt.Errorf("%w: %v", ErrMissingAddress, err)
	}

	if cartEmpty {
		notify.Errorf(ctx, f.notifier, "Empty Cart", "Add products to your cart before checking out")
		return ErrEmptyCart
	}

	return onSuccess(ctx, addr)
}

func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

func (f *Flow) Processing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.processing
}

func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()

	addrs := append([]Address{}, f.addresses...)
	return View{
		Step:       f.step,
		Addresses:  addrs,
		SelectedID: f.selectedID,
		Form:       f.form,
		Loading:    f.loading,
		Processing: f.processing,
	}
}

// resolve picks the address to submit. Callers hold f.mu.
func (f *Flow) resolve() ShippingAddress {
	if f.step == StepSelected {
		if a, ok := f.find(f.selectedID); ok {
			return ShippingAddress{Street: a.Street, City: a.City, State: a.State, Pincode: a.Pincode}
		}
		return ShippingAddress{}
	}
	return ShippingAddress{
		Street:  f.form.Street,
		City:    f.form.City,
		State:   f.form.State,
		Pincode: f.form.Pincode,
	}
}

func (f *Flow) find(id string) (Address, bool) {
	for _, a := range f.addresses {
		if a.ID == id {
			return a, true
		}
	}
	return Address{}, false
}
