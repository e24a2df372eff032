// Package checkout drives order placement as an explicit state machine:
//
//	Draft → Validated → AwaitingConfirmation → Placing → {Success | Failure}
//
// with an AwaitingPayment → Verifying branch for the online payment method.
// Every transition is guarded by the current state, so idempotency (notably
// the one-shot payment verification) is structural rather than a flag.
package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/veloura/storefront/pkg/debounce"
	pkgerrors "github.com/veloura/storefront/pkg/errors"
	"github.com/veloura/storefront/pkg/logger"
	"github.com/veloura/storefront/pkg/storefront/cart"
	"github.com/veloura/storefront/pkg/storefront/session"
	"github.com/veloura/storefront/pkg/types"
)

type State string

const (
	StateDraft                State = "draft"
	StateValidated            State = "validated"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StatePlacing              State = "placing"
	StateAwaitingPayment      State = "awaiting_payment"
	StateVerifying            State = "verifying"
	StateSuccess              State = "success"
	StateFailure              State = "failure"
)

// DefaultPersistDelay batches draft keystrokes into one durable write.
const DefaultPersistDelay = 500 * time.Millisecond

const redirectStatusSucceeded = "succeeded"

// PaymentIntents is the slice of the gateway payment surface the online
// branch needs.
type PaymentIntents interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string) (id string, clientSecret string, err error)
	IntentStatus(ctx context.Context, id string) (status string, err error)
}

// ProfileSource supplies saved addresses for draft hydration.
type ProfileSource interface {
	SavedAddresses(ctx context.Context) (billing, shipping types.AddressRecord, err error)
}

// Orchestrator owns the checkout lifecycle for one session. Not safe for
// concurrent use from multiple goroutines driving transitions at once; the
// state guards turn a racing duplicate call into an explicit error instead
// of a duplicate side effect.
type Orchestrator struct {
	session  *session.Session
	cart     *cart.Synchronizer
	payments PaymentIntents
	logg     *logger.Logger

	mu          sync.Mutex
	state       State
	draft       Draft
	fieldErrors FieldErrors
	intentID    string
	result      *cart.PlacementResult
	warning     string

	persist *debounce.Debouncer
}

type Options struct {
	Session      *session.Session
	Cart         *cart.Synchronizer
	Payments     PaymentIntents
	Logger       *logger.Logger
	PersistDelay time.Duration
}

func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Session == nil {
		return nil, fmt.Errorf("session is required")
	}
	if opts.Cart == nil {
		return nil, fmt.Errorf("cart synchronizer is required")
	}
	delay := opts.PersistDelay
	if delay <= 0 {
		delay = DefaultPersistDelay
	}

	o := &Orchestrator{
		session:  opts.Session,
		cart:     opts.Cart,
		payments: opts.Payments,
		logg:     opts.Logger,
		state:    StateDraft,
		draft:    loadDraft(opts.Session.Store()),
	}
	o.persist = debounce.New(delay, o.persistDraft)
	return o, nil
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) Draft() Draft {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.draft
}

// FieldErrors returns the map produced by the last failed validation.
func (o *Orchestrator) FieldErrors() FieldErrors {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fieldErrors
}

// Result returns the upstream placement response after Success or Failure.
func (o *Orchestrator) Result() *cart.PlacementResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// Warning surfaces non-fatal cleanup problems, such as a post-placement cart
// refresh failure. Empty when everything went cleanly.
func (o *Orchestrator) Warning() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.warning
}

// UpdateDraft applies an edit and schedules a debounced durable write. Edits
// are only accepted while the machine is in Draft.
func (o *Orchestrator) UpdateDraft(apply func(*Draft)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateDraft {
		return o.transitionError("update draft", StateDraft)
	}
	apply(&o.draft)
	o.persist.Trigger()
	return nil
}

// Hydrate merges saved profile addresses into the draft without overwriting
// anything the shopper already typed. Best effort: a profile fetch failure
// leaves the draft as it was.
func (o *Orchestrator) Hydrate(ctx context.Context, profile ProfileSource) {
	if profile == nil {
		return
	}
	billing, shipping, err := profile.SavedAddresses(ctx)
	if err != nil {
		if o.logg != nil {
			o.logg.Warn(ctx, "checkout.hydrate_failed")
		}
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateDraft {
		return
	}
	o.draft.Billing = o.draft.Billing.MergeMissing(billing)
	o.draft.Shipping = o.draft.Shipping.MergeMissing(shipping)
	o.persist.Trigger()
}

// Validate gates the network boundary. Failure keeps the machine in Draft
// and records the field error map; success moves to Validated.
func (o *Orchestrator) Validate() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateDraft {
		return o.transitionError("validate", StateDraft)
	}

	if errs := validateDraft(o.draft); errs != nil {
		o.fieldErrors = errs
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout draft has invalid fields").WithDetails(errs)
	}
	o.fieldErrors = nil
	o.state = StateValidated
	return nil
}

// Review advances to the confirmation screen. Separating this from Place
// keeps "I finished typing" distinct from "I agree to be charged".
func (o *Orchestrator) Review() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateValidated {
		return o.transitionError("review", StateValidated)
	}
	o.state = StateAwaitingConfirmation
	return nil
}

// Reopen returns to Draft from validation or review so the shopper can edit.
func (o *Orchestrator) Reopen() {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch o.state {
	case StateValidated, StateAwaitingConfirmation:
		o.state = StateDraft
	}
}

// BeginPayment opens a payment intent for the online method and parks the
// machine in AwaitingPayment until the external redirect returns. Only valid
// from AwaitingConfirmation.
func (o *Orchestrator) BeginPayment(ctx context.Context, amount decimal.Decimal, currency string) (string, error) {
	o.mu.Lock()
	if o.state != StateAwaitingConfirmation {
		defer o.mu.Unlock()
		return "", o.transitionError("begin payment", StateAwaitingConfirmation)
	}
	if o.draft.PaymentMethod != types.PaymentMethodOnline {
		o.mu.Unlock()
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "payment intent only applies to online payment")
	}
	if o.payments == nil {
		o.mu.Unlock()
		return "", pkgerrors.New(pkgerrors.CodeInternal, "payment client not configured")
	}
	o.mu.Unlock()

	id, secret, err := o.payments.CreateIntent(ctx, amount, currency)
	if err != nil {
		return "", err
	}

	o.mu.Lock()
	o.intentID = id
	o.state = StateAwaitingPayment
	o.mu.Unlock()
	return secret, nil
}

// VerifyAndPlace is the one-shot redirect handler for the online branch. The
// transition AwaitingPayment → Verifying is only valid once; a re-rendered
// redirect page calling this again gets a state error, never a second
// placement.
func (o *Orchestrator) VerifyAndPlace(ctx context.Context, redirectStatus string) error {
	o.mu.Lock()
	if o.state != StateAwaitingPayment {
		defer o.mu.Unlock()
		return o.transitionError("verify payment", StateAwaitingPayment)
	}
	o.state = StateVerifying
	intentID := o.intentID
	o.mu.Unlock()

	if redirectStatus != redirectStatusSucceeded {
		reason := "payment was not completed"
		if redirectStatus != "" {
			reason = fmt.Sprintf("payment ended with status %q", redirectStatus)
		}
		o.fail(reason)
		return pkgerrors.New(pkgerrors.CodePaymentFailed, reason)
	}

	if status, err := o.payments.IntentStatus(ctx, intentID); err != nil {
		o.fail("payment status could not be confirmed")
		return err
	} else if status != redirectStatusSucceeded {
		reason := fmt.Sprintf("payment intent reports %q", status)
		o.fail(reason)
		return pkgerrors.New(pkgerrors.CodePaymentAmbiguous, reason)
	}

	return o.place(ctx, intentID)
}

// Place submits the order for cod/bank_transfer. Online payment goes through
// BeginPayment/VerifyAndPlace instead.
func (o *Orchestrator) Place(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StateAwaitingConfirmation {
		defer o.mu.Unlock()
		return o.transitionError("place order", StateAwaitingConfirmation)
	}
	if o.draft.PaymentMethod == types.PaymentMethodOnline {
		o.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeStateConflict, "online payment requires the payment intent flow")
	}
	o.mu.Unlock()

	return o.place(ctx, "")
}

func (o *Orchestrator) place(ctx context.Context, intentID string) error {
	o.mu.Lock()
	o.state = StatePlacing
	payload := cart.CheckoutPayload{
		Billing:       o.draft.Billing,
		Shipping:      o.draft.Shipping,
		PaymentMethod: o.draft.PaymentMethod,
		IntentID:      intentID,
	}
	o.mu.Unlock()

	result, err := o.cart.Checkout(ctx, payload)
	if err != nil {
		// Recoverable: back to the review screen, no silent retry of a
		// payment-bearing call.
		o.mu.Lock()
		o.state = StateAwaitingConfirmation
		o.mu.Unlock()
		return err
	}

	if result.OrderID == 0 {
		// Neither a clear success nor a clear failure. Surface the raw
		// message; misclassifying payment state is worse than an explicit
		// unknown.
		o.mu.Lock()
		o.state = StateAwaitingConfirmation
		o.result = result
		o.mu.Unlock()
		message := result.Message
		if message == "" {
			message = "order placement returned no order id"
		}
		return pkgerrors.New(pkgerrors.CodePaymentAmbiguous, message).WithDetails(map[string]any{"response": string(result.Raw)})
	}

	o.finalize(ctx, result)
	return nil
}

// finalize records terminal success and runs best-effort cleanup. A cart
// refresh failure after a placed order is logged and surfaced as a warning,
// never as a placement failure.
func (o *Orchestrator) finalize(ctx context.Context, result *cart.PlacementResult) {
	o.persist.Stop()

	var warning string
	if err := o.session.Store().Delete(session.KeyDraft); err != nil {
		warning = "saved checkout draft could not be removed"
		if o.logg != nil {
			o.logg.Warn(ctx, "checkout.draft_clear_failed")
		}
	}

	o.cart.Clear()
	if _, err := o.cart.Load(ctx); err != nil {
		warning = "cart state could not be refreshed after placement"
		if o.logg != nil {
			o.logg.Warn(ctx, "checkout.cart_refresh_failed")
		}
	}

	o.mu.Lock()
	o.state = StateSuccess
	o.result = result
	o.warning = warning
	o.mu.Unlock()
}

func (o *Orchestrator) fail(reason string) {
	o.mu.Lock()
	o.state = StateFailure
	o.warning = ""
	o.result = &cart.PlacementResult{Message: reason}
	o.mu.Unlock()
}

// Close flushes any pending draft write. Call on teardown so no edit that
// reached UpdateDraft is lost.
func (o *Orchestrator) Close() {
	o.persist.Stop()
}

func (o *Orchestrator) persistDraft() {
	o.mu.Lock()
	draft := o.draft
	o.mu.Unlock()
	if err := saveDraft(o.session.Store(), draft); err != nil && o.logg != nil {
		o.logg.Warn(context.Background(), "checkout.draft_persist_failed")
	}
}

func (o *Orchestrator) transitionError(action string, wanted State) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("cannot %s from state %q", action, o.state)).
		WithDetails(map[string]any{"state": string(o.state), "requires": string(wanted)})
}
