// Package payments is the backend's payment processor port. Processor errors
// carry a message that is shown to the user verbatim.
package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Plan types accepted by the processor.
const (
	PlanMonthly = "monthly"
	PlanAnnual  = "annual"
)

// ErrDeclined is wrapped by every *Error.
var ErrDeclined = errors.New("payment declined")

// Error is a processor failure with a user-facing message.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap lets callers match ErrDeclined.
func (e *Error) Unwrap() error {
	return ErrDeclined
}

// IntentRequest asks for a one-off payment.
type IntentRequest struct {
	UserID   int64
	CourseID int64
	Amount   float64
	PlanType string
}

// Intent is a created payment intent.
type Intent struct {
	ID           string
	ClientSecret string
}

// SubscriptionRequest asks for a recurring plan.
type SubscriptionRequest struct {
	UserID          int64
	CourseID        int64
	PlanType        string
	PaymentMethodID string
	CustomerID      string
}

// Subscription is a processor-side subscription.
type Subscription struct {
	ID               string
	CustomerID       string
	ClientSecret     string
	Status           string
	CurrentPeriodEnd time.Time
}

// Processor creates payment intents and subscriptions.
type Processor interface {
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	CreateSubscription(ctx context.Context, req SubscriptionRequest) (*Subscription, error)
}

// DevProcessor accepts everything except a few well-known test inputs, the
// way processor sandboxes do.
//
//   - amounts <= 0 are rejected
//   - payment method "pm_card_declined" is declined
//   - unknown plan types are rejected
type DevProcessor struct {
	now func() time.Time
}

// NewDevProcessor creates a development processor.
func NewDevProcessor() *DevProcessor {
	return &DevProcessor{now: time.Now}
}

// DeclinedPaymentMethod always fails in the development processor.
const DeclinedPaymentMethod = "pm_card_declined"

func (p *DevProcessor) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, &Error{Code: "amount_too_small", Message: "Amount must be greater than zero."}
	}
	if err := checkPlan(req.PlanType); err != nil {
		return nil, err
	}

	id := "pi_" + compactID()
	return &Intent{ID: id, ClientSecret: id + "_secret_" + compactID()}, nil
}

func (p *DevProcessor) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkPlan(req.PlanType); err != nil {
		return nil, err
	}
	if req.PaymentMethodID == DeclinedPaymentMethod {
		return nil, &Error{Code: "card_declined", Message: "Your card was declined."}
	}

	customer := req.CustomerID
	if customer == "" {
		customer = "cus_" + compactID()
	}

	period := 30 * 24 * time.Hour
	if req.PlanType == PlanAnnual {
		period = 365 * 24 * time.Hour
	}

	id := "sub_" + compactID()
	return &Subscription{
		ID:               id,
		CustomerID:       customer,
		ClientSecret:     "seti_" + compactID() + "_secret_" + compactID(),
		Status:           "active",
		CurrentPeriodEnd: p.now().UTC().Add(period),
	}, nil
}

func checkPlan(plan string) error {
	switch plan {
	case PlanMonthly, PlanAnnual:
		return nil
	default:
		return &Error{Code: "invalid_plan", Message: fmt.Sprintf("Unknown plan type %q.", plan)}
	}
}

func compactID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}
