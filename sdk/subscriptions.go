package sdk

import (
	"context"
	"net/http"
)

// SubscriptionService covers plans and the payment side-channel. Payment
// responses and errors are surfaced exactly as the backend sends them.
type SubscriptionService struct {
	service
}

// GetUserSubscription returns the logged-in user's subscription.
func (s *SubscriptionService) GetUserSubscription(ctx context.Context) (*Subscription, error) {
	raw, err := request(ctx, s.r, s.endpoints().Subscriptions.Me, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	raw = unwrapData(raw)

	record, err := firstRecord(raw)
	if id := s.currentUserID(ctx); id != "" {
		if selected, selErr := selectBy(raw, "userId", id); selErr == nil {
			record, err = selected, nil
		}
	}
	if err != nil {
		return nil, err
	}

	var sub Subscription
	if err := deserialize(record, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateSubscription starts a plan through the payment processor. The returned
// subscription carries the processor's client secret.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (*Subscription, error) {
	if req.PlanType == "" {
		return nil, validationError("planType is required")
	}
	sub, err := CallData[Subscription](ctx, s.r, s.endpoints().Payments.CreateSubscription, http.MethodPost, req)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CancelSubscription cancels a subscription at the end of its period.
func (s *SubscriptionService) CancelSubscription(ctx context.Context, id int64) (*StatusResponse, error) {
	ep := s.endpoints()
	resp, err := Call[StatusResponse](ctx, s.r, ep.Path(ep.Subscriptions.Cancel, idString(id)), http.MethodPost, nil)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreatePaymentIntent asks the payment processor for a one-off payment.
func (s *SubscriptionService) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error) {
	if req.Amount <= 0 {
		return nil, validationError("amount must be positive")
	}
	intent, err := Call[PaymentIntent](ctx, s.r, s.endpoints().Payments.CreateIntent, http.MethodPost, req)
	if err != nil {
		return nil, err
	}
	return &intent, nil
}
