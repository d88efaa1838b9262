package payments

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevProcessor_CreatePaymentIntent(t *testing.T) {
	ctx := context.Background()
	p := NewDevProcessor()

	intent, err := p.CreatePaymentIntent(ctx, IntentRequest{UserID: 1, CourseID: 1, Amount: 49.99, PlanType: PlanMonthly})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(intent.ID, "pi_"))
	assert.True(t, strings.HasPrefix(intent.ClientSecret, intent.ID+"_secret_"))

	other, err := p.CreatePaymentIntent(ctx, IntentRequest{Amount: 1, PlanType: PlanAnnual})
	require.NoError(t, err)
	assert.NotEqual(t, intent.ClientSecret, other.ClientSecret)

	tests := []struct {
		name    string
		req     IntentRequest
		message string
	}{
		{"zero amount", IntentRequest{Amount: 0, PlanType: PlanMonthly}, "Amount must be greater than zero."},
		{"unknown plan", IntentRequest{Amount: 10, PlanType: "weekly"}, `Unknown plan type "weekly".`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.CreatePaymentIntent(ctx, tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDeclined)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestDevProcessor_CreateSubscription(t *testing.T) {
	ctx := context.Background()
	p := NewDevProcessor()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	sub, err := p.CreateSubscription(ctx, SubscriptionRequest{UserID: 1, PlanType: PlanAnnual, PaymentMethodID: "pm_card_visa"})
	require.NoError(t, err)
	assert.Equal(t, "active", sub.Status)
	assert.True(t, strings.HasPrefix(sub.CustomerID, "cus_"))
	assert.NotEmpty(t, sub.ClientSecret)
	assert.Equal(t, now.Add(365*24*time.Hour), sub.CurrentPeriodEnd)

	sub, err = p.CreateSubscription(ctx, SubscriptionRequest{PlanType: PlanMonthly, CustomerID: "cus_existing"})
	require.NoError(t, err)
	assert.Equal(t, "cus_existing", sub.CustomerID)
	assert.Equal(t, now.Add(30*24*time.Hour), sub.CurrentPeriodEnd)

	_, err = p.CreateSubscription(ctx, SubscriptionRequest{PlanType: PlanMonthly, PaymentMethodID: DeclinedPaymentMethod})
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "card_declined", perr.Code)
	assert.Equal(t, "Your card was declined.", perr.Error())
}

func TestDevProcessor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDevProcessor().CreatePaymentIntent(ctx, IntentRequest{Amount: 1, PlanType: PlanMonthly})
	assert.ErrorIs(t, err, context.Canceled)
}
