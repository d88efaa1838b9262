package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/birbparty/birb-academy/internal/database"
	"github.com/birbparty/birb-academy/internal/payments"
	"github.com/birbparty/birb-academy/internal/queue"
	"github.com/birbparty/birb-academy/internal/telemetry"
	"github.com/birbparty/birb-academy/sdk"
)

// GetMySubscription handles GET /subscriptions/me
func (h *Handler) GetMySubscription(c *fiber.Ctx) error {
	sub, err := h.store.SubscriptionForUser(c.UserContext(), currentClaims(c).UserID())
	if err != nil {
		return storeError(err, "Subscription")
	}
	return c.JSON(sub)
}

// CancelSubscription handles POST /subscriptions/:id/cancel. Cancelling an
// already canceled subscription succeeds without publishing an event.
func (h *Handler) CancelSubscription(c *fiber.Ctx) error {
	ctx := c.UserContext()

	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	sub, err := h.store.GetSubscription(ctx, id)
	if err != nil {
		return storeError(err, "Subscription")
	}
	if sub.UserID != currentClaims(c).UserID() {
		return forbidden("Subscription belongs to another user")
	}

	if sub.Status != database.SubscriptionCanceled {
		sub, err = h.store.SetSubscriptionStatus(ctx, id, database.SubscriptionCanceled)
		if err != nil {
			return storeError(err, "Subscription")
		}
		h.publish(ctx, queue.NewSubscriptionEvent(sub.UserID, sub.ID, sub.PlanType, sub.Status))
	}

	return c.JSON(&sdk.StatusResponse{Success: true, Message: "Subscription canceled"})
}

// paymentError surfaces processor declines verbatim.
func paymentError(err error, operation string) error {
	var perr *payments.Error
	if errors.As(err, &perr) {
		RecordPaymentRequest(operation, "declined")
		e := paymentFailed(perr.Message)
		e.Details = perr.Code
		return e
	}
	RecordPaymentRequest(operation, "error")
	return internal("Payment processor unavailable", err)
}

// CreatePaymentIntent handles POST /payments/create-intent
func (h *Handler) CreatePaymentIntent(c *fiber.Ctx) error {
	var req PaymentIntentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx, done := telemetry.TimeOperation(c.UserContext(), "payments.create_intent")
	intent, err := h.payments.CreatePaymentIntent(ctx, payments.IntentRequest{
		UserID:   currentClaims(c).UserID(),
		CourseID: req.CourseID,
		Amount:   req.Amount,
		PlanType: req.PlanType,
	})
	if err != nil {
		done("error")
		return paymentError(err, "create_intent")
	}
	done("success")

	RecordPaymentRequest("create_intent", "success")
	return c.JSON(&sdk.PaymentIntent{ClientSecret: intent.ClientSecret})
}

// CreateSubscription handles POST /payments/create-subscription
func (h *Handler) CreateSubscription(c *fiber.Ctx) error {
	userID := currentClaims(c).UserID()

	var req CreateSubscriptionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if req.CourseID != 0 {
		if _, ok := h.catalog.Get(req.CourseID); !ok {
			return notFound("Course not found")
		}
	}

	ctx, done := telemetry.TimeOperation(c.UserContext(), "payments.create_subscription")
	processed, err := h.payments.CreateSubscription(ctx, payments.SubscriptionRequest{
		UserID:          userID,
		CourseID:        req.CourseID,
		PlanType:        req.PlanType,
		PaymentMethodID: req.PaymentMethodID,
		CustomerID:      req.CustomerID,
	})
	if err != nil {
		done("error")
		return paymentError(err, "create_subscription")
	}
	done("success")
	RecordPaymentRequest("create_subscription", "success")

	periodEnd := processed.CurrentPeriodEnd
	sub, err := h.store.CreateSubscription(ctx, &sdk.Subscription{
		UserID:           userID,
		CourseID:         req.CourseID,
		PlanType:         req.PlanType,
		Status:           processed.Status,
		CustomerID:       processed.CustomerID,
		CurrentPeriodEnd: &periodEnd,
	})
	if err != nil {
		return storeError(err, "Subscription")
	}
	sub.ClientSecret = processed.ClientSecret

	h.publish(ctx, queue.NewSubscriptionEvent(sub.UserID, sub.ID, sub.PlanType, sub.Status))

	return c.Status(fiber.StatusCreated).JSON(sub)
}
