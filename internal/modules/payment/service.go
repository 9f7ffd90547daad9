package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bupechanda/shopline-backend/internal/modules/order"
)

// Sentinel errors for the orchestrator's failure taxonomy. Handlers map these
// to HTTP codes with errors.Is; everything else is an internal failure.
var (
	ErrNotFound            = errors.New("payment not found")
	ErrUnsupportedProvider = errors.New("unsupported payment provider")
	ErrAmountMismatch      = errors.New("amount does not match order total")
	ErrOrderAlreadyPaid    = errors.New("order is already paid")
	ErrNotRefundable       = errors.New("only succeeded payments can be refunded")
	ErrInvalidSignature    = errors.New("webhook signature verification failed")
)

// OrderSync is the narrow order-module surface the orchestrator mutates order
// state through. Payment code never touches order fields directly.
type OrderSync interface {
	FindOne(ctx context.Context, id string) (*order.Order, error)
	UpdatePaymentStatus(ctx context.Context, id string, isPaid bool) (*order.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, statusToken string) (*order.Order, error)
}

// Service is the single entry point for initiating, finalizing and refunding
// payments, and for translating provider webhooks into state changes.
type Service interface {
	Create(ctx context.Context, req CreatePaymentRequest) (*Payment, error)
	Finalize(ctx context.Context, id string, payload map[string]interface{}) (*Payment, error)
	Refund(ctx context.Context, id string, amount *decimal.Decimal) (*Payment, error)
	ProcessWebhook(ctx context.Context, provider Provider, payload []byte, signature string) (*WebhookAck, error)
	GetByID(ctx context.Context, id string) (*Payment, error)
	ListByOrder(ctx context.Context, orderID string) ([]*Payment, error)
}

type service struct {
	repo     Repository
	gateways Registry
	orders   OrderSync
}

// NewService creates the payment orchestrator.
func NewService(repo Repository, gateways Registry, orders OrderSync) Service {
	return &service{repo: repo, gateways: gateways, orders: orders}
}

// settleableStates are the prior states from which a payment may still reach
// a terminal outcome. Both the finalize and webhook paths transition out of
// these conditionally, so concurrent writers cannot both win.
var settleableStates = []Status{StatusPending, StatusProcessing}

func (s *service) Create(ctx context.Context, req CreatePaymentRequest) (*Payment, error) {
	provider := Provider(strings.ToUpper(req.Provider))

	ord, err := s.orders.FindOne(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", req.OrderID, ErrNotFound)
	}
	if ord.Paid {
		return nil, ErrOrderAlreadyPaid
	}

	// Exact decimal equality; the orchestrator never recomputes totals.
	if !req.Amount.Equal(ord.Total) {
		return nil, fmt.Errorf("%w: got %s, order total is %s", ErrAmountMismatch, req.Amount, ord.Total)
	}

	gw, ok := s.gateways[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, req.Provider)
	}

	p := &Payment{
		ID:             uuid.New(),
		OrderID:        ord.ID,
		Provider:       provider,
		Status:         StatusPending,
		Amount:         req.Amount,
		Currency:       ord.Currency,
		RefundedAmount: decimal.Zero,
	}

	// Persist before the provider call so an SDK failure can never lose the
	// attempt record.
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to persist payment: %w", err)
	}

	metadata := map[string]string{
		"order_id":   ord.ID.String(),
		"payment_id": p.ID.String(),
	}
	for k, v := range req.Details {
		metadata[k] = v
	}

	res := gw.Create(ctx, CreateIntent{
		Amount:   req.Amount,
		Currency: ord.Currency,
		Metadata: metadata,
	})

	if err := s.repo.UpdateResult(ctx, p.ID.String(), res); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, p.ID.String())
}

func (s *service) Finalize(ctx context.Context, id string, payload map[string]interface{}) (*Payment, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	gw, ok := s.gateways[p.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, p.Provider)
	}

	res := gw.Capture(ctx, p.IntentID, payload)

	if res.Success && res.Status == StatusSucceeded {
		won, err := s.repo.TransitionStatus(ctx, id, settleableStates, StatusSucceeded, res.TransactionID, "", res.Details)
		if err != nil {
			return nil, err
		}
		if won {
			if _, err := s.orders.UpdatePaymentStatus(ctx, p.OrderID.String(), true); err != nil {
				return nil, fmt.Errorf("payment settled but order sync failed: %w", err)
			}
		} else {
			slog.Info("finalize skipped, payment already settled", "payment_id", id)
		}
	} else {
		// A concurrent webhook success must not be clobbered by a stale
		// failed capture, so the failure write is guarded too.
		if _, err := s.repo.TransitionStatus(ctx, id, settleableStates, StatusFailed, "", res.ErrorMessage, res.Details); err != nil {
			return nil, err
		}
	}

	return s.repo.GetByID(ctx, id)
}

func (s *service) Refund(ctx context.Context, id string, amount *decimal.Decimal) (*Payment, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Status != StatusSucceeded {
		return nil, fmt.Errorf("%w (current status: %s)", ErrNotRefundable, p.Status)
	}
	if amount != nil && (amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(p.Amount)) {
		return nil, fmt.Errorf("%w: refund amount %s is out of range", ErrNotRefundable, amount)
	}

	gw, ok := s.gateways[p.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, p.Provider)
	}

	// Captured transaction id, falling back to the intent handle for
	// providers that refund against the intent.
	ref := p.TransactionID
	if ref == "" {
		ref = p.IntentID
	}

	res := gw.Refund(ctx, ref, amount)
	if !res.Success {
		return nil, fmt.Errorf("provider refund failed: %s", res.ErrorMessage)
	}

	refunded := p.Amount
	if amount != nil {
		refunded = p.RefundedAmount.Add(*amount)
	}

	// Provider rounding can refund a cent extra; >= classifies that as full.
	to := StatusPartiallyRefunded
	if refunded.GreaterThanOrEqual(p.Amount) {
		to = StatusRefunded
	}

	won, err := s.repo.RecordRefund(ctx, id, []Status{StatusSucceeded}, to, refunded, res.Details)
	if err != nil {
		return nil, err
	}
	if won && to == StatusRefunded {
		if _, err := s.orders.UpdateOrderStatus(ctx, p.OrderID.String(), string(order.StatusRefunded)); err != nil {
			return nil, fmt.Errorf("refund recorded but order sync failed: %w", err)
		}
	}

	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByID(ctx context.Context, id string) (*Payment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListByOrder(ctx context.Context, orderID string) ([]*Payment, error) {
	return s.repo.ListByOrder(ctx, orderID)
}

// ── Webhook ingestion ─────────────────────────────────────────────────────────

func (s *service) ProcessWebhook(ctx context.Context, provider Provider, payload []byte, signature string) (*WebhookAck, error) {
	gw, ok := s.gateways[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}

	if !gw.VerifyWebhook(payload, signature) {
		return nil, ErrInvalidSignature
	}

	evt, err := parseEvent(provider, payload)
	if err != nil {
		return nil, fmt.Errorf("malformed webhook payload: %w", err)
	}

	switch evt.kind {
	case eventSucceeded:
		return s.handlePaymentSucceeded(ctx, provider, evt)
	case eventFailed:
		return s.handlePaymentFailed(ctx, provider, evt)
	case eventRefunded:
		return s.handleRefundProcessed(ctx, provider, evt)
	default:
		// Unrecognised event types are acknowledged so the provider stops
		// retrying; there is nothing to do for them.
		slog.Info("ignoring unhandled webhook event", "provider", provider, "event_type", evt.eventType)
		return &WebhookAck{Success: true, Message: fmt.Sprintf("ignored event %s", evt.eventType)}, nil
	}
}

func (s *service) handlePaymentSucceeded(ctx context.Context, provider Provider, evt *webhookEvent) (*WebhookAck, error) {
	p, ack := s.locate(ctx, provider, evt)
	if ack != nil {
		return ack, nil
	}

	won, err := s.repo.TransitionStatus(ctx, p.ID.String(), settleableStates, StatusSucceeded, evt.transactionID, "", nil)
	if err != nil {
		return nil, err
	}
	if !won {
		// Duplicate delivery or the synchronous path settled first.
		slog.Info("duplicate success webhook ignored", "payment_id", p.ID, "status", p.Status)
		return &WebhookAck{Success: true, Message: "already processed"}, nil
	}

	if _, err := s.orders.UpdatePaymentStatus(ctx, p.OrderID.String(), true); err != nil {
		return nil, fmt.Errorf("payment settled but order sync failed: %w", err)
	}
	return &WebhookAck{Success: true, Message: "payment succeeded"}, nil
}

func (s *service) handlePaymentFailed(ctx context.Context, provider Provider, evt *webhookEvent) (*WebhookAck, error) {
	p, ack := s.locate(ctx, provider, evt)
	if ack != nil {
		return ack, nil
	}

	// A failed payment does not revert a still-pending order; only the
	// payment record carries the provider's error.
	won, err := s.repo.TransitionStatus(ctx, p.ID.String(), settleableStates, StatusFailed, "", evt.errorMessage, nil)
	if err != nil {
		return nil, err
	}
	if !won {
		slog.Info("failure webhook ignored, payment already settled", "payment_id", p.ID)
		return &WebhookAck{Success: true, Message: "already processed"}, nil
	}
	return &WebhookAck{Success: true, Message: "payment failed"}, nil
}

func (s *service) handleRefundProcessed(ctx context.Context, provider Provider, evt *webhookEvent) (*WebhookAck, error) {
	p, ack := s.locate(ctx, provider, evt)
	if ack != nil {
		return ack, nil
	}

	// The event carries the provider's cumulative refunded total; writing it
	// absolutely keeps duplicate deliveries harmless.
	to := StatusPartiallyRefunded
	if evt.refunded.GreaterThanOrEqual(p.Amount) {
		to = StatusRefunded
	}

	won, err := s.repo.RecordRefund(ctx, p.ID.String(),
		[]Status{StatusSucceeded, StatusPartiallyRefunded}, to, evt.refunded,
		map[string]interface{}{"webhook_event": evt.eventType})
	if err != nil {
		return nil, err
	}
	if !won {
		slog.Info("duplicate refund webhook ignored", "payment_id", p.ID, "status", p.Status)
		return &WebhookAck{Success: true, Message: "already processed"}, nil
	}

	if to == StatusRefunded {
		if _, err := s.orders.UpdateOrderStatus(ctx, p.OrderID.String(), string(order.StatusRefunded)); err != nil {
			return nil, fmt.Errorf("refund recorded but order sync failed: %w", err)
		}
	}
	return &WebhookAck{Success: true, Message: "refund processed"}, nil
}

// locate resolves the payment a webhook event refers to. Stripe correlates by
// intent id; PayPal and bank transfers carry our payment id as a custom
// reference. A missing record yields a success ack, not an error: webhooks
// for unknown events must not trigger provider retry storms.
func (s *service) locate(ctx context.Context, provider Provider, evt *webhookEvent) (*Payment, *WebhookAck) {
	if evt.correlationID == "" {
		slog.Warn("webhook event missing correlation id", "provider", provider, "event_type", evt.eventType)
		return nil, &WebhookAck{Success: true, Message: "no correlation id"}
	}

	var p *Payment
	var err error
	switch provider {
	case ProviderStripe:
		p, err = s.repo.GetByIntentID(ctx, provider, evt.correlationID)
	default:
		p, err = s.repo.GetByID(ctx, evt.correlationID)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			slog.Warn("webhook for unknown payment ignored",
				"provider", provider, "event_type", evt.eventType, "correlation_id", evt.correlationID)
			return nil, &WebhookAck{Success: true, Message: "no matching payment"}
		}
		slog.Error("webhook payment lookup failed", "provider", provider, "error", err)
		return nil, &WebhookAck{Success: true, Message: "lookup failed"}
	}
	return p, nil
}
