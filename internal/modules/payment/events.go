package payment

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

type eventKind int

const (
	eventUnknown eventKind = iota
	eventSucceeded
	eventFailed
	eventRefunded
)

// webhookEvent is the provider-neutral shape events are normalized into
// before dispatch.
type webhookEvent struct {
	eventType     string
	kind          eventKind
	correlationID string
	transactionID string
	refunded      decimal.Decimal
	errorMessage  string
}

func parseEvent(provider Provider, payload []byte) (*webhookEvent, error) {
	switch provider {
	case ProviderStripe:
		return parseStripeEvent(payload)
	case ProviderPayPal:
		return parsePayPalEvent(payload)
	case ProviderBankTransfer:
		return parseBankTransferEvent(payload)
	default:
		return nil, fmt.Errorf("%w: %s has no webhook channel", ErrUnsupportedProvider, provider)
	}
}

// ── Stripe ────────────────────────────────────────────────────────────────────
// Stripe events correlate by payment intent id. Amounts arrive in the
// currency's minor unit.

func parseStripeEvent(payload []byte) (*webhookEvent, error) {
	var env struct {
		Type string `json:"type"`
		Data struct {
			Object map[string]interface{} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, err
	}

	evt := &webhookEvent{eventType: env.Type}
	obj := env.Data.Object

	switch env.Type {
	case "payment_intent.succeeded":
		evt.kind = eventSucceeded
		evt.correlationID = str(obj["id"])
		evt.transactionID = str(obj["latest_charge"])
	case "payment_intent.payment_failed":
		evt.kind = eventFailed
		evt.correlationID = str(obj["id"])
		if lpe, ok := obj["last_payment_error"].(map[string]interface{}); ok {
			evt.errorMessage = str(lpe["message"])
		}
		if evt.errorMessage == "" {
			evt.errorMessage = "payment failed at provider"
		}
	case "charge.refunded":
		evt.kind = eventRefunded
		evt.correlationID = str(obj["payment_intent"])
		evt.transactionID = str(obj["id"])
		// amount_refunded is the cumulative total, in minor units.
		if cents, ok := obj["amount_refunded"].(float64); ok {
			evt.refunded = decimal.NewFromInt(int64(cents)).Div(decimal.NewFromInt(100))
		}
	}
	return evt, nil
}

// ── PayPal ────────────────────────────────────────────────────────────────────
// PayPal captures carry our payment id in custom_id, set when the checkout
// order was created.

func parsePayPalEvent(payload []byte) (*webhookEvent, error) {
	var env struct {
		EventType string                 `json:"event_type"`
		Resource  map[string]interface{} `json:"resource"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, err
	}

	evt := &webhookEvent{eventType: env.EventType}
	res := env.Resource

	switch env.EventType {
	case "PAYMENT.CAPTURE.COMPLETED":
		evt.kind = eventSucceeded
		evt.correlationID = str(res["custom_id"])
		evt.transactionID = str(res["id"])
	case "PAYMENT.CAPTURE.DENIED":
		evt.kind = eventFailed
		evt.correlationID = str(res["custom_id"])
		if sd, ok := res["status_details"].(map[string]interface{}); ok {
			evt.errorMessage = str(sd["reason"])
		}
		if evt.errorMessage == "" {
			evt.errorMessage = "capture denied"
		}
	case "PAYMENT.CAPTURE.REFUNDED":
		evt.kind = eventRefunded
		evt.correlationID = str(res["custom_id"])
		evt.transactionID = str(res["id"])
		evt.refunded = paypalRefundedTotal(res)
	}
	return evt, nil
}

// paypalRefundedTotal prefers the cumulative total_refunded_amount from the
// seller breakdown; older sandbox payloads only carry this refund's amount.
func paypalRefundedTotal(res map[string]interface{}) decimal.Decimal {
	if spb, ok := res["seller_payable_breakdown"].(map[string]interface{}); ok {
		if tra, ok := spb["total_refunded_amount"].(map[string]interface{}); ok {
			if d, err := decimal.NewFromString(str(tra["value"])); err == nil {
				return d
			}
		}
	}
	if amt, ok := res["amount"].(map[string]interface{}); ok {
		if d, err := decimal.NewFromString(str(amt["value"])); err == nil {
			return d
		}
	}
	return decimal.Zero
}

// ── Bank transfer ─────────────────────────────────────────────────────────────
// Back-office confirmations carry our payment id directly.

func parseBankTransferEvent(payload []byte) (*webhookEvent, error) {
	var env struct {
		Event         string `json:"event"`
		PaymentID     string `json:"payment_id"`
		TransactionID string `json:"transaction_id"`
		Amount        string `json:"amount"`
		Reason        string `json:"reason"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, err
	}

	evt := &webhookEvent{eventType: env.Event, correlationID: env.PaymentID}

	switch env.Event {
	case "transfer.confirmed":
		evt.kind = eventSucceeded
		evt.transactionID = env.TransactionID
	case "transfer.failed":
		evt.kind = eventFailed
		evt.errorMessage = env.Reason
		if evt.errorMessage == "" {
			evt.errorMessage = "transfer failed"
		}
	case "transfer.refunded":
		evt.kind = eventRefunded
		evt.transactionID = env.TransactionID
		if d, err := decimal.NewFromString(env.Amount); err == nil {
			evt.refunded = d
		}
	}
	return evt, nil
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}
