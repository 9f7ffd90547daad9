package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Gateway is the provider-agnostic interface every payment adapter must
// implement. All four operations soft-fail: they return a Result and never an
// error, so the orchestrator's persistence step cannot be skipped by a
// provider outage.
type Gateway interface {
	// Create opens a provider-side payment intent and returns PENDING with
	// whatever the client needs to complete authorization (a client secret,
	// an approval URL).
	Create(ctx context.Context, intent CreateIntent) Result

	// Capture exchanges a client-confirmed payload for a settled transaction.
	Capture(ctx context.Context, intentID string, payload map[string]interface{}) Result

	// Refund issues a refund against a captured transaction. A nil amount is
	// the sole signal for a full refund.
	Refund(ctx context.Context, transactionID string, amount *decimal.Decimal) Result

	// VerifyWebhook reports whether the payload's signature validates against
	// the configured secret. Any internal failure is a verification failure.
	VerifyWebhook(payload []byte, signature string) bool
}

// Registry maps providers to their Gateway implementations. The provider set
// is closed, so the registry is fixed at construction time.
type Registry map[Provider]Gateway

// failure builds the uniform soft-fail Result adapters return on any error.
func failure(msg string) Result {
	return Result{Success: false, Status: StatusFailed, ErrorMessage: msg}
}
