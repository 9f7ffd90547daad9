package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StripeConfig carries the credentials for the Stripe adapter, sourced from
// configuration at process start.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Mode          string // sandbox | live
}

// stripeSignatureTolerance bounds how old a webhook timestamp may be before
// the delivery is treated as a replay.
const stripeSignatureTolerance = 5 * time.Minute

type stripeGateway struct {
	cfg StripeConfig
}

// NewStripeGateway creates the Stripe adapter.
func NewStripeGateway(cfg StripeConfig) Gateway {
	return &stripeGateway{cfg: cfg}
}

func (g *stripeGateway) Create(ctx context.Context, intent CreateIntent) Result {
	if intent.Amount.LessThanOrEqual(decimal.Zero) {
		return failure("amount must be greater than 0")
	}
	if g.cfg.SecretKey == "" {
		return failure("stripe secret key is not configured")
	}

	// ── PRODUCTION INTEGRATION POINT ──────────────────────────────────────────
	// POST https://api.stripe.com/v1/payment_intents
	//   amount (minor units), currency, metadata[order_id], metadata[payment_id]
	// Store the returned id as the intent id and hand the client_secret back
	// to the caller for client-side confirmation.
	// ──────────────────────────────────────────────────────────────────────────

	intentID := fmt.Sprintf("pi_%s%04d", time.Now().Format("20060102150405"), rand.Intn(10000))
	return Result{
		Success:  true,
		IntentID: intentID,
		Status:   StatusPending,
		Details: map[string]interface{}{
			"client_secret": fmt.Sprintf("%s_secret_%04d", intentID, rand.Intn(10000)),
			"mode":          g.cfg.Mode,
		},
	}
}

func (g *stripeGateway) Capture(ctx context.Context, intentID string, payload map[string]interface{}) Result {
	if intentID == "" {
		return failure("no payment intent to capture")
	}

	// ── PRODUCTION INTEGRATION POINT ──────────────────────────────────────────
	// POST https://api.stripe.com/v1/payment_intents/{id}/capture
	// Map the returned latest_charge to the transaction id.
	// ──────────────────────────────────────────────────────────────────────────

	return Result{
		Success:       true,
		IntentID:      intentID,
		TransactionID: fmt.Sprintf("ch_%s%04d", time.Now().Format("20060102150405"), rand.Intn(10000)),
		Status:        StatusSucceeded,
	}
}

func (g *stripeGateway) Refund(ctx context.Context, transactionID string, amount *decimal.Decimal) Result {
	if transactionID == "" {
		return failure("no transaction to refund")
	}

	// ── PRODUCTION INTEGRATION POINT ──────────────────────────────────────────
	// POST https://api.stripe.com/v1/refunds  charge=<id> [amount=<minor units>]
	// Omitting amount refunds the full charge.
	// ──────────────────────────────────────────────────────────────────────────

	status := StatusRefunded
	details := map[string]interface{}{
		"refund_id": fmt.Sprintf("re_%s%04d", time.Now().Format("20060102150405"), rand.Intn(10000)),
	}
	if amount != nil {
		status = StatusPartiallyRefunded
		details["refund_amount"] = amount.String()
	}
	return Result{Success: true, TransactionID: transactionID, Status: status, Details: details}
}

// VerifyWebhook checks the Stripe-Signature header: "t=<unix>,v1=<hex hmac>".
// The signed payload is "<t>.<body>", keyed with the webhook secret. Stale
// timestamps are rejected to block replays.
func (g *stripeGateway) VerifyWebhook(payload []byte, signature string) bool {
	if g.cfg.WebhookSecret == "" || signature == "" {
		return false
	}

	var timestamp string
	var candidates []string
	for _, part := range strings.Split(signature, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			timestamp = v
		case "v1":
			candidates = append(candidates, v)
		}
	}
	if timestamp == "" || len(candidates) == 0 {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	age := time.Since(time.Unix(ts, 0))
	if age > stripeSignatureTolerance || age < -stripeSignatureTolerance {
		return false
	}

	mac := hmac.New(sha256.New, []byte(g.cfg.WebhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, candidate := range candidates {
		if hmac.Equal([]byte(expected), []byte(candidate)) {
			return true
		}
	}
	return false
}
