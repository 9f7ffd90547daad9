package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

// ── Credit Card Adapter ───────────────────────────────────────────────────────
// Cards collected directly (terminal or stored token) settle synchronously at
// capture time and have no webhook channel.

type creditCardGateway struct{}

// NewCreditCardGateway creates the direct card adapter.
func NewCreditCardGateway() Gateway {
	return &creditCardGateway{}
}

func (g *creditCardGateway) Create(ctx context.Context, intent CreateIntent) Result {
	if intent.Amount.LessThanOrEqual(decimal.Zero) {
		return failure("amount must be greater than 0")
	}
	return Result{
		Success:  true,
		IntentID: fmt.Sprintf("card_%s%04d", time.Now().Format("20060102150405"), rand.Intn(10000)),
		Status:   StatusProcessing,
		Details:  map[string]interface{}{"requires_confirmation": true},
	}
}

func (g *creditCardGateway) Capture(ctx context.Context, intentID string, payload map[string]interface{}) Result {
	if intentID == "" {
		return failure("no card authorization to capture")
	}
	return Result{
		Success:       true,
		IntentID:      intentID,
		TransactionID: fmt.Sprintf("cc_%s%04d", time.Now().Format("20060102150405"), rand.Intn(10000)),
		Status:        StatusSucceeded,
	}
}

func (g *creditCardGateway) Refund(ctx context.Context, transactionID string, amount *decimal.Decimal) Result {
	if transactionID == "" {
		return failure("no transaction to refund")
	}
	status := StatusRefunded
	if amount != nil {
		status = StatusPartiallyRefunded
	}
	return Result{Success: true, TransactionID: transactionID, Status: status}
}

// VerifyWebhook always fails: no webhook channel exists for direct cards.
func (g *creditCardGateway) VerifyWebhook(payload []byte, signature string) bool {
	return false
}

// ── Bank Transfer Adapter ─────────────────────────────────────────────────────
// Transfers stay PENDING until the back office confirms receipt via a signed
// webhook; there is nothing to capture client-side.

// BankTransferConfig carries the shared secret used to sign confirmation
// webhooks.
type BankTransferConfig struct {
	WebhookSecret string
}

type bankTransferGateway struct {
	cfg BankTransferConfig
}

// NewBankTransferGateway creates the bank transfer adapter.
func NewBankTransferGateway(cfg BankTransferConfig) Gateway {
	return &bankTransferGateway{cfg: cfg}
}

func (g *bankTransferGateway) Create(ctx context.Context, intent CreateIntent) Result {
	if intent.Amount.LessThanOrEqual(decimal.Zero) {
		return failure("amount must be greater than 0")
	}
	reference := fmt.Sprintf("BT-%s-%04d", time.Now().Format("20060102"), rand.Intn(10000))
	return Result{
		Success:  true,
		IntentID: reference,
		Status:   StatusPending,
		Details: map[string]interface{}{
			"reference":    reference,
			"instructions": "Include the reference in the transfer description. The order is confirmed once the transfer clears.",
		},
	}
}

// Capture soft-fails: transfers settle only through the confirmation webhook.
func (g *bankTransferGateway) Capture(ctx context.Context, intentID string, payload map[string]interface{}) Result {
	return failure("bank transfers settle via the confirmation webhook, not capture")
}

func (g *bankTransferGateway) Refund(ctx context.Context, transactionID string, amount *decimal.Decimal) Result {
	if transactionID == "" {
		return failure("no transfer to refund")
	}
	status := StatusRefunded
	if amount != nil {
		status = StatusPartiallyRefunded
	}
	return Result{
		Success:       true,
		TransactionID: transactionID,
		Status:        status,
		Details:       map[string]interface{}{"method": "manual_transfer"},
	}
}

// VerifyWebhook checks a plain hex HMAC-SHA256 of the body against the shared
// secret.
func (g *bankTransferGateway) VerifyWebhook(payload []byte, signature string) bool {
	if g.cfg.WebhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(g.cfg.WebhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
