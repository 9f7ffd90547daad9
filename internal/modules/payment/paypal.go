package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"hash/crc32"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PayPalConfig carries the credentials for the PayPal adapter.
type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	WebhookID    string
	Mode         string // sandbox | live
}

type paypalGateway struct {
	cfg PayPalConfig
}

// NewPayPalGateway creates the PayPal adapter.
func NewPayPalGateway(cfg PayPalConfig) Gateway {
	return &paypalGateway{cfg: cfg}
}

func (g *paypalGateway) approvalBase() string {
	if g.cfg.Mode == "live" {
		return "https://www.paypal.com/checkoutnow"
	}
	return "https://www.sandbox.paypal.com/checkoutnow"
}

func (g *paypalGateway) Create(ctx context.Context, intent CreateIntent) Result {
	if intent.Amount.LessThanOrEqual(decimal.Zero) {
		return failure("amount must be greater than 0")
	}
	if g.cfg.ClientID == "" || g.cfg.ClientSecret == "" {
		return failure("paypal credentials are not configured")
	}

	// ── PRODUCTION INTEGRATION POINT ──────────────────────────────────────────
	// 1. POST /v1/oauth2/token with the client-credentials grant
	// 2. POST /v2/checkout/orders: intent CAPTURE, purchase_units with
	//    amount and custom_id carrying our payment id for webhook correlation
	// 3. Return the order id and the "approve" HATEOAS link
	// ──────────────────────────────────────────────────────────────────────────

	orderID := fmt.Sprintf("PP-%s%04d", time.Now().Format("20060102150405"), rand.Intn(10000))
	return Result{
		Success:  true,
		IntentID: orderID,
		Status:   StatusPending,
		Details: map[string]interface{}{
			"approval_url": fmt.Sprintf("%s?token=%s", g.approvalBase(), orderID),
			"custom_id":    intent.Metadata["payment_id"],
		},
	}
}

func (g *paypalGateway) Capture(ctx context.Context, intentID string, payload map[string]interface{}) Result {
	if intentID == "" {
		return failure("no paypal order to capture")
	}

	// ── PRODUCTION INTEGRATION POINT ──────────────────────────────────────────
	// POST /v2/checkout/orders/{id}/capture
	// The capture id inside purchase_units[].payments.captures[] becomes the
	// transaction id.
	// ──────────────────────────────────────────────────────────────────────────

	return Result{
		Success:       true,
		IntentID:      intentID,
		TransactionID: fmt.Sprintf("CAP-%s%04d", time.Now().Format("20060102150405"), rand.Intn(10000)),
		Status:        StatusSucceeded,
	}
}

func (g *paypalGateway) Refund(ctx context.Context, transactionID string, amount *decimal.Decimal) Result {
	if transactionID == "" {
		return failure("no capture to refund")
	}

	// ── PRODUCTION INTEGRATION POINT ──────────────────────────────────────────
	// POST /v2/payments/captures/{id}/refund: body {amount} for partial,
	// empty body for full.
	// ──────────────────────────────────────────────────────────────────────────

	status := StatusRefunded
	details := map[string]interface{}{
		"refund_id": fmt.Sprintf("REF-%s%04d", time.Now().Format("20060102150405"), rand.Intn(10000)),
	}
	if amount != nil {
		status = StatusPartiallyRefunded
		details["refund_amount"] = amount.String()
	}
	return Result{Success: true, TransactionID: transactionID, Status: status, Details: details}
}

// VerifyWebhook checks a transmission signature of the form
// "t=<transmission time>,id=<transmission id>,sig=<base64 hmac>". The signed
// message is "<transmission id>|<transmission time>|<webhook id>|<crc32 of
// body>", keyed with the client secret.
//
// Production deployments should prefer PayPal's
// /v1/notifications/verify-webhook-signature endpoint, which validates the
// transmission against PayPal's certificate chain.
func (g *paypalGateway) VerifyWebhook(payload []byte, signature string) bool {
	if g.cfg.ClientSecret == "" || g.cfg.WebhookID == "" || signature == "" {
		return false
	}

	var transmissionTime, transmissionID, sig string
	for _, part := range strings.Split(signature, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			transmissionTime = v
		case "id":
			transmissionID = v
		case "sig":
			sig = v
		}
	}
	if transmissionTime == "" || transmissionID == "" || sig == "" {
		return false
	}

	message := fmt.Sprintf("%s|%s|%s|%d",
		transmissionID, transmissionTime, g.cfg.WebhookID, crc32.ChecksumIEEE(payload))

	mac := hmac.New(sha256.New, []byte(g.cfg.ClientSecret))
	mac.Write([]byte(message))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(sig))
}
