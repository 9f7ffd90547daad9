package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Provider represents a supported payment network.
type Provider string

const (
	ProviderStripe       Provider = "STRIPE"
	ProviderPayPal       Provider = "PAYPAL"
	ProviderCreditCard   Provider = "CREDIT_CARD"
	ProviderBankTransfer Provider = "BANK_TRANSFER"
)

// Status represents the internal lifecycle of a payment attempt.
type Status string

const (
	StatusPending           Status = "PENDING"
	StatusProcessing        Status = "PROCESSING"
	StatusSucceeded         Status = "SUCCEEDED"
	StatusFailed            Status = "FAILED"
	StatusRefunded          Status = "REFUNDED"
	StatusPartiallyRefunded Status = "PARTIALLY_REFUNDED"
	StatusCancelled         Status = "CANCELLED"
)

// Payment is one attempt to settle an order. An order may accumulate several
// FAILED attempts from retries, but at most one non-refunded SUCCEEDED record.
type Payment struct {
	ID       uuid.UUID `json:"id"`
	OrderID  uuid.UUID `json:"order_id"`
	Provider Provider  `json:"provider"`
	Status   Status    `json:"status"`

	// Amount is fixed at creation and must equal the order total exactly.
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	RefundedAmount decimal.Decimal `json:"refunded_amount"`

	// TransactionID is the provider's settled-transaction reference;
	// IntentID is the provider-side handle created before authorization.
	TransactionID string                 `json:"transaction_id,omitempty"`
	IntentID      string                 `json:"intent_id,omitempty"`
	Details       map[string]interface{} `json:"details,omitempty"`
	ErrorMessage  string                 `json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ── Request/Response DTOs ─────────────────────────────────────────────────────

// CreatePaymentRequest is the payload to initiate a payment against an order.
type CreatePaymentRequest struct {
	OrderID  string            `json:"order_id"`
	Amount   decimal.Decimal   `json:"amount"`
	Provider string            `json:"provider"` // STRIPE | PAYPAL | CREDIT_CARD | BANK_TRANSFER
	Details  map[string]string `json:"details,omitempty"`
}

// FinalizeRequest carries the client-confirmed provider payload.
type FinalizeRequest struct {
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// RefundRequest requests a refund; a nil amount means a full refund.
type RefundRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

// WebhookAck is the response body for webhook deliveries. Verified-but-
// unhandled events still acknowledge success so providers stop retrying.
type WebhookAck struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ── Gateway result ────────────────────────────────────────────────────────────

// Result is the soft-fail outcome of any gateway call. Adapters never return
// Go errors across this boundary; provider and network failures become a
// Result with Success=false and a descriptive message.
type Result struct {
	Success       bool                   `json:"success"`
	TransactionID string                 `json:"transaction_id,omitempty"`
	IntentID      string                 `json:"intent_id,omitempty"`
	Status        Status                 `json:"status"`
	Details       map[string]interface{} `json:"details,omitempty"`
	ErrorMessage  string                 `json:"error_message,omitempty"`
}

// CreateIntent is the gateway-facing input for opening a payment intent.
type CreateIntent struct {
	Amount   decimal.Decimal
	Currency string
	Metadata map[string]string
}
