package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository defines data access for payment records.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id string) (*Payment, error)
	// GetByIntentID resolves the record a provider webhook refers to.
	GetByIntentID(ctx context.Context, provider Provider, intentID string) (*Payment, error)
	ListByOrder(ctx context.Context, orderID string) ([]*Payment, error)

	// UpdateResult merges a gateway result (status, ids, details, error) into
	// the record unconditionally. Used on the synchronous create path where
	// no competing writer exists yet.
	UpdateResult(ctx context.Context, id string, res Result) error

	// TransitionStatus applies the status change only while the record is
	// still in one of the expected prior states and reports whether the
	// update won. The finalize and webhook paths both go through this guard
	// so exactly one terminal transition takes effect. A non-nil details map
	// replaces the stored provider details.
	TransitionStatus(ctx context.Context, id string, from []Status, to Status, transactionID, errorMessage string, details map[string]interface{}) (bool, error)

	// RecordRefund sets the refund bookkeeping under the same conditional
	// guard; the refunded amount is written absolutely (not accumulated) so
	// replaying a refund event is harmless.
	RecordRefund(ctx context.Context, id string, from []Status, to Status, refunded decimal.Decimal, details map[string]interface{}) (bool, error)
}
