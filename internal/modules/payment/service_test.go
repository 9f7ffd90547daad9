package payment

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bupechanda/shopline-backend/internal/modules/order"
)

// ── fakes ─────────────────────────────────────────────────────────────────────

type fakeRepo struct {
	mu       sync.Mutex
	payments map[string]*Payment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{payments: map[string]*Payment{}}
}

func (r *fakeRepo) Create(_ context.Context, p *Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.payments[p.ID.String()] = &cp
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) GetByIntentID(_ context.Context, provider Provider, intentID string) (*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.Provider == provider && p.IntentID == intentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) ListByOrder(_ context.Context, orderID string) ([]*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*Payment{}
	for _, p := range r.payments {
		if p.OrderID.String() == orderID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateResult(_ context.Context, id string, res Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.payments[id]
	p.Status = res.Status
	if res.TransactionID != "" {
		p.TransactionID = res.TransactionID
	}
	if res.IntentID != "" {
		p.IntentID = res.IntentID
	}
	if res.Details != nil {
		p.Details = res.Details
	}
	p.ErrorMessage = res.ErrorMessage
	p.UpdatedAt = time.Now()
	return nil
}

func (r *fakeRepo) TransitionStatus(_ context.Context, id string, from []Status, to Status, transactionID, errorMessage string, details map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok || !statusIn(p.Status, from) {
		return false, nil
	}
	p.Status = to
	if transactionID != "" {
		p.TransactionID = transactionID
	}
	if details != nil {
		p.Details = details
	}
	p.ErrorMessage = errorMessage
	p.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeRepo) RecordRefund(_ context.Context, id string, from []Status, to Status, refunded decimal.Decimal, details map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok || !statusIn(p.Status, from) {
		return false, nil
	}
	p.Status = to
	p.RefundedAmount = refunded
	if details != nil {
		p.Details = details
	}
	p.UpdatedAt = time.Now()
	return true, nil
}

func statusIn(s Status, set []Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

type fakeGateway struct {
	createResult  Result
	captureResult Result
	refundResult  Result
	verifyOK      bool

	createCalls []CreateIntent
	refundCalls int
}

func (g *fakeGateway) Create(_ context.Context, intent CreateIntent) Result {
	g.createCalls = append(g.createCalls, intent)
	return g.createResult
}
func (g *fakeGateway) Capture(context.Context, string, map[string]interface{}) Result {
	return g.captureResult
}
func (g *fakeGateway) Refund(context.Context, string, *decimal.Decimal) Result {
	g.refundCalls++
	return g.refundResult
}
func (g *fakeGateway) VerifyWebhook([]byte, string) bool { return g.verifyOK }

type fakeOrders struct {
	orders      map[string]*order.Order
	paidCalls   []string
	statusCalls []string
}

func newFakeOrders(o *order.Order) *fakeOrders {
	return &fakeOrders{orders: map[string]*order.Order{o.ID.String(): o}}
}

func (f *fakeOrders) FindOne(_ context.Context, id string) (*order.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrders) UpdatePaymentStatus(_ context.Context, id string, isPaid bool) (*order.Order, error) {
	o := f.orders[id]
	o.Paid = isPaid
	f.paidCalls = append(f.paidCalls, id)
	return o, nil
}

func (f *fakeOrders) UpdateOrderStatus(_ context.Context, id string, statusToken string) (*order.Order, error) {
	o := f.orders[id]
	o.Status = order.Status(statusToken)
	f.statusCalls = append(f.statusCalls, statusToken)
	return o, nil
}

// ── fixtures ──────────────────────────────────────────────────────────────────

func testOrder(total string) *order.Order {
	return &order.Order{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Status:   order.StatusPending,
		Total:    decimal.RequireFromString(total),
		Currency: "USD",
	}
}

func seedPayment(t *testing.T, repo *fakeRepo, orderID uuid.UUID, status Status, amount string) *Payment {
	t.Helper()
	p := &Payment{
		ID:             uuid.New(),
		OrderID:        orderID,
		Provider:       ProviderBankTransfer,
		Status:         status,
		Amount:         decimal.RequireFromString(amount),
		Currency:       "USD",
		RefundedAmount: decimal.Zero,
		IntentID:       "BT-REF-001",
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

// ── Create ────────────────────────────────────────────────────────────────────

func TestCreateRejectsAmountMismatch(t *testing.T) {
	ord := testOrder("100.00")
	svc := NewService(newFakeRepo(), Registry{}, newFakeOrders(ord))

	_, err := svc.Create(context.Background(), CreatePaymentRequest{
		OrderID:  ord.ID.String(),
		Amount:   decimal.RequireFromString("99.99"),
		Provider: "STRIPE",
	})
	assert.ErrorIs(t, err, ErrAmountMismatch)
}

func TestCreateRejectsUnknownOrder(t *testing.T) {
	svc := NewService(newFakeRepo(), Registry{}, newFakeOrders(testOrder("10.00")))

	_, err := svc.Create(context.Background(), CreatePaymentRequest{
		OrderID:  uuid.NewString(),
		Amount:   decimal.RequireFromString("10.00"),
		Provider: "STRIPE",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRejectsUnsupportedProvider(t *testing.T) {
	ord := testOrder("10.00")
	svc := NewService(newFakeRepo(), Registry{}, newFakeOrders(ord))

	_, err := svc.Create(context.Background(), CreatePaymentRequest{
		OrderID:  ord.ID.String(),
		Amount:   ord.Total,
		Provider: "CRYPTO",
	})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestCreateRejectsAlreadyPaidOrder(t *testing.T) {
	ord := testOrder("10.00")
	ord.Paid = true
	svc := NewService(newFakeRepo(), Registry{}, newFakeOrders(ord))

	_, err := svc.Create(context.Background(), CreatePaymentRequest{
		OrderID:  ord.ID.String(),
		Amount:   ord.Total,
		Provider: "STRIPE",
	})
	assert.ErrorIs(t, err, ErrOrderAlreadyPaid)
}

func TestCreatePersistsGatewayResult(t *testing.T) {
	ord := testOrder("49.50")
	gw := &fakeGateway{createResult: Result{
		Success:  true,
		IntentID: "pi_test_123",
		Status:   StatusPending,
		Details:  map[string]interface{}{"client_secret": "cs_test"},
	}}
	svc := NewService(newFakeRepo(), Registry{ProviderStripe: gw}, newFakeOrders(ord))

	p, err := svc.Create(context.Background(), CreatePaymentRequest{
		OrderID:  ord.ID.String(),
		Amount:   ord.Total,
		Provider: "stripe", // case-insensitive
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, "pi_test_123", p.IntentID)
	assert.Equal(t, ord.Currency, p.Currency)
	assert.True(t, p.Amount.Equal(ord.Total))
}

func TestCreateInvokesGatewayOnceWithOrderContext(t *testing.T) {
	ord := testOrder("59.97")
	gw := &fakeGateway{createResult: Result{Success: true, IntentID: "pi_1", Status: StatusPending}}
	svc := NewService(newFakeRepo(), Registry{ProviderStripe: gw}, newFakeOrders(ord))

	p, err := svc.Create(context.Background(), CreatePaymentRequest{
		OrderID:  ord.ID.String(),
		Amount:   decimal.RequireFromString("59.97"),
		Provider: "STRIPE",
		Details:  map[string]string{"payment_method": "pm_card"},
	})
	require.NoError(t, err)

	require.Len(t, gw.createCalls, 1)
	call := gw.createCalls[0]
	assert.True(t, call.Amount.Equal(decimal.RequireFromString("59.97")))
	assert.Equal(t, "USD", call.Currency)
	assert.Equal(t, ord.ID.String(), call.Metadata["order_id"])
	assert.Equal(t, p.ID.String(), call.Metadata["payment_id"])
	assert.Equal(t, "pm_card", call.Metadata["payment_method"])
}

func TestCreateRecordsProviderFailureWithoutError(t *testing.T) {
	ord := testOrder("20.00")
	gw := &fakeGateway{createResult: Result{
		Success:      false,
		Status:       StatusFailed,
		ErrorMessage: "card network unavailable",
	}}
	svc := NewService(newFakeRepo(), Registry{ProviderStripe: gw}, newFakeOrders(ord))

	p, err := svc.Create(context.Background(), CreatePaymentRequest{
		OrderID:  ord.ID.String(),
		Amount:   ord.Total,
		Provider: "STRIPE",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, p.Status)
	assert.Equal(t, "card network unavailable", p.ErrorMessage)
}

// ── Finalize ──────────────────────────────────────────────────────────────────

func TestFinalizeSuccessMarksOrderPaid(t *testing.T) {
	ord := testOrder("30.00")
	orders := newFakeOrders(ord)
	repo := newFakeRepo()
	p := seedPayment(t, repo, ord.ID, StatusPending, "30.00")

	gw := &fakeGateway{captureResult: Result{
		Success:       true,
		Status:        StatusSucceeded,
		TransactionID: "tx_final_1",
	}}
	svc := NewService(repo, Registry{ProviderBankTransfer: gw}, orders)

	got, err := svc.Finalize(context.Background(), p.ID.String(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, got.Status)
	assert.Equal(t, "tx_final_1", got.TransactionID)
	assert.Equal(t, []string{ord.ID.String()}, orders.paidCalls)
}

func TestFinalizePersistsCaptureDetails(t *testing.T) {
	ord := testOrder("30.00")
	repo := newFakeRepo()
	p := seedPayment(t, repo, ord.ID, StatusPending, "30.00")

	gw := &fakeGateway{captureResult: Result{
		Success:       true,
		Status:        StatusSucceeded,
		TransactionID: "tx_1",
		Details:       map[string]interface{}{"receipt_url": "https://pay.example/r/1"},
	}}
	svc := NewService(repo, Registry{ProviderBankTransfer: gw}, newFakeOrders(ord))

	got, err := svc.Finalize(context.Background(), p.ID.String(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, got.Status)
	assert.Equal(t, "https://pay.example/r/1", got.Details["receipt_url"])
}

func TestFinalizeFailureDoesNotTouchOrder(t *testing.T) {
	ord := testOrder("30.00")
	orders := newFakeOrders(ord)
	repo := newFakeRepo()
	p := seedPayment(t, repo, ord.ID, StatusPending, "30.00")

	gw := &fakeGateway{captureResult: Result{Success: false, Status: StatusFailed, ErrorMessage: "declined"}}
	svc := NewService(repo, Registry{ProviderBankTransfer: gw}, orders)

	got, err := svc.Finalize(context.Background(), p.ID.String(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "declined", got.ErrorMessage)
	assert.Empty(t, orders.paidCalls)
}

func TestFinalizeCannotDowngradeSettledPayment(t *testing.T) {
	ord := testOrder("30.00")
	orders := newFakeOrders(ord)
	repo := newFakeRepo()
	p := seedPayment(t, repo, ord.ID, StatusSucceeded, "30.00")

	gw := &fakeGateway{captureResult: Result{Success: false, Status: StatusFailed, ErrorMessage: "stale"}}
	svc := NewService(repo, Registry{ProviderBankTransfer: gw}, orders)

	got, err := svc.Finalize(context.Background(), p.ID.String(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, got.Status)
}

// ── Refund ────────────────────────────────────────────────────────────────────

func TestRefundRequiresSucceededPayment(t *testing.T) {
	ord := testOrder("30.00")
	repo := newFakeRepo()
	p := seedPayment(t, repo, ord.ID, StatusPending, "30.00")

	gw := &fakeGateway{refundResult: Result{Success: true, Status: StatusRefunded}}
	svc := NewService(repo, Registry{ProviderBankTransfer: gw}, newFakeOrders(ord))

	_, err := svc.Refund(context.Background(), p.ID.String(), nil)
	assert.ErrorIs(t, err, ErrNotRefundable)
	assert.Zero(t, gw.refundCalls)
}

func TestFullRefundMarksOrderRefunded(t *testing.T) {
	ord := testOrder("30.00")
	orders := newFakeOrders(ord)
	repo := newFakeRepo()
	p := seedPayment(t, repo, ord.ID, StatusSucceeded, "30.00")

	gw := &fakeGateway{refundResult: Result{Success: true, Status: StatusRefunded}}
	svc := NewService(repo, Registry{ProviderBankTransfer: gw}, orders)

	got, err := svc.Refund(context.Background(), p.ID.String(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, got.Status)
	assert.True(t, got.RefundedAmount.Equal(got.Amount))
	assert.Equal(t, []string{string(order.StatusRefunded)}, orders.statusCalls)
}

func TestPartialRefundLeavesOrderAlone(t *testing.T) {
	ord := testOrder("30.00")
	orders := newFakeOrders(ord)
	repo := newFakeRepo()
	p := seedPayment(t, repo, ord.ID, StatusSucceeded, "30.00")

	gw := &fakeGateway{refundResult: Result{Success: true, Status: StatusPartiallyRefunded}}
	svc := NewService(repo, Registry{ProviderBankTransfer: gw}, orders)

	amount := decimal.RequireFromString("10.00")
	got, err := svc.Refund(context.Background(), p.ID.String(), &amount)
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyRefunded, got.Status)
	assert.True(t, got.RefundedAmount.Equal(amount))
	assert.Empty(t, orders.statusCalls)
}

func TestRefundRejectsOutOfRangeAmount(t *testing.T) {
	ord := testOrder("30.00")
	repo := newFakeRepo()
	p := seedPayment(t, repo, ord.ID, StatusSucceeded, "30.00")
	svc := NewService(repo, Registry{ProviderBankTransfer: &fakeGateway{}}, newFakeOrders(ord))

	over := decimal.RequireFromString("30.01")
	_, err := svc.Refund(context.Background(), p.ID.String(), &over)
	assert.ErrorIs(t, err, ErrNotRefundable)
}

// ── Webhooks ──────────────────────────────────────────────────────────────────

func bankEvent(t *testing.T, event, paymentID string, extra map[string]string) []byte {
	t.Helper()
	m := map[string]string{"event": event, "payment_id": paymentID}
	for k, v := range extra {
		m[k] = v
	}
	b, err := json.Marshal(m)
	require.NoError(t, err)
	return b
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc := NewService(newFakeRepo(), Registry{ProviderBankTransfer: &fakeGateway{verifyOK: false}}, newFakeOrders(testOrder("1.00")))

	_, err := svc.ProcessWebhook(context.Background(), ProviderBankTransfer, []byte(`{}`), "bogus")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestWebhookUnknownEventIsAcknowledged(t *testing.T) {
	svc := NewService(newFakeRepo(), Registry{ProviderBankTransfer: &fakeGateway{verifyOK: true}}, newFakeOrders(testOrder("1.00")))

	ack, err := svc.ProcessWebhook(context.Background(), ProviderBankTransfer,
		[]byte(`{"event":"transfer.created"}`), "sig")
	require.NoError(t, err)
	assert.True(t, ack.Success)
}

func TestWebhookUnknownPaymentIsAcknowledged(t *testing.T) {
	svc := NewService(newFakeRepo(), Registry{ProviderBankTransfer: &fakeGateway{verifyOK: true}}, newFakeOrders(testOrder("1.00")))

	ack, err := svc.ProcessWebhook(context.Background(), ProviderBankTransfer,
		bankEvent(t, "transfer.confirmed", uuid.NewString(), nil), "sig")
	require.NoError(t, err)
	assert.True(t, ack.Success)
}

func TestWebhookSuccessSettlesPaymentOnce(t *testing.T) {
	ord := testOrder("30.00")
	orders := newFakeOrders(ord)
	repo := newFakeRepo()
	p := seedPayment(t, repo, ord.ID, StatusPending, "30.00")
	svc := NewService(repo, Registry{ProviderBankTransfer: &fakeGateway{verifyOK: true}}, orders)

	payload := bankEvent(t, "transfer.confirmed", p.ID.String(), map[string]string{"transaction_id": "tx_bank_1"})

	ack, err := svc.ProcessWebhook(context.Background(), ProviderBankTransfer, payload, "sig")
	require.NoError(t, err)
	assert.True(t, ack.Success)

	// Duplicate delivery is acknowledged without a second order update.
	ack, err = svc.ProcessWebhook(context.Background(), ProviderBankTransfer, payload, "sig")
	require.NoError(t, err)
	assert.True(t, ack.Success)

	got, err := repo.GetByID(context.Background(), p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, got.Status)
	assert.Equal(t, "tx_bank_1", got.TransactionID)
	assert.Len(t, orders.paidCalls, 1)
}

func TestWebhookFailureDoesNotOverrideSuccess(t *testing.T) {
	ord := testOrder("30.00")
	repo := newFakeRepo()
	p := seedPayment(t, repo, ord.ID, StatusSucceeded, "30.00")
	svc := NewService(repo, Registry{ProviderBankTransfer: &fakeGateway{verifyOK: true}}, newFakeOrders(ord))

	ack, err := svc.ProcessWebhook(context.Background(), ProviderBankTransfer,
		bankEvent(t, "transfer.failed", p.ID.String(), map[string]string{"reason": "returned"}), "sig")
	require.NoError(t, err)
	assert.True(t, ack.Success)

	got, err := repo.GetByID(context.Background(), p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, got.Status)
}

func TestRefundWebhookIsIdempotent(t *testing.T) {
	ord := testOrder("30.00")
	orders := newFakeOrders(ord)
	repo := newFakeRepo()
	p := seedPayment(t, repo, ord.ID, StatusSucceeded, "30.00")
	svc := NewService(repo, Registry{ProviderBankTransfer: &fakeGateway{verifyOK: true}}, orders)

	payload := bankEvent(t, "transfer.refunded", p.ID.String(), map[string]string{"amount": "30.00"})

	for i := 0; i < 2; i++ {
		ack, err := svc.ProcessWebhook(context.Background(), ProviderBankTransfer, payload, "sig")
		require.NoError(t, err)
		assert.True(t, ack.Success)
	}

	got, err := repo.GetByID(context.Background(), p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, got.Status)
	assert.True(t, got.RefundedAmount.Equal(got.Amount))
	assert.Len(t, orders.statusCalls, 1)
}

func TestRefundWebhookPartialThenFull(t *testing.T) {
	ord := testOrder("30.00")
	orders := newFakeOrders(ord)
	repo := newFakeRepo()
	p := seedPayment(t, repo, ord.ID, StatusSucceeded, "30.00")
	svc := NewService(repo, Registry{ProviderBankTransfer: &fakeGateway{verifyOK: true}}, orders)

	// Cumulative totals: 10.00 then 30.00.
	_, err := svc.ProcessWebhook(context.Background(), ProviderBankTransfer,
		bankEvent(t, "transfer.refunded", p.ID.String(), map[string]string{"amount": "10.00"}), "sig")
	require.NoError(t, err)

	got, _ := repo.GetByID(context.Background(), p.ID.String())
	assert.Equal(t, StatusPartiallyRefunded, got.Status)
	assert.Empty(t, orders.statusCalls)

	_, err = svc.ProcessWebhook(context.Background(), ProviderBankTransfer,
		bankEvent(t, "transfer.refunded", p.ID.String(), map[string]string{"amount": "30.00"}), "sig")
	require.NoError(t, err)

	got, _ = repo.GetByID(context.Background(), p.ID.String())
	assert.Equal(t, StatusRefunded, got.Status)
	assert.Equal(t, []string{string(order.StatusRefunded)}, orders.statusCalls)
}
