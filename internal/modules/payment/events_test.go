package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStripeEvents(t *testing.T) {
	evt, err := parseStripeEvent([]byte(`{
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_123", "latest_charge": "ch_456"}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, eventSucceeded, evt.kind)
	assert.Equal(t, "pi_123", evt.correlationID)
	assert.Equal(t, "ch_456", evt.transactionID)

	evt, err = parseStripeEvent([]byte(`{
		"type": "payment_intent.payment_failed",
		"data": {"object": {"id": "pi_123", "last_payment_error": {"message": "card declined"}}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, eventFailed, evt.kind)
	assert.Equal(t, "card declined", evt.errorMessage)

	// amount_refunded arrives in minor units.
	evt, err = parseStripeEvent([]byte(`{
		"type": "charge.refunded",
		"data": {"object": {"id": "ch_456", "payment_intent": "pi_123", "amount_refunded": 1550}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, eventRefunded, evt.kind)
	assert.Equal(t, "pi_123", evt.correlationID)
	assert.Equal(t, "15.5", evt.refunded.String())

	evt, err = parseStripeEvent([]byte(`{"type": "customer.created", "data": {"object": {}}}`))
	require.NoError(t, err)
	assert.Equal(t, eventUnknown, evt.kind)
}

func TestParsePayPalEvents(t *testing.T) {
	evt, err := parsePayPalEvent([]byte(`{
		"event_type": "PAYMENT.CAPTURE.COMPLETED",
		"resource": {"id": "CAP-1", "custom_id": "pay-uuid"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, eventSucceeded, evt.kind)
	assert.Equal(t, "pay-uuid", evt.correlationID)
	assert.Equal(t, "CAP-1", evt.transactionID)

	evt, err = parsePayPalEvent([]byte(`{
		"event_type": "PAYMENT.CAPTURE.REFUNDED",
		"resource": {
			"id": "REF-1",
			"custom_id": "pay-uuid",
			"amount": {"value": "5.00"},
			"seller_payable_breakdown": {"total_refunded_amount": {"value": "12.00"}}
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, eventRefunded, evt.kind)
	assert.Equal(t, "12", evt.refunded.String())

	// Without the breakdown, the event amount is used.
	evt, err = parsePayPalEvent([]byte(`{
		"event_type": "PAYMENT.CAPTURE.REFUNDED",
		"resource": {"id": "REF-1", "custom_id": "pay-uuid", "amount": {"value": "5.00"}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "5", evt.refunded.String())

	evt, err = parsePayPalEvent([]byte(`{
		"event_type": "PAYMENT.CAPTURE.DENIED",
		"resource": {"custom_id": "pay-uuid", "status_details": {"reason": "RISK_DECLINE"}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, eventFailed, evt.kind)
	assert.Equal(t, "RISK_DECLINE", evt.errorMessage)
}

func TestParseEventRejectsMalformedPayload(t *testing.T) {
	_, err := parseStripeEvent([]byte(`not json`))
	assert.Error(t, err)

	_, err = parseEvent(ProviderCreditCard, []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}
