package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Handler exposes payment and webhook HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.create)
		r.Get("/{id}", h.getByID)
		r.Get("/order/{orderID}", h.listByOrder)
		r.Post("/{id}/finalize", h.finalize)
		r.Post("/{id}/refund", h.refund)
	})

	// Webhooks are authenticated by signature, not by session.
	r.Post("/api/v1/webhooks/{provider}", h.webhook)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	p, err := h.service.Create(r.Context(), req)
	if err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	// A provider-side failure still yields 201: the attempt record exists and
	// carries status FAILED with the provider's message.
	respond(w, http.StatusCreated, p)
}

func (h *Handler) getByID(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) listByOrder(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.ListByOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, payments)
}

func (h *Handler) finalize(w http.ResponseWriter, r *http.Request) {
	var req FinalizeRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	p, err := h.service.Finalize(r.Context(), chi.URLParam(r, "id"), req.Payload)
	if err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) refund(w http.ResponseWriter, r *http.Request) {
	var req RefundRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	p, err := h.service.Refund(r.Context(), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	provider := Provider(strings.ToUpper(chi.URLParam(r, "provider")))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "failed to read body"})
		return
	}

	ack, err := h.service.ProcessWebhook(r.Context(), provider, body, signatureHeader(provider, r))
	if err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, ack)
}

// signatureHeader extracts the provider's signature material. PayPal spreads
// it over three headers, which are folded into the adapter's single-string
// format here.
func signatureHeader(provider Provider, r *http.Request) string {
	switch provider {
	case ProviderStripe:
		return r.Header.Get("Stripe-Signature")
	case ProviderPayPal:
		return fmt.Sprintf("t=%s,id=%s,sig=%s",
			r.Header.Get("Paypal-Transmission-Time"),
			r.Header.Get("Paypal-Transmission-Id"),
			r.Header.Get("Paypal-Transmission-Sig"))
	default:
		return r.Header.Get("X-Webhook-Signature")
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnsupportedProvider), errors.Is(err, ErrAmountMismatch),
		errors.Is(err, ErrOrderAlreadyPaid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotRefundable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
