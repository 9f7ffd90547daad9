package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bupechanda/shopline-backend/internal/modules/auth"
)

// Handler exposes order HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/checkout", h.checkout)
		r.Get("/", h.listMine)
		r.Get("/{id}", h.getByID)
		r.Post("/{id}/cancel", h.cancel)
		r.Put("/{id}/status", h.updateStatus)
	})
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	o, err := h.service.Checkout(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		code := http.StatusInternalServerError
		msg := err.Error()
		switch {
		case strings.Contains(msg, "required"), strings.Contains(msg, "empty"),
			strings.Contains(msg, "invalid"), strings.Contains(msg, "coupon"):
			code = http.StatusBadRequest
		case strings.Contains(msg, "stock"), strings.Contains(msg, "available"):
			code = http.StatusConflict
		case strings.Contains(msg, "not found"):
			code = http.StatusNotFound
		}
		respond(w, code, map[string]string{"error": msg})
		return
	}
	respond(w, http.StatusCreated, o)
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListUserOrders(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) getByID(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.FindOne(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	err := h.service.Cancel(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, ErrNotFound) {
			code = http.StatusNotFound
		} else if strings.Contains(err.Error(), "can be cancelled") {
			code = http.StatusUnprocessableEntity
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	o, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, ErrNotFound) {
			code = http.StatusNotFound
		} else if strings.Contains(err.Error(), "cannot transition") {
			code = http.StatusUnprocessableEntity
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, o)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
