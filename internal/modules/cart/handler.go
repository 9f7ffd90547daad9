package cart

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bupechanda/shopline-backend/internal/modules/auth"
)

// Handler exposes cart HTTP endpoints. All routes require authentication.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.get)
		r.Post("/items", h.addItem)
		r.Put("/items/{product_id}", h.updateItem)
		r.Delete("/items/{product_id}", h.removeItem)
		r.Delete("/", h.clear)
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCart(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, c)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	c, err := h.service.AddItem(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		code := http.StatusInternalServerError
		if strings.Contains(err.Error(), "required") || strings.Contains(err.Error(), "must be") {
			code = http.StatusBadRequest
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, c)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	c, err := h.service.UpdateItem(r.Context(), auth.UserID(r.Context()),
		chi.URLParam(r, "product_id"), r.URL.Query().Get("variant_id"), req.Quantity)
	if err != nil {
		code := http.StatusInternalServerError
		if strings.Contains(err.Error(), "not in the cart") {
			code = http.StatusNotFound
		} else if strings.Contains(err.Error(), "cannot be") {
			code = http.StatusBadRequest
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, c)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.RemoveItem(r.Context(), auth.UserID(r.Context()),
		chi.URLParam(r, "product_id"), r.URL.Query().Get("variant_id"))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, c)
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), auth.UserID(r.Context())); err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
