package review

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bupechanda/shopline-backend/internal/modules/auth"
)

// Handler exposes review HTTP endpoints. Reading is public, writing requires
// a session.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/api/v1/products/{productID}/reviews", h.listByProduct)
	r.Get("/api/v1/products/{productID}/reviews/summary", h.summary)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/api/v1/products/{productID}/reviews", h.create)
		r.Delete("/api/v1/reviews/{id}", h.delete)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rev, err := h.service.Create(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "productID"), req)
	if err != nil {
		code := http.StatusBadRequest
		switch {
		case strings.Contains(err.Error(), "already reviewed"):
			code = http.StatusConflict
		case strings.Contains(err.Error(), "not found"):
			code = http.StatusNotFound
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, rev)
}

func (h *Handler) listByProduct(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListByProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, reviews)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Summarize(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, s)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), auth.UserID(r.Context()))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
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
