package wishlist

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bupechanda/shopline-backend/internal/modules/auth"
)

// Handler exposes wishlist HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/v1/wishlist", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.list)
		r.Get("/{productID}", h.contains)
		r.Post("/{productID}", h.add)
		r.Delete("/{productID}", h.remove)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.List(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"product_ids": ids})
}

func (h *Handler) contains(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	in, err := h.service.Contains(r.Context(), auth.UserID(r.Context()), productID)
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"product_id": productID, "in_wishlist": in})
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	err := h.service.Add(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "productID"))
	if err != nil {
		code := http.StatusInternalServerError
		if strings.Contains(err.Error(), "not found") {
			code = http.StatusNotFound
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Remove(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "productID")); err != nil {
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
