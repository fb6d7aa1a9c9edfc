package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Dasieloski/dasieloski-store/internal/cart"
	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

type addCartItemRequest struct {
	ProductID string `json:"productId"`
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := s.carts.Get(r.Context(), sessionID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart.NewView(c))
}

func (s *Server) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	productID := strings.TrimSpace(req.ProductID)
	if productID == "" {
		s.writeError(w, r, domain.NewValidationError("productId", "is required"))
		return
	}

	c, err := s.carts.Add(r.Context(), sessionID(r), productID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cart.NewView(c))
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	c, err := s.carts.Remove(r.Context(), sessionID(r), chi.URLParam(r, "productId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart.NewView(c))
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := s.carts.Clear(r.Context(), sessionID(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart.NewView(domain.Cart{}))
}
