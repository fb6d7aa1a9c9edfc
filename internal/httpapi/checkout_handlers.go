package httpapi

import (
	"net/http"

	"github.com/Dasieloski/dasieloski-store/internal/cart"
	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

func (s *Server) previewCheckout(w http.ResponseWriter, r *http.Request) {
	view, err := s.checkout.Preview(r.Context(), sessionID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// placeOrder отвечает ссылкой на чат; с ?redirect=1 сразу перенаправляет на неё.
func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	var customer domain.Customer
	if !decodeJSON(w, r, &customer) {
		return
	}

	result, err := s.checkout.PlaceOrder(r.Context(), sessionID(r), customer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if wantsRedirect(r) {
		http.Redirect(w, r, result.Link.URL, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{
		URL:     result.Link.URL,
		Message: result.Message,
		Cart:    result.Cart,
	})
}

type orderResponse struct {
	URL     string    `json:"url"`
	Message string    `json:"message"`
	Cart    cart.View `json:"cart"`
}

func wantsRedirect(r *http.Request) bool {
	switch r.URL.Query().Get("redirect") {
	case "1", "true":
		return true
	default:
		return false
	}
}
