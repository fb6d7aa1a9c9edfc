package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dasieloski/dasieloski-store/internal/catalog"
	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.catalog.ListCategories(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) storefrontCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.catalog.StorefrontCategories(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	category, err := s.catalog.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var in catalog.CategoryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	category, err := s.catalog.CreateCategory(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	var in catalog.CategoryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	category, err := s.catalog.UpdateCategory(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// deleteCategory отвечает удалённой категорией.
func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	category, err := s.catalog.GetCategory(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.catalog.DeleteCategory(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	products, err := s.catalog.ListProducts(r.Context(), domain.ProductFilter{
		CategoryID: query.Get("category"),
		Search:     query.Get("q"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := s.catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}
	product, err := s.catalog.CreateProduct(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}
	product, err := s.catalog.UpdateProduct(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Producto eliminado correctamente."})
}

func (s *Server) listCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := s.catalog.ListCurrencies(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, currencies)
}

func (s *Server) createCurrency(w http.ResponseWriter, r *http.Request) {
	var in catalog.CurrencyInput
	if !decodeJSON(w, r, &in) {
		return
	}
	currency, err := s.catalog.CreateCurrency(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, currency)
}

func (s *Server) updateCurrency(w http.ResponseWriter, r *http.Request) {
	var in catalog.CurrencyInput
	if !decodeJSON(w, r, &in) {
		return
	}
	currency, err := s.catalog.UpdateCurrency(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, currency)
}

func (s *Server) setDefaultCurrency(w http.ResponseWriter, r *http.Request) {
	currency, err := s.catalog.SetDefaultCurrency(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, currency)
}

func (s *Server) deleteCurrency(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteCurrency(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Moneda eliminada correctamente."})
}
