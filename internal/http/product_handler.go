package http

import (
	"net/http"

	"github.com/fjod/peixeshop/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type ProductHandler struct {
	catalog Catalog
	log     logrus.FieldLogger
}

func NewProductHandler(catalog Catalog, log logrus.FieldLogger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		log:     log,
	}
}

type ProductsResponse struct {
	Products []domain.Product `json:"products"`
}

// List returns all products, or one category when ?category= is set.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		products []domain.Product
		err      error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		products, err = h.catalog.GetProductsByCategory(r.Context(), category)
	} else {
		products, err = h.catalog.GetProducts(r.Context())
	}
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, ProductsResponse{Products: products})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}
