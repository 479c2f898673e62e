package http

import (
	"net/http"

	"github.com/fjod/peixeshop/internal/domain"
	"github.com/fjod/peixeshop/internal/querycache"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type AdminHandler struct {
	catalog Catalog
	cache   CacheAdmin
	log     logrus.FieldLogger
}

func NewAdminHandler(catalog Catalog, cache CacheAdmin, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{
		catalog: catalog,
		cache:   cache,
		log:     log,
	}
}

type IDResponse struct {
	ID string `json:"id"`
}

type StockRequestDTO struct {
	Stock *int `json:"stock"`
}

type BatchProductsRequestDTO struct {
	Updates []domain.ProductUpdate `json:"updates"`
}

type BatchStockRequestDTO struct {
	Updates []domain.StockUpdate `json:"updates"`
}

type BatchResponse struct {
	Updated int `json:"updated"`
}

type CacheResponse struct {
	querycache.Stats
	TTLSeconds float64 `json:"ttlSeconds"`
}

type CategoriesResponse struct {
	Categories []domain.CategoryStats `json:"categories"`
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.DashboardStats(r.Context())
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalog.Categories(r.Context())
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, CategoriesResponse{Categories: cats})
}

func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input domain.ProductInput
	if !decodeJSON(w, r, &input) {
		return
	}

	id, err := h.catalog.CreateProduct(r.Context(), input)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, IDResponse{ID: id})
}

func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var input domain.ProductInput
	if !decodeJSON(w, r, &input) {
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.catalog.UpdateProduct(r.Context(), id, input); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, IDResponse{ID: id})
}

func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	var req StockRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Stock == nil {
		respondError(w, http.StatusBadRequest, "invalid_stock", "stock is required")
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.catalog.UpdateStock(r.Context(), id, *req.Stock); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, IDResponse{ID: id})
}

func (h *AdminHandler) BatchUpdateProducts(w http.ResponseWriter, r *http.Request) {
	var req BatchProductsRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.catalog.BatchUpdateProducts(r.Context(), req.Updates); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, BatchResponse{Updated: len(req.Updates)})
}

func (h *AdminHandler) BatchUpdateStock(w http.ResponseWriter, r *http.Request) {
	var req BatchStockRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.catalog.BatchUpdateStock(r.Context(), req.Updates); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, BatchResponse{Updated: len(req.Updates)})
}

func (h *AdminHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, CacheResponse{
		Stats:      h.cache.Stats(),
		TTLSeconds: h.cache.TTL().Seconds(),
	})
}

func (h *AdminHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.cache.InvalidateAll()
	h.log.WithField("request_id", middleware.GetReqID(r.Context())).Info("query cache invalidated by admin")
	w.WriteHeader(http.StatusNoContent)
}
