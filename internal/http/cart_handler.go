package http

import (
	"net/http"

	"github.com/fjod/peixeshop/internal/cart"
	"github.com/fjod/peixeshop/internal/domain"
	"github.com/fjod/peixeshop/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type CartHandler struct {
	catalog  Catalog
	sessions *session.Manager
	log      logrus.FieldLogger
}

func NewCartHandler(catalog Catalog, sessions *session.Manager, log logrus.FieldLogger) *CartHandler {
	return &CartHandler{
		catalog:  catalog,
		sessions: sessions,
		log:      log,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.sessions.Get(r.Context(), sessionID(r.Context()))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(c.Snapshot()))
}

// AddItem adds a catalog product to the cart. Name and price come from the
// catalog, never from the request. Quantity defaults to 1.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	product, err := h.catalog.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	h.mutate(w, r, http.StatusCreated, func(c *cart.Store) error {
		return c.AddItem(*product, quantity)
	})
}

// UpdateQuantity sets the quantity of a line; zero or less removes it.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	productID := chi.URLParam(r, "product_id")

	h.mutate(w, r, http.StatusOK, func(c *cart.Store) error {
		return c.SetQuantity(productID, req.Quantity)
	})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")

	h.mutate(w, r, http.StatusOK, func(c *cart.Store) error {
		c.RemoveItem(productID)
		return nil
	})
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, http.StatusOK, func(c *cart.Store) error {
		c.Clear()
		return nil
	})
}

// mutate applies fn to the session cart, persists the session and responds
// with the new cart snapshot.
func (h *CartHandler) mutate(w http.ResponseWriter, r *http.Request, status int, fn func(*cart.Store) error) {
	ctx := r.Context()
	sid := sessionID(ctx)

	c, err := h.sessions.Get(ctx, sid)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if err := fn(c); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if err := h.sessions.Save(ctx, sid); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, status, cartResponse(c.Snapshot()))
}

func cartResponse(s domain.CartSnapshot) domain.CartSnapshot {
	if s.Items == nil {
		s.Items = []domain.LineItem{}
	}
	return s
}
