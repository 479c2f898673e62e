package http

import (
	"net/http"
	"strconv"

	"github.com/fjod/peixeshop/internal/domain"
	"github.com/sirupsen/logrus"
)

type OrdersHandler struct {
	orders Orders
	log    logrus.FieldLogger
}

func NewOrdersHandler(orders Orders, log logrus.FieldLogger) *OrdersHandler {
	return &OrdersHandler{
		orders: orders,
		log:    log,
	}
}

type OrdersResponse struct {
	Orders []domain.Order `json:"orders"`
}

// List returns the signed-in user's newest orders. ?limit= is optional.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	orders, err := h.orders.GetUserOrders(r.Context(), currentUser(r.Context()).ID, limit)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, OrdersResponse{Orders: orders})
}
