package http

import (
	"net/http"

	"github.com/fjod/peixeshop/internal/domain"
	"github.com/fjod/peixeshop/internal/session"
	"github.com/sirupsen/logrus"
)

type CheckoutHandler struct {
	checkout Checkout
	sessions *session.Manager
	log      logrus.FieldLogger
}

func NewCheckoutHandler(checkout Checkout, sessions *session.Manager, log logrus.FieldLogger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		sessions: sessions,
		log:      log,
	}
}

type CheckoutRequestDTO struct {
	Customer domain.Customer `json:"customerInfo"`
}

func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	sid := sessionID(ctx)
	c, err := h.sessions.Get(ctx, sid)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	order, err := h.checkout.Checkout(ctx, currentUser(ctx).ID, c, req.Customer)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	// the order exists; a failed save only leaves a stale persisted cart
	if err := h.sessions.Save(ctx, sid); err != nil {
		h.log.WithError(err).WithField("order_id", order.ID).Warn("failed to save session after checkout")
	}

	respondJSON(w, http.StatusCreated, order)
}
