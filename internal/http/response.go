package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/peixeshop/internal/auth"
	"github.com/fjod/peixeshop/internal/cart"
	"github.com/fjod/peixeshop/internal/domain"
	"github.com/fjod/peixeshop/internal/service"
	"github.com/fjod/peixeshop/internal/session"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

const maxRequestBodySize = 1 << 20 // 1MB

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Warn("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// handleError maps domain errors to HTTP status codes. Anything unknown is
// logged and reported as an internal error without details.
func handleError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	var status int
	var code string

	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidMoney),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidProduct):
		status, code = http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, cart.ErrQuantityTooLarge),
		errors.Is(err, cart.ErrTotalOverflow):
		status, code = http.StatusBadRequest, "quantity_limit"
	case errors.Is(err, service.ErrInvalidCustomer):
		status, code = http.StatusBadRequest, "invalid_customer"
	case errors.Is(err, auth.ErrInvalidEmail):
		status, code = http.StatusBadRequest, "invalid_email"
	case errors.Is(err, auth.ErrWeakPassword):
		status, code = http.StatusBadRequest, "weak_password"
	case errors.Is(err, auth.ErrPasswordTooLong):
		status, code = http.StatusBadRequest, "password_too_long"
	case errors.Is(err, auth.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, auth.ErrEmailTaken):
		status, code = http.StatusConflict, "already_exists"
	case errors.Is(err, service.ErrEmptyCart):
		status, code = http.StatusUnprocessableEntity, "empty_cart"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, session.ErrSessionNotFound):
		status, code = http.StatusBadRequest, "invalid_session"
	default:
		log.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"path":       r.URL.Path,
		}).Error("request failed")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Details: err.Error(),
	})
}
