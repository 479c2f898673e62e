package http

import (
	"net/http"

	"github.com/fjod/peixeshop/internal/domain"
	"github.com/fjod/peixeshop/internal/session"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	accounts Accounts
	sessions *session.Manager
	log      logrus.FieldLogger
}

func NewAuthHandler(accounts Accounts, sessions *session.Manager, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		sessions: sessions,
		log:      log,
	}
}

type CredentialsDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	*domain.User
	IsAdmin bool `json:"isAdmin"`
}

func (h *AuthHandler) SignInAnonymous(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.SignInAnonymous(r.Context())
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	h.attach(w, r, http.StatusOK, user)
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req CredentialsDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.accounts.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	h.attach(w, r, http.StatusCreated, user)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req CredentialsDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.accounts.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	h.attach(w, r, http.StatusOK, user)
}

// SignOut detaches the user from the session. The cart stays.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SetUser(r.Context(), sessionID(r.Context()), ""); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	respondJSON(w, http.StatusOK, UserResponse{User: user, IsAdmin: h.accounts.IsAdmin(user)})
}

func (h *AuthHandler) attach(w http.ResponseWriter, r *http.Request, status int, user *domain.User) {
	if err := h.sessions.SetUser(r.Context(), sessionID(r.Context()), user.ID); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"user_id":   user.ID,
		"anonymous": user.IsAnonymous,
	}).Info("user signed in")

	respondJSON(w, status, UserResponse{User: user, IsAdmin: h.accounts.IsAdmin(user)})
}
