// Package auth stores accounts and checks credentials.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/fjod/peixeshop/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	// MaxPasswordLength is the bcrypt input limit, in bytes.
	MaxPasswordLength = 72
)

var (
	ErrEmailTaken         = errors.New("email already in use")
	ErrWeakPassword       = errors.New("password must have at least 6 characters")
	ErrPasswordTooLong    = errors.New("password must have at most 72 bytes")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type Service struct {
	repo   UserRepository
	admins map[string]struct{}
	cost   int
	now    func() time.Time
}

// NewService builds the auth service. adminEmails lists the accounts allowed
// into the admin area; matching ignores case.
func NewService(repo UserRepository, adminEmails []string) *Service {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			admins[e] = struct{}{}
		}
	}
	return &Service{
		repo:   repo,
		admins: admins,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

func (s *Service) SignInAnonymous(ctx context.Context) (*domain.User, error) {
	user := &domain.User{
		ID:          uuid.NewString(),
		IsAnonymous: true,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, user, ""); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) SignUp(ctx context.Context, email, password string) (*domain.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	if len(password) > MaxPasswordLength {
		return nil, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, ErrPasswordTooLong
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, user, string(hash)); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, hash, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) User(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

// IsAdmin reports whether user may use the admin area. Anonymous users never can.
func (s *Service) IsAdmin(user *domain.User) bool {
	if user == nil || user.IsAnonymous || user.Email == "" {
		return false
	}
	_, ok := s.admins[strings.ToLower(user.Email)]
	return ok
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
