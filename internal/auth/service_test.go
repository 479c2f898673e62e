package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/fjod/peixeshop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T, admins ...string) *Service {
	t.Helper()
	svc := NewService(setupSQLite(t), admins)
	svc.cost = bcrypt.MinCost
	return svc
}

func TestSignUpAndSignIn(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.SignUp(ctx, "  Ana@Example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.False(t, user.IsAnonymous)

	got, err := svc.SignIn(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.SignIn(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignIn(ctx, "bob@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignUp(ctx, "ANA@example.com", "another")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignUp_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"short password", "ana@example.com", "12345", ErrWeakPassword},
		{"password over the bcrypt limit", "ana@example.com", strings.Repeat("a", MaxPasswordLength+1), ErrPasswordTooLong},
		{"multibyte password over the limit", "ana@example.com", strings.Repeat("ç", 40), ErrPasswordTooLong},
		{"missing at", "ana.example.com", "secret1", ErrInvalidEmail},
		{"display name form", "Ana <ana@example.com>", "secret1", ErrInvalidEmail},
		{"empty", "", "secret1", ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignUp(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := svc.SignUp(ctx, "ana@example.com", strings.Repeat("a", MaxPasswordLength))
	assert.NoError(t, err, "exactly at the limit is accepted")
}

func TestSignInAnonymous(t *testing.T) {
	svc := newTestService(t, "ana@example.com")
	ctx := context.Background()

	a, err := svc.SignInAnonymous(ctx)
	require.NoError(t, err)
	b, err := svc.SignInAnonymous(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, a.IsAnonymous)
	assert.False(t, svc.IsAdmin(a))

	stored, err := svc.User(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsAnonymous)
}

func TestIsAdmin(t *testing.T) {
	svc := newTestService(t, " Admin@PeixesFrescos.com ", "")

	assert.True(t, svc.IsAdmin(&domain.User{Email: "admin@peixesfrescos.com"}))
	assert.True(t, svc.IsAdmin(&domain.User{Email: "ADMIN@peixesfrescos.com"}))
	assert.False(t, svc.IsAdmin(&domain.User{Email: "ana@example.com"}))
	assert.False(t, svc.IsAdmin(&domain.User{Email: "admin@peixesfrescos.com", IsAnonymous: true}))
	assert.False(t, svc.IsAdmin(&domain.User{}))
	assert.False(t, svc.IsAdmin(nil))
}
