// Package session keeps per-visitor state: the cart and the signed-in user.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/peixeshop/internal/domain"
)

var ErrSessionNotFound = errors.New("session not found")

// Record is the persisted form of a session.
type Record struct {
	UserID    string            `json:"user_id,omitempty"`
	Items     []domain.LineItem `json:"items"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type Store interface {
	Load(ctx context.Context, id string) (*Record, error)
	Save(ctx context.Context, id string, record *Record) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
