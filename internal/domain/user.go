package domain

import "time"

type User struct {
	ID          string    `json:"uid"`
	Email       string    `json:"email,omitempty"`
	IsAnonymous bool      `json:"isAnonymous"`
	CreatedAt   time.Time `json:"createdAt"`
}
