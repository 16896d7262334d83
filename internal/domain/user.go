package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account that can author comments, be assigned tasks
// and receive notifications. Display name doubles as the mention key.
type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	Role           string    `json:"role"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
