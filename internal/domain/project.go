package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Project
var (
	ErrProjectIDEmpty    = errors.New("project ID cannot be empty")
	ErrProjectNameEmpty  = errors.New("project name cannot be empty")
	ErrProjectOwnerEmpty = errors.New("project owner ID cannot be empty")
)

// Project represents a container of tasks with a member roster.
type Project struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code,omitempty"`
	Description string    `json:"description,omitempty"`
	OwnerID     uuid.UUID `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks if the Project has valid data.
func (p *Project) Validate() error {
	if p.ID == uuid.Nil {
		return ErrProjectIDEmpty
	}

	if p.Name == "" {
		return ErrProjectNameEmpty
	}

	if p.OwnerID == uuid.Nil {
		return ErrProjectOwnerEmpty
	}

	return nil
}

// ProjectMember links a user to a project with a role.
type ProjectMember struct {
	ProjectID uuid.UUID `json:"project_id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	AddedAt   time.Time `json:"added_at"`
}
