package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole distinguishes the two audiences of the platform
type UserRole string

const (
	RoleParent   UserRole = "parent"
	RoleAdvocate UserRole = "advocate"
)

// User represents a user entity
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize password hash
	Name         string    `json:"name"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
