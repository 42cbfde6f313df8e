package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an author account. Authentication is bearer-token based; the
// stored bcrypt hash is only consulted at login.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	DisplayName  string    `json:"displayName"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserRef is the compact author shape embedded in post responses.
type UserRef struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
}

// Ref returns the compact reference form of the user.
func (u *User) Ref() *UserRef {
	return &UserRef{ID: u.ID, DisplayName: u.DisplayName, Email: u.Email}
}
