package user

import (
	"time"

	"github.com/dimasfr/learnmarket/core/claims"
)

type User struct {
	ID           string      `json:"id" db:"user_id"`
	Name         string      `json:"name" db:"name"`
	Email        string      `json:"email" db:"email"`
	Role         claims.Role `json:"role" db:"role"`
	PasswordHash []byte      `json:"-" db:"password_hash"`
	Active       bool        `json:"active" db:"active"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time   `json:"updatedAt" db:"updated_at"`
	Version      int         `json:"-" db:"version"`
}

type UserNew struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Role            string `json:"role" validate:"required,oneof=student teacher admin"`
	Password        string `json:"password" validate:"required,gte=8,lte=50"`
	PasswordConfirm string `json:"passwordConfirm" validate:"eqfield=Password"`
}

type UserSignup struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,gte=8,lte=50"`
	PasswordConfirm string `json:"passwordConfirm" validate:"eqfield=Password"`
}

// RoleUp is the administrative role change. It is the only way a role
// moves after signup.
type RoleUp struct {
	Role string `json:"role" validate:"required,oneof=student teacher admin"`
}
