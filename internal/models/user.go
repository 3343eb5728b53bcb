package models

import (
	"time"

	"github.com/google/uuid"
)

// Role описывает роль пользователя
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// User представляет зарегистрированного пользователя
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// RegisterRequest описывает запрос на регистрацию
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest описывает запрос на вход
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest описывает частичное обновление профиля
type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// AuthResult возвращается после успешного входа или регистрации
type AuthResult struct {
	User      *User     `json:"user"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
}
