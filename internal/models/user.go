package models

import "time"

// User represents a user in the local auth system
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"` // Argon2id hash, never exposed in API
	Name          string    `json:"name"`
	Timezone      string    `json:"timezone"`
	BirthDate     *string   `json:"birth_date,omitempty"`
	BirthTime     *string   `json:"birth_time,omitempty"`
	BirthLocation *string   `json:"birth_location,omitempty"`
	Role          string    `json:"role"` // "admin" or "user"
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email         string  `json:"email"`
	Password      string  `json:"password"`
	Name          string  `json:"name"`
	Timezone      string  `json:"timezone,omitempty"`
	BirthDate     *string `json:"birth_date,omitempty"`
	BirthTime     *string `json:"birth_time,omitempty"`
	BirthLocation *string `json:"birth_location,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse is returned after a successful register, login or refresh.
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	User         *User  `json:"user"`
	ExpiresIn    int    `json:"expires_in"` // seconds
}
