// AngelaMos | 2026
// dto.go

package auth

import (
	"time"
)

type RegisterRequest struct {
	Email    string `json:"email"    validate:"omitempty,max=255"`
	Password string `json:"password" validate:"omitempty,max=128"`
	Name     string `json:"name"     validate:"omitempty,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"omitempty,max=255"`
	Password string `json:"password" validate:"omitempty,max=128"`
}

// OAuthLoginRequest accepts either an authorization code, a raw Google
// ID token, or a pre-verified profile payload from a trusted gateway.
type OAuthLoginRequest struct {
	Code           string `json:"code,omitempty"`
	IDToken        string `json:"id_token,omitempty"`
	Email          string `json:"email,omitempty"          validate:"omitempty,max=255"`
	Name           string `json:"name,omitempty"           validate:"omitempty,max=100"`
	Avatar         string `json:"avatar,omitempty"         validate:"omitempty,max=1024"`
	AccountType    string `json:"account_type,omitempty"   validate:"omitempty,oneof=email google"`
	GoogleID       string `json:"google_id,omitempty"`
	PreserveDBData string `json:"preserve_db_data,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" validate:"omitempty,max=128"`
}

// ClientInfo is what the boundary knows about the caller; both fields
// default to empty.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// UserResponse is the sanitized user representation; the password hash
// never leaves the service.
type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Role        string     `json:"role"`
	AccountType string     `json:"account_type"`
	Avatar      string     `json:"avatar"`
	IsActive    bool       `json:"is_active"`
	LastActive  *time.Time `json:"last_active,omitempty"`
}

type AuthResponse struct {
	User   UserResponse  `json:"user"`
	Tokens TokenResponse `json:"tokens"`
}

type RegisterResponse struct {
	Message string `json:"message"`
}

type SessionInfo struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}
