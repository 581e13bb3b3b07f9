package api

import "time"

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID string `json:"user_id"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// RequestEmailVerificationRequest is empty: the user comes from the bearer
// token.
type RequestEmailVerificationRequest struct{}

type RequestEmailVerificationResponse struct {
	Status string `json:"status"`
}

type ConfirmEmailVerificationRequest struct {
	Code string `json:"code"`
}

type ConfirmEmailVerificationResponse struct {
	Status string `json:"status"`
}

type ValidateTokenRequest struct {
	Token string `json:"token"`
}

type ValidateTokenResponse struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type ChangePasswordResponse struct{}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

// Status strings returned by the verification calls.
const (
	StatusAccepted = "accepted"
	StatusVerified = "verified"
	StatusOK       = "OK"
)
