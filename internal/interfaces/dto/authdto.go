// Package dto defines the request and response shapes of the HTTP API.
package dto

import (
	"time"

	appauth "atrium/internal/application/auth"
	"atrium/internal/domain/user"
)

type SignUpRequest struct {
	Email    string `json:"email" binding:"required" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required,min=8,max=128"`
	Name     string `json:"name" validate:"omitempty,max=100"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required" validate:"required"`
}

type SignOutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ResetPasswordRequestRequest struct {
	Email string `json:"email" binding:"required" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required" validate:"required"`
	NewPassword string `json:"new_password" binding:"required" validate:"required,min=8,max=128"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required" validate:"required"`
	NewPassword     string `json:"new_password" binding:"required" validate:"required,min=8,max=128"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required" validate:"required"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required" validate:"required,email"`
}

type UpdateUserRequest struct {
	Name      *string `json:"name" validate:"omitempty,max=100"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url,max=500"`
}

type OAuthCallbackRequest struct {
	Code  string `json:"code" binding:"required" validate:"required"`
	State string `json:"state" binding:"required" validate:"required"`
}

type UserResponse struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	AvatarURL     *string    `json:"avatar_url,omitempty"`
	EmailVerified bool       `json:"email_verified"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AuthResponse struct {
	User   UserResponse   `json:"user"`
	Tokens *TokenResponse `json:"tokens,omitempty"`
}

type OAuthURLResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

func NewUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:            u.SID(),
		Email:         u.Email().String(),
		Name:          u.Name().String(),
		AvatarURL:     u.AvatarURL(),
		EmailVerified: u.IsEmailVerified(),
		CreatedAt:     u.CreatedAt(),
		UpdatedAt:     u.UpdatedAt(),
	}
}

func NewAuthResponse(result *appauth.AuthResult) AuthResponse {
	resp := AuthResponse{User: NewUserResponse(result.User)}
	if result.Tokens != nil {
		resp.Tokens = &TokenResponse{
			AccessToken:  result.Tokens.AccessToken,
			RefreshToken: result.Tokens.RefreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    result.Tokens.ExpiresIn,
		}
	}
	return resp
}
