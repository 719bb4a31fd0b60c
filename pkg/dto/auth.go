package dto

import "github.com/gulfreturn/gulf-api/internal/validation"

type CreateAdminRequest struct {
	AdminSecret string `json:"admin_secret"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	Bio         string `json:"bio"`
}

type CreateAdminResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

type AdminLoginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	AdminSecret string `json:"admin_secret"`
}

// GoogleTokenRequest carries either a Google ID token or a Google OAuth access token.
type GoogleTokenRequest struct {
	Credential  string `json:"credential"`
	AccessToken string `json:"access_token"`
}

type OAuthCallbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

type LoginURLResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
	Message string `json:"message"`
}

type AuthResponse struct {
	Message      string       `json:"message"`
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type ValidationErrorResponse struct {
	Detail string                  `json:"detail"`
	Errors []validation.FieldError `json:"errors"`
}
