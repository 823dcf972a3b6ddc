package handler

import "github.com/grademind/grademind-api/internal/core/domain"

type registerRequest struct {
	Email          string `json:"email"           validate:"required,email"`
	Username       string `json:"username"        validate:"required"`
	Password       string `json:"password"        validate:"required"`
	Fullname       string `json:"fullname"        validate:"required"`
	Role           string `json:"user_role"       validate:"required"`
	Phone          string `json:"notelp"`
	NRP            string `json:"nrp"`
	Institution    string `json:"institution"`
	Biography      string `json:"biografi"`
	ProfilePicture string `json:"profile_picture"`
}

// loginRequest accepts either an email address or a username in Email.
type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// tokenRequest is the OAuth2 password-grant form.
type tokenRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken string             `json:"access_token"`
	TokenType   string             `json:"token_type"`
	User        *domain.PublicUser `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type sessionResponse struct {
	Sessions []*domain.Session `json:"sessions"`
}
