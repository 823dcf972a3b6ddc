package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of account roles. The zero value is not a valid role.
type Role string

const (
	RoleLecturer Role = "dosen"
	RoleStudent  Role = "mahasiswa"
)

// ParseRole converts s into a Role, rejecting anything outside the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleLecturer:
		return RoleLecturer, nil
	case RoleStudent:
		return RoleStudent, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleLecturer || r == RoleStudent
}

// Label returns the human-facing name used in messages.
func (r Role) Label() string {
	switch r {
	case RoleLecturer:
		return "lecturer"
	case RoleStudent:
		return "student"
	}
	return string(r)
}

// User models an account holder, lecturer or student.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"user_role"`
	IsActive     bool      `json:"is_active"`
	IsVerified   bool      `json:"is_verified"`
	IsSuperuser  bool      `json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`

	Fullname       string `json:"fullname"`
	Phone          string `json:"notelp,omitempty"`
	NRP            string `json:"nrp,omitempty"`
	Institution    string `json:"institution,omitempty"`
	Biography      string `json:"biografi,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// PublicUser is the projection of User that is safe to hand to clients.
type PublicUser struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	Fullname       string    `json:"fullname"`
	Role           Role      `json:"user_role"`
	Phone          string    `json:"notelp,omitempty"`
	NRP            string    `json:"nrp,omitempty"`
	Institution    string    `json:"institution,omitempty"`
	Biography      string    `json:"biografi,omitempty"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	IsActive       bool      `json:"is_active"`
	IsVerified     bool      `json:"is_verified"`
	IsSuperuser    bool      `json:"is_superuser"`
	CreatedAt      time.Time `json:"created_at"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:             u.ID,
		Email:          u.Email,
		Username:       u.Username,
		Fullname:       u.Fullname,
		Role:           u.Role,
		Phone:          u.Phone,
		NRP:            u.NRP,
		Institution:    u.Institution,
		Biography:      u.Biography,
		ProfilePicture: u.ProfilePicture,
		IsActive:       u.IsActive,
		IsVerified:     u.IsVerified,
		IsSuperuser:    u.IsSuperuser,
		CreatedAt:      u.CreatedAt,
	}
}
