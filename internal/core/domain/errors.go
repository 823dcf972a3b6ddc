package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email/username or password")
	ErrAccountInactive    = errors.New("user account is inactive")
	ErrAlreadyExists      = errors.New("already exists")
	ErrMissingCredentials = errors.New("missing authorization header")
	ErrMalformedHeader    = errors.New("invalid authorization header format")
	ErrTokenExpired       = errors.New("token has expired")
	ErrInvalidToken       = errors.New("invalid token")
	ErrSessionRevoked     = errors.New("session has been revoked")
	ErrUserNotFound       = errors.New("user not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrForbidden          = errors.New("access forbidden")
	ErrStorageConflict    = errors.New("conflicting write, please retry")
	ErrCannotDeleteSelf   = errors.New("cannot delete your own account")
	ErrInvalidInput       = errors.New("invalid input")
)

// AlreadyExistsError names the unique field a write collided on.
type AlreadyExistsError struct {
	Field string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already registered", e.Field)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ForbiddenError is returned by the role gate when the caller lacks Role.
type ForbiddenError struct {
	Role Role
}

func (e *ForbiddenError) Error() string {
	if e.Role == "" {
		return ErrForbidden.Error()
	}
	return fmt.Sprintf("only %ss can access this resource", e.Role.Label())
}

func (e *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}
