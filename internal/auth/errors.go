package auth

import "errors"

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrUnknownRole  = errors.New("unknown role")
	ErrForbidden    = errors.New("insufficient permissions")
	ErrEmptySecret  = errors.New("signing secret must not be empty")
)
