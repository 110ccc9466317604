package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token related errors
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrTokenNotFound  = errors.New("token not found")

	// Authorization header errors
	ErrAuthHeaderMissing   = errors.New("authorization header missing")
	ErrAuthSchemeMalformed = errors.New("authorization scheme malformed")
	ErrBearerTokenEmpty    = errors.New("bearer token empty")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
