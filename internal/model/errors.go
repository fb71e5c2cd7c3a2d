package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountBanned      = errors.New("account banned")

	// Token related errors
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token expired")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Plan related errors
	ErrPlanNotFound    = errors.New("plan not found")
	ErrVersionNotFound = errors.New("plan version not found")

	// OAuth related errors
	ErrOAuthExchange = errors.New("oauth exchange failed")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
