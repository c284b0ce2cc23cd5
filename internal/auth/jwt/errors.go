package jwt

import "errors"

// Extraction errors.
var (
	ErrMissingHeader = errors.New("missing authorization header")
	ErrInvalidPrefix = errors.New("invalid authorization prefix")
	ErrEmptyToken    = errors.New("empty bearer token")
)

// Verification and issuance errors.
var (
	ErrTokenExpired  = errors.New("token expired")
	ErrInvalidToken  = errors.New("invalid token")
	ErrMissingEmail  = errors.New("token carries no email claim")
	ErrNoSecret      = errors.New("token secret is required")
	ErrInvalidTTL    = errors.New("token TTL must be positive")
	ErrSigningFailed = errors.New("token signing failed")
)
