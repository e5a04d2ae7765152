package jwt

import "errors"

var (
	// ErrSecretMissing is returned when no signing or verification key is configured.
	ErrSecretMissing = errors.New("token signing secret not configured")
	// ErrTokenExpired is returned by Verify for tokens past their expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed is returned by Verify for bad signatures, structure, or claims.
	ErrTokenMalformed = errors.New("token malformed")
)
