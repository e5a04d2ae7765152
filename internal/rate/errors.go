package rate

import "errors"

var (
	// ErrInvalidConfig is returned for non-positive window or threshold values.
	ErrInvalidConfig = errors.New("invalid rate limit configuration")
	// ErrRedisUnavailable wraps Redis command failures in the shared ledger.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
