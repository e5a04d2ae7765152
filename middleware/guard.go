package middleware

import (
	"context"
	"net/http"

	schoolAuth "github.com/MrEthical07/schoolAuth"
	"github.com/MrEthical07/schoolAuth/role"
)

type authResultContextKey struct{}

// AuthResultFromContext returns the result attached by [Authenticate].
func AuthResultFromContext(ctx context.Context) (*schoolAuth.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*schoolAuth.AuthResult)
	return res, ok && res != nil
}

// WithAuthResult attaches res to ctx. Handlers normally get it from
// [Authenticate]; tests use this directly.
func WithAuthResult(ctx context.Context, res *schoolAuth.AuthResult) context.Context {
	return context.WithValue(ctx, authResultContextKey{}, res)
}

// Authenticate verifies the Authorization header and attaches the
// [schoolAuth.AuthResult] to the request context.
func Authenticate(engine *schoolAuth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, r, nil, schoolAuth.ErrEngineNotReady)
				return
			}

			res, err := engine.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				WriteError(w, r, engine.Logger(), err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuthResult(r.Context(), res)))
		})
	}
}

// RequireRole admits requests whose account role is one of roles.
func RequireRole(engine *schoolAuth.Engine, roles ...role.Role) func(http.Handler) http.Handler {
	allowed := role.NewSet(roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, r, nil, schoolAuth.ErrEngineNotReady)
				return
			}

			res, _ := AuthResultFromContext(r.Context())
			if err := engine.AuthorizeContext(r.Context(), res, allowed); err != nil {
				WriteError(w, r, engine.Logger(), err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
