package middleware

import (
	"context"
	"net/http"
	"strings"

	schoolAuth "github.com/MrEthical07/schoolAuth"
)

type tenantContextKey struct{}

// TenantFromContext returns the school attached by [ResolveTenant].
func TenantFromContext(ctx context.Context) (*schoolAuth.TenantContext, bool) {
	tc, ok := ctx.Value(tenantContextKey{}).(*schoolAuth.TenantContext)
	return tc, ok && tc != nil
}

// ResolveTenant attaches the school the request operates on. Super admins
// name it through the selector header or query parameter (header wins);
// everyone else gets the school on their account.
func ResolveTenant(engine *schoolAuth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, r, nil, schoolAuth.ErrEngineNotReady)
				return
			}

			var account *schoolAuth.Account
			if res, ok := AuthResultFromContext(r.Context()); ok {
				account = res.Account
			}

			tc, err := engine.ResolveTenant(r.Context(), account, selectorFrom(engine, r))
			if err != nil {
				WriteError(w, r, engine.Logger(), err)
				return
			}

			ctx := context.WithValue(r.Context(), tenantContextKey{}, tc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func selectorFrom(engine *schoolAuth.Engine, r *http.Request) string {
	header, query := engine.TenantSelectorNames()
	if header != "" {
		if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
			return v
		}
	}
	if query != "" {
		return strings.TrimSpace(r.URL.Query().Get(query))
	}
	return ""
}
