package middleware

import (
	"net/http"

	schoolAuth "github.com/MrEthical07/schoolAuth"
)

// LoginThrottle rejects requests from addresses the failed-login ledger has
// blocked, before the handler reads the body. Login repeats the check, so
// the throttle only saves work.
func LoginThrottle(engine *schoolAuth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, r, nil, schoolAuth.ErrEngineNotReady)
				return
			}
			if err := engine.CheckLogin(r.Context()); err != nil {
				WriteError(w, r, engine.Logger(), err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
