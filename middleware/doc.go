// Package middleware adapts [schoolAuth.Engine] to net/http.
//
// # Stages
//
//   - [RequestID] and [ClientIP] stamp the request context read by the
//     engine's audit events and failed-login ledger.
//   - [Logging] and [Recover] wrap the whole chain.
//   - [LoginThrottle] rejects blocked addresses before a login body is read.
//   - [Authenticate] verifies the bearer token and attaches the
//     [schoolAuth.AuthResult] ([AuthResultFromContext]).
//   - [RequireRole] admits only the listed roles.
//   - [ResolveTenant] attaches the request's [schoolAuth.TenantContext]
//     ([TenantFromContext]).
//
// A stage that rejects a request writes the response through [WriteError]
// and never calls the next handler. Order is fixed by router composition:
// Authenticate must run before RequireRole and ResolveTenant.
//
// # What this package must NOT do
//
//   - Parse or mint tokens (delegates to the Engine).
//   - Read school context from token claims.
//   - Decide access beyond the pass/reject returned by the Engine.
package middleware
