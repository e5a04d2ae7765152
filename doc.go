// Package schoolAuth authenticates requests for a multi-school platform:
// password sign-in with a failed-login ledger, stateless 12h session tokens,
// closed-enum role gating and per-request school context resolution.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after [Builder.Build].
//
// # Trust model
//
// A session token is trusted only for its subject. Every authenticated
// request reloads the account, so status changes and school reassignment
// take effect immediately. School context comes from the account record, or
// for super admins from an explicit selector checked against the Tenant
// store.
//
// # Architecture boundaries
//
// schoolAuth is the public surface. It exposes [Engine], [Builder], [Config]
// and value types. Token encoding lives in jwt/, hashing in password/, roles
// in role/, and the ledger, audit dispatch and metric storage under
// internal/. HTTP wiring lives in middleware/.
//
// # What this package must NOT do
//
//   - Import net/http or any router.
//   - Persist accounts or schools (callers supply an [AccountProvider] and
//     [TenantProvider]).
//   - Trust token school claims for authorization.
package schoolAuth
