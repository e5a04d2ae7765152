// Package jwt mints and verifies the stateless session tokens used by
// schoolAuth. A token carries the account subject, role and school affiliation
// and expires a fixed TTL (12h by default) after issuance.
//
// # Trust model
//
// Only the subject claim is trusted for authorization decisions. Role and
// school claims are informational; the engine reloads the account on every
// request and derives tenant context from the live record.
//
// # What this package must NOT do
//
//   - Look up accounts or schools.
//   - Keep server-side token state (there is no revocation list).
package jwt
