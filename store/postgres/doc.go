// Package postgres stores accounts and schools in PostgreSQL through pgx.
//
// Role and status columns are parsed into [role.Role] and
// [schoolAuth.AccountStatus] when rows are read, so rows with unknown values
// surface as errors instead of reaching the engine. [pgx.ErrNoRows] maps to
// [schoolAuth.ErrAccountNotFound] and [schoolAuth.ErrTenantNotFound].
package postgres
