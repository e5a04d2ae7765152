// Package memory is an in-process account and school store. It implements
// [schoolAuth.AccountProvider], [schoolAuth.TenantProvider] and
// [schoolAuth.PasswordHashUpgrader] and is meant for tests, examples and
// development servers.
package memory
