// Package role defines the closed set of platform roles and a bitmask
// allow-list used by route guards.
//
// # Boundary parsing
//
// Role strings coming from storage, configuration, or token claims are parsed
// exactly once with [Parse]. Comparison after that point is an integer test;
// nothing downstream re-normalises case.
//
// # What this package must NOT do
//
//   - Access storage, the network, or request state.
//   - Import schoolAuth or any sibling package.
package role
