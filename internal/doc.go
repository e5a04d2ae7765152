// Package internal holds machinery private to schoolAuth.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - config: layered loader for schoolauth-server
//   - metrics: lock-free counters and latency histograms
//   - rate: failed-login ledgers (in-process and Redis)
//   - security: posture report behind Engine.SecurityReport
//   - server: chi router and handlers for schoolauth-server
package internal
