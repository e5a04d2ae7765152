// Package rate implements the failed-login ledger: a sliding-window record of
// failed sign-in attempts per client address.
//
// # Window semantics
//
// Each address keeps the timestamps of its failures inside the trailing
// window. An address is blocked once the number of live failures reaches the
// threshold, and stays blocked until the oldest live failure ages out.
//
// Two backends share the contract:
//   - [Limiter]     in-process map guarded by one mutex, swept on a ticker
//   - [RedisLedger] one sorted set per address (key prefix "sa:lf:")
//
// # What this package must NOT do
//
//   - Decide what counts as a failure (the engine does).
//   - Key on anything other than the address it is given.
//   - Be imported outside the schoolAuth module.
package rate
