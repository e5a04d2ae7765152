// Package password hashes and verifies account passwords.
//
// # Output format
//
// New hashes are Argon2id in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Verification also accepts bcrypt hashes ($2a$, $2b$, $2y$) imported from
// older credential stores. [Hasher.NeedsUpgrade] reports true for those and
// for Argon2id hashes produced with weaker parameters, so the caller can
// re-hash after the next successful sign-in.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (minimum
// length, reuse) is enforced by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Import any other schoolAuth package.
//   - Log plaintext passwords or hash parameters.
package password
