// Package hashing provides password hashing for applications built on, or
// migrating away from, the Spaark PHP framework.
//
// # Architecture
//
// The central abstraction is the [Hasher] interface. Three drivers ship with
// this package:
//
//   - [SpaarkHasher]: the legacy Spaark scheme (scramble, then bcrypt $2a$)
//   - [Argon2iHasher]: Argon2i
//   - [Argon2idHasher]: Argon2id (recommended for new hashes)
//
// The [Manager] is a named driver registry and dispatcher. Register the
// drivers, designate a default, and delegate hashing through the Manager.
//
// # Quick start
//
//	m, err := hashing.NewDefaultManager([]byte(appSalt)) // Argon2id default
//	if err != nil { log.Fatal(err) }
//
//	hash, _ := m.Make("my-secret-password")
//	ok, _   := m.Check("my-secret-password", hash) // true
//
// # Spaark hashes
//
// A Spaark hash has the shape
//
//	$2a$<SS>$<21-char salt><1 char><31-char digest>
//
// where SS is the two-digit bcrypt work factor. The credential and the
// application salt are concatenated and scrambled with a seeded Mersenne
// Twister (package scramble) before bcrypt sees them; bcrypt uses the stored
// salt, so verification is a re-derivation followed by a constant-time
// comparison. [SpaarkHasher.Hash] and [SpaarkHasher.Verify] expose the scheme
// directly.
//
// # Migration
//
// Call [Manager.CheckAndRehash] on every login. It verifies with whatever
// driver produced the stored hash and returns a replacement hash whenever that
// driver or its parameters differ from the current default:
//
//	ok, upgraded, err := m.CheckAndRehash(password, storedHash)
//	if err == nil && ok && upgraded != "" {
//	    persist(userID, upgraded)
//	}
//
// # Peppering
//
// Argon2 drivers accept [Argon2Options.Pepper]. The pepper keys an
// HMAC-SHA256 over the password before derivation, which replaces the Spaark
// scramble as the way of mixing the application secret in.
package hashing
