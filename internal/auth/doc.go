// Package auth provides machine-client authentication for the codec API.
//
// Clients are configured with an ID, an Argon2id secret hash and a set of
// scopes. A client exchanges its ID and secret for a short-lived HS256 JWT
// carrying its scopes; the API then checks the scope on each protected
// route without a database lookup.
//
//   - ScopeRead allows decoding and catalog reads
//   - ScopeWrite additionally allows encoding and catalog changes
package auth
