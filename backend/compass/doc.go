// Package compass ranks roommates and housing listings for a user profile and
// answers short chat questions about the current best matches.
//
// Everything here is pure and deterministic: the same inputs always produce the
// same ordered results, and no function keeps state between calls.
package compass
