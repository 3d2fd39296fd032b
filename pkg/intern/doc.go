// Package intern maps strings to small integer tokens and back.
//
// Tokens are 16-bit. Token 0 is reserved for the empty string. Common HTML
// tag and attribute names are resolved against a static sorted table by
// binary search and map to their table index plus one, so they never touch
// the dynamic tables. Other strings are stored in one of two tiers: strings
// of up to 15 bytes are kept inline in a fixed-size array used directly as a
// map key, longer strings are kept as ordinary heap strings. Tokens of the
// heap tier have the high bit set.
//
// The token-to-string mapping is append-only: a token never changes meaning
// for the lifetime of an Interner. Interners are safe for concurrent use,
// so engines configured to share one can run on different goroutines.
package intern
