// Package errors provides structured, coded errors for vmirror.
//
// Every error raised by the engine carries a short code (e.g. "R003")
// registered with a category, a one-line message, a longer explanation and
// a documentation URL. Errors compare equal under errors.Is when their codes
// match, so packages can export sentinel values built with New and callers
// can test returned errors against them:
//
//	var ErrElementNotFound = errors.New("R003")
//
//	return errors.New("R003").WithDetail("no element with id bh-7")
//
// # Error Categories
//
//   - runtime: reconciliation and external-target failures
//   - internal: consistency violations (unknown tokens); raised as panics
//   - input: tree description files and attribute misuse
//   - protocol: wire decoding
//   - config: vmirror.json loading and validation
//   - cli: command line usage
//
// # Terminal Output
//
// Format renders an error for a terminal, including the offending lines of
// a source file when a Location is attached:
//
//	ERROR R010: Invalid tree description
//
//	  tree.yaml:4:7
//
//	       3 │   - tag: li
//	  →    4 │     id: x
//	         │       ^
//	       5 │     text: A
package errors
