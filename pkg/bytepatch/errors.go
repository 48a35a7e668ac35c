package bytepatch

import "errors"

// Sentinel errors returned by [Compile].
//
// Callers should use [errors.Is] to check error types. Apply itself never
// fails: a buffer with no match, or a match whose anchor cannot be located,
// degrades to a no-op and is reported through [Stats].
var (
	// ErrEmptyPhrase indicates the search phrase contains no words.
	//
	// This is a programming error.
	ErrEmptyPhrase = errors.New("bytepatch: empty phrase")

	// ErrReplacementTooLong indicates the replacement is longer than the
	// phrase's trailing word. The buffer cannot grow, so such a
	// replacement can never be written safely; it is rejected before any
	// byte is touched.
	ErrReplacementTooLong = errors.New("bytepatch: replacement longer than target word")
)
