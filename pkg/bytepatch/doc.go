// Package bytepatch performs in-place, fuzzy phrase substitution inside
// binary buffers.
//
// The buffers it targets encode text with unpredictable non-alphabetic
// separator bytes between words (control characters, encoding artifacts
// standing in for a single space). A compiled [Pattern] treats every space
// in the search phrase as a wildcard gap that matches any non-empty run of
// non-alphabetic bytes, so "Gulf of Mexico" still matches
// "Gulf\x01\x02of\nMexico".
//
// # Basic Usage
//
//	p, err := bytepatch.Compile("Gulf of Mexico", "Sweden")
//	if err != nil {
//	    // replacement longer than the target token, or empty phrase
//	}
//	stats := p.Apply(buf)
//
// Apply scans the whole buffer left to right, and for every match:
//
//  1. Locates the anchor byte (first byte of the phrase's trailing word)
//     inside the matched span. If absent the match is skipped, never
//     patched at a guessed position.
//  2. Erases the first parenthetical annotation in the buffer (a "(" that
//     is immediately followed by an alphabetic byte, through the matching
//     ")") by overwriting it with spaces.
//  3. Overwrites the trailing word with the replacement, padding with
//     spaces when the replacement is shorter.
//
// The buffer never grows or shrinks; every write stays inside its original
// bounds. Failing to patch is always preferred over corrupting the caller's
// data, which is why a missing anchor is a counted skip rather than an
// error.
//
// # Concurrency
//
// A Pattern is immutable after Compile and safe for concurrent use. The
// buffer passed to Apply must not be accessed concurrently for the
// duration of the call.
package bytepatch
