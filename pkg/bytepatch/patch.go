package bytepatch

import (
	"fmt"
	"strings"
)

// gapByte is both the wildcard-gap marker inside a compiled pattern and the
// fill value used for erasure and padding.
const gapByte = byte(' ')

// Pattern is a compiled search phrase plus its replacement word.
//
// Spaces in the phrase compile to wildcard gaps: each one matches a
// non-empty run of non-alphabetic buffer bytes. All other bytes must match
// exactly (case-sensitive). The trailing word of the phrase is the target
// token that [Pattern.Apply] overwrites with the replacement.
type Pattern struct {
	phrase string
	pat    []byte // phrase bytes; gapByte entries match separator runs
	token  []byte // trailing word of the phrase, overwritten on patch
	repl   []byte
	anchor byte // first byte of token, marks where the replacement begins
}

// Match describes one located occurrence of a pattern in a buffer.
type Match struct {
	// Start is the index of the first matched byte.
	Start int

	// End is one past the last matched byte.
	End int

	// Anchor is the index where the replacement begins, or -1 if the
	// anchor byte does not occur inside the matched span.
	Anchor int
}

// Stats reports what one Apply call did to a buffer.
type Stats struct {
	// Matches is the number of occurrences found.
	Matches int

	// Patched is the number of occurrences overwritten with the
	// replacement.
	Patched int

	// Skipped is the number of matches left untouched because the anchor
	// byte could not be located. Skips are recoverable: the buffer is
	// unchanged at that position.
	Skipped int

	// Erased is the number of parenthetical annotations blanked out.
	Erased int
}

// Compile builds a Pattern from a human-readable phrase and the replacement
// for its trailing word.
//
// Runs of whitespace in the phrase collapse to a single wildcard gap.
// Returns [ErrEmptyPhrase] if the phrase has no words, and
// [ErrReplacementTooLong] if the replacement has more bytes than the
// trailing word - the buffer cannot grow, so that write would be unsafe.
func Compile(phrase, replacement string) (*Pattern, error) {
	norm := strings.Join(strings.Fields(phrase), " ")
	if norm == "" {
		return nil, ErrEmptyPhrase
	}

	token := norm
	if idx := strings.LastIndexByte(norm, ' '); idx >= 0 {
		token = norm[idx+1:]
	}

	if len(replacement) > len(token) {
		return nil, fmt.Errorf("%w: %q is %d bytes, target %q is %d",
			ErrReplacementTooLong, replacement, len(replacement), token, len(token))
	}

	return &Pattern{
		phrase: norm,
		pat:    []byte(norm),
		token:  []byte(token),
		repl:   []byte(replacement),
		anchor: token[0],
	}, nil
}

// Phrase returns the normalized search phrase.
func (p *Pattern) Phrase() string { return p.phrase }

// Token returns the trailing word the replacement overwrites.
func (p *Pattern) Token() string { return string(p.token) }

// Replacement returns the replacement word.
func (p *Pattern) Replacement() string { return string(p.repl) }

// Find returns the first match at or after start, scanning left to right.
// Each candidate start index is attempted independently with no
// backtracking; the candidate fails at the first mismatched byte or at any
// gap that would run past the end of the buffer.
func (p *Pattern) Find(buf []byte, start int) (Match, bool) {
	if start < 0 {
		start = 0
	}

	for i := start; i < len(buf); i++ {
		end, ok := p.matchAt(buf, i)
		if !ok {
			continue
		}

		m := Match{Start: i, End: end, Anchor: -1}

		// Anchor search is bounded to the matched span so a stray
		// occurrence of the anchor byte elsewhere in the buffer can
		// never redirect the write.
		for j := i; j < end; j++ {
			if buf[j] == p.anchor {
				m.Anchor = j

				break
			}
		}

		return m, true
	}

	return Match{}, false
}

// Apply patches every occurrence of the pattern in buf, in place.
//
// After each match the scan resumes at the byte after the match start, so
// all occurrences are visited in a single call. The buffer length never
// changes and every write stays within its bounds. A match whose anchor
// cannot be located is skipped, not guessed at.
func (p *Pattern) Apply(buf []byte) Stats {
	var st Stats

	start := 0

	for {
		m, ok := p.Find(buf, start)
		if !ok {
			return st
		}

		st.Matches++

		if m.Anchor < 0 {
			st.Skipped++
		} else {
			if eraseParenthetical(buf) {
				st.Erased++
			}

			p.writeReplacement(buf, m)
			st.Patched++
		}

		start = m.Start + 1
	}
}

// Patch compiles phrase/replacement and applies the result to buf in one
// call. Convenience wrapper for hosts that patch a single phrase.
func Patch(buf []byte, phrase, replacement string) (Stats, error) {
	p, err := Compile(phrase, replacement)
	if err != nil {
		return Stats{}, err
	}

	return p.Apply(buf), nil
}

// matchAt attempts the pattern at one candidate start index. On success it
// returns one past the last matched byte.
func (p *Pattern) matchAt(buf []byte, start int) (end int, ok bool) {
	off := 0

	for _, pb := range p.pat {
		if pb == gapByte {
			j := start + off
			if j >= len(buf) || isAlpha(buf[j]) {
				// A gap requires at least one separator byte.
				return 0, false
			}

			for j < len(buf) && !isAlpha(buf[j]) {
				j++
			}

			if j >= len(buf) {
				// Separator run hit the end of the buffer before
				// the next word could begin.
				return 0, false
			}

			off = j - start

			continue
		}

		if start+off >= len(buf) || buf[start+off] != pb {
			return 0, false
		}

		off++
	}

	return start + off, true
}

// writeReplacement overwrites the target word at the anchor. When the
// replacement is shorter than the word, the leftover bytes are filled with
// the gap byte so no stale content survives.
func (p *Pattern) writeReplacement(buf []byte, m Match) {
	n := copy(buf[m.Anchor:], p.repl)

	for j := m.Anchor + n; j < m.Anchor+len(p.token) && j < len(buf); j++ {
		buf[j] = gapByte
	}
}

// eraseParenthetical blanks the first parenthetical annotation in buf: the
// first "(" immediately followed by an alphabetic byte, through the next
// ")" inclusive. Without a closing ")" the erasure runs to the end of the
// buffer. Reports whether anything was erased.
func eraseParenthetical(buf []byte) bool {
	open := -1

	for i := 0; i+1 < len(buf); i++ {
		if buf[i] == '(' && isAlpha(buf[i+1]) {
			open = i

			break
		}
	}

	if open < 0 {
		return false
	}

	end := len(buf)

	for j := open + 1; j < len(buf); j++ {
		if buf[j] == ')' {
			end = j + 1

			break
		}
	}

	for k := open; k < end; k++ {
		buf[k] = gapByte
	}

	return true
}

// isAlpha reports whether b is in the ASCII alphabetic range. The buffer is
// raw bytes; no Unicode interpretation happens anywhere in this package.
func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
