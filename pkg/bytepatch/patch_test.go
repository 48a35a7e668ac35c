package bytepatch_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrub/pkg/bytepatch"
)

func Test_Compile_ReturnsError_When_Inputs_Invalid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		phrase      string
		replacement string
		wantErr     error
	}{
		{"empty phrase", "", "Sweden", bytepatch.ErrEmptyPhrase},
		{"whitespace only phrase", " \t\n ", "Sweden", bytepatch.ErrEmptyPhrase},
		{"replacement longer than token", "Gulf of Mexico", "Switzerland", bytepatch.ErrReplacementTooLong},
		{"single word token too short", "Cuba", "Havana", bytepatch.ErrReplacementTooLong},
	}

	for _, testCase := range cases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, err := bytepatch.Compile(testCase.phrase, testCase.replacement)
			require.ErrorIs(t, err, testCase.wantErr)
		})
	}
}

func Test_Compile_Normalizes_Whitespace_And_Picks_Trailing_Token(t *testing.T) {
	t.Parallel()

	p, err := bytepatch.Compile("  Gulf \t of\n Mexico ", "Sweden")
	require.NoError(t, err)

	assert.Equal(t, "Gulf of Mexico", p.Phrase())
	assert.Equal(t, "Mexico", p.Token())
	assert.Equal(t, "Sweden", p.Replacement())
}

func Test_Find_Matches_Exact_Space_Separators(t *testing.T) {
	t.Parallel()

	p, err := bytepatch.Compile("Gulf of Mexico", "Sweden")
	require.NoError(t, err)

	buf := []byte("sailing the Gulf of Mexico today")

	m, ok := p.Find(buf, 0)
	require.True(t, ok)
	assert.Equal(t, 12, m.Start)
	assert.Equal(t, 12+len("Gulf of Mexico"), m.End)
	assert.Equal(t, bytes.IndexByte(buf, 'M'), m.Anchor)
}

func Test_Find_Matches_Arbitrary_NonAlphabetic_Separators(t *testing.T) {
	t.Parallel()

	p, err := bytepatch.Compile("Gulf of Mexico", "Sweden")
	require.NoError(t, err)

	cases := []struct {
		name string
		buf  []byte
	}{
		{"control bytes", []byte("Gulf\x01\x02of\nMexico")},
		{"mixed separators", []byte("Gulf \x00 of\t\tMexico")},
		{"digits and punctuation", []byte("Gulf-7of, Mexico")},
		{"single byte gaps", []byte("Gulf\x1fof\x1fMexico")},
	}

	for _, testCase := range cases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			m, ok := p.Find(testCase.buf, 0)
			require.True(t, ok, "expected a match in %q", testCase.buf)
			assert.Equal(t, 0, m.Start)
			assert.Equal(t, len(testCase.buf), m.End)
		})
	}
}

func Test_Find_Rejects_Alphabetic_Bytes_In_Gap_Position(t *testing.T) {
	t.Parallel()

	p, err := bytepatch.Compile("Gulf of Mexico", "Sweden")
	require.NoError(t, err)

	// No separator run where the pattern demands one.
	_, ok := p.Find([]byte("GulfXofXMexico"), 0)
	assert.False(t, ok)

	// A gap must not swallow alphabetic content to reach the next word.
	_, ok = p.Find([]byte("Gulf stream of Mexico"), 0)
	assert.False(t, ok)
}

func Test_Find_Fails_Gracefully_When_Gap_Runs_Past_Buffer_End(t *testing.T) {
	t.Parallel()

	p, err := bytepatch.Compile("Gulf of Mexico", "Sweden")
	require.NoError(t, err)

	cases := []struct {
		name string
		buf  []byte
	}{
		{"truncated after first word", []byte("Gulf")},
		{"truncated inside separator run", []byte("Gulf\x01\x02")},
		{"truncated inside second word", []byte("Gulf of Mex")},
		{"empty buffer", nil},
		{"buffer shorter than pattern", []byte("Gulf of")},
	}

	for _, testCase := range cases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, ok := p.Find(testCase.buf, 0)
			assert.False(t, ok)
		})
	}
}

func Test_Apply_Replaces_Token_And_Preserves_Buffer_Length(t *testing.T) {
	t.Parallel()

	p, err := bytepatch.Compile("Gulf of Mexico", "Sweden")
	require.NoError(t, err)

	buf := []byte("the Gulf of Mexico is warm")
	wantLen := len(buf)

	st := p.Apply(buf)

	assert.Equal(t, 1, st.Matches)
	assert.Equal(t, 1, st.Patched)
	assert.Equal(t, 0, st.Skipped)
	assert.Len(t, buf, wantLen)
	assert.Equal(t, "the Gulf of Sweden is warm", string(buf))
}

func Test_Apply_Erases_Parenthetical_And_Replaces_Token(t *testing.T) {
	t.Parallel()

	p, err := bytepatch.Compile("Gulf of Mexico", "Sweden")
	require.NoError(t, err)

	buf := []byte("Gulf of Mexico (Gulf of America) coast")
	wantLen := len(buf)

	st := p.Apply(buf)

	assert.Equal(t, 1, st.Patched)
	assert.Equal(t, 1, st.Erased)
	assert.Len(t, buf, wantLen)
	assert.Equal(t, "Gulf of Sweden                   coast", string(buf))
}

func Test_Apply_Erases_Through_Buffer_End_When_Close_Paren_Missing(t *testing.T) {
	t.Parallel()

	p, err := bytepatch.Compile("Gulf of Mexico", "Sweden")
	require.NoError(t, err)

	buf := []byte("Gulf of Mexico (Gulf of America")

	st := p.Apply(buf)

	assert.Equal(t, 1, st.Erased)
	assert.Equal(t, "Gulf of Sweden                 ", string(buf))
}

func Test_Apply_Skips_Parenthetical_Without_Alphabetic_Follower(t *testing.T) {
	t.Parallel()

	p, err := bytepatch.Compile("Gulf of Mexico", "Sweden")
	require.NoError(t, err)

	buf := []byte("Gulf of Mexico (2024) data")

	st := p.Apply(buf)

	assert.Equal(t, 1, st.Patched)
	assert.Equal(t, 0, st.Erased)
	assert.Equal(t, "Gulf of Sweden (2024) data", string(buf))
}

func Test_Apply_Pads_With_Spaces_When_Replacement_Shorter(t *testing.T) {
	t.Parallel()

	p, err := bytepatch.Compile("Gulf of Mexico", "Oz")
	require.NoError(t, err)

	buf := []byte("Gulf of Mexico!")

	st := p.Apply(buf)

	assert.Equal(t, 1, st.Patched)
	assert.Equal(t, "Gulf of Oz    !", string(buf))
}

func Test_Apply_Is_Idempotent(t *testing.T) {
	t.Parallel()

	p, err := bytepatch.Compile("Gulf of Mexico", "Sweden")
	require.NoError(t, err)

	buf := []byte("the Gulf of Mexico (Gulf of America) again")

	first := p.Apply(buf)
	require.Equal(t, 1, first.Patched)

	afterFirst := append([]byte(nil), buf...)

	second := p.Apply(buf)
	assert.Equal(t, 0, second.Matches)
	assert.Equal(t, afterFirst, buf)
}

func Test_Apply_Patches_All_Occurrences_In_One_Call(t *testing.T) {
	t.Parallel()

	p, err := bytepatch.Compile("Gulf of Mexico", "Sweden")
	require.NoError(t, err)

	buf := []byte("Gulf of Mexico, then the Gulf\x01of\x02Mexico once more")

	st := p.Apply(buf)

	assert.Equal(t, 2, st.Matches)
	assert.Equal(t, 2, st.Patched)
	assert.Equal(t, "Gulf of Sweden, then the Gulf\x01of\x02Sweden once more", string(buf))
}

func Test_Apply_Leaves_Buffer_Unchanged_When_No_Match(t *testing.T) {
	t.Parallel()

	p, err := bytepatch.Compile("Gulf of Mexico", "Sweden")
	require.NoError(t, err)

	buf := []byte("nothing of interest here (really)")
	want := append([]byte(nil), buf...)

	st := p.Apply(buf)

	assert.Equal(t, bytepatch.Stats{}, st)
	assert.Equal(t, want, buf)
}

func Test_Patch_Compiles_And_Applies_In_One_Call(t *testing.T) {
	t.Parallel()

	buf := []byte("Gulf of Mexico")

	st, err := bytepatch.Patch(buf, "Gulf of Mexico", "Sweden")
	require.NoError(t, err)

	assert.Equal(t, 1, st.Patched)
	assert.Equal(t, "Gulf of Sweden", string(buf))

	_, err = bytepatch.Patch(buf, "Gulf of Sweden", "Switzerland")
	require.ErrorIs(t, err, bytepatch.ErrReplacementTooLong)
}

func Test_Find_Honors_Start_Offset(t *testing.T) {
	t.Parallel()

	p, err := bytepatch.Compile("of Mexico", "Sweden")
	require.NoError(t, err)

	buf := []byte("of Mexico and of Mexico")

	m, ok := p.Find(buf, 1)
	require.True(t, ok)
	assert.Equal(t, 14, m.Start)

	m, ok = p.Find(buf, -5)
	require.True(t, ok)
	assert.Equal(t, 0, m.Start)
}
