package dagbok

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeFixedLength(t *testing.T) {
	tok := NewWordPieceTokenizer(newTestVocab(t))

	for _, maxLen := range []int{8, 16, 128} {
		enc := tok.Encode("hello world, how are you today?", maxLen)

		assert.Equal(t, maxLen, enc.Len())
		assert.Len(t, enc.IDs, maxLen)
		assert.Len(t, enc.Mask, maxLen)
		assert.Len(t, enc.TypeIDs, maxLen)

		assert.Equal(t, int64(2), enc.IDs[0], "sequence starts with [CLS]")
		for _, tt := range enc.TypeIDs {
			assert.Equal(t, int64(0), tt)
		}
		// Mask is 1 over real tokens, then 0 over padding with no gaps.
		inPadding := false
		for i, m := range enc.Mask {
			if m == 0 {
				inPadding = true
				assert.Equal(t, int64(0), enc.IDs[i])
			} else {
				assert.False(t, inPadding, "mask must not resume after padding")
			}
		}
	}
}

func TestEncodeTruncationKeepsSeparator(t *testing.T) {
	tok := NewWordPieceTokenizer(newTestVocab(t))

	// 8 word tokens + [CLS] + [SEP] = 10 ids, truncated to 8.
	enc := tok.Encode("hello world, how are you today?", 8)

	assert.Equal(t, int64(2), enc.IDs[0])
	assert.Equal(t, int64(3), enc.IDs[7], "truncated sequence still ends with [SEP]")
	for _, m := range enc.Mask {
		assert.Equal(t, int64(1), m)
	}
}

func TestEncodeEmptyInput(t *testing.T) {
	tok := NewWordPieceTokenizer(newTestVocab(t))

	enc := tok.Encode("", 8)

	assert.Equal(t, []int64{2, 3, 0, 0, 0, 0, 0, 0}, enc.IDs)
	assert.Equal(t, []int64{1, 1, 0, 0, 0, 0, 0, 0}, enc.Mask)
}

func TestEncodePrompt(t *testing.T) {
	tok := NewWordPieceTokenizer(newTestVocab(t))

	// Fixture has no [BOS]/[EOS]; markers fall back to [CLS]/[SEP].
	assert.Equal(t, []int64{2, 4, 5, 3}, tok.EncodePrompt("hello world"))
}

func TestTokenizeSubwords(t *testing.T) {
	tok := NewWordPieceTokenizer(newTestVocab(t))

	assert.Equal(t, []int64{11, 12}, tok.Tokenize("feeling"))
	assert.Equal(t, []int64{11, 12}, tok.Tokenize("Feeling"), "case folds before matching")
}

func TestTokenizeUnknownAdvancesOneRune(t *testing.T) {
	tok := NewWordPieceTokenizer(newTestVocab(t))

	// Neither "x" nor "q" is in the vocabulary at any match length; each
	// rune falls back to one [UNK] instead of swallowing the whole word.
	assert.Equal(t, []int64{1, 1}, tok.Tokenize("xq"))
}

func TestTokenizeOverlongWord(t *testing.T) {
	tok := NewWordPieceTokenizer(newTestVocab(t))

	assert.Equal(t, []int64{1}, tok.Tokenize(strings.Repeat("a", maxWordChars+1)))
}

func TestTokenizePunctuationIsolated(t *testing.T) {
	tok := NewWordPieceTokenizer(newTestVocab(t))

	assert.Equal(t, []int64{4, 18, 5, 17}, tok.Tokenize("hello, world!"))
}

func TestNormalizeStripsAccents(t *testing.T) {
	assert.Equal(t, "cafe", normalize(" Café "))
	assert.Equal(t, "uber", normalize("Über"))
}

func TestDecode(t *testing.T) {
	tok := NewWordPieceTokenizer(newTestVocab(t))

	assert.Equal(t, "feeling", tok.Decode([]int64{2, 11, 12, 3}), "specials dropped, pieces joined")
	assert.Equal(t, "feeling happy", tok.Decode([]int64{11, 12, 13}))
	assert.Equal(t, "", tok.Decode(nil))
	assert.Equal(t, "", tok.Decode([]int64{2, 3, 0}))
	assert.Equal(t, "hello", tok.Decode([]int64{4, 999}), "out-of-range ids skipped")
}
