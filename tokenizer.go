package dagbok

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// continuation prefix for WordPiece subword pieces after the first.
const subwordPrefix = "##"

// Words longer than this many runes tokenize to a single [UNK].
const maxWordChars = 100

// EncodedSequence holds the three parallel input sequences a model expects.
// All three have the same length.
type EncodedSequence struct {
	IDs     []int64
	Mask    []int64
	TypeIDs []int64
}

// Len returns the sequence length.
func (e *EncodedSequence) Len() int { return len(e.IDs) }

// WordPieceTokenizer segments text into vocabulary subword ids using greedy
// longest-match WordPiece with an [UNK] fallback.
type WordPieceTokenizer struct {
	vocab *Vocabulary
}

// NewWordPieceTokenizer creates a tokenizer over the given vocabulary.
func NewWordPieceTokenizer(vocab *Vocabulary) *WordPieceTokenizer {
	return &WordPieceTokenizer{vocab: vocab}
}

// Encode converts text into a fixed-shape sequence of exactly maxLength ids,
// wrapped with [CLS]/[SEP], right-padded with [PAD]. The attention mask is 1
// over real tokens and 0 over padding; token-type ids are all 0.
func (t *WordPieceTokenizer) Encode(text string, maxLength int) *EncodedSequence {
	ids := make([]int64, 0, maxLength)
	ids = append(ids, t.vocab.clsID)
	ids = append(ids, t.Tokenize(text)...)
	ids = append(ids, t.vocab.sepID)

	// Truncation keeps the terminator: cut and re-append [SEP] so the
	// sequence never ends mid-word.
	if len(ids) > maxLength {
		ids = ids[:maxLength-1]
		ids = append(ids, t.vocab.sepID)
	}

	enc := &EncodedSequence{
		IDs:     make([]int64, maxLength),
		Mask:    make([]int64, maxLength),
		TypeIDs: make([]int64, maxLength),
	}
	for i := 0; i < maxLength; i++ {
		if i < len(ids) {
			enc.IDs[i] = ids[i]
			enc.Mask[i] = 1
		} else {
			enc.IDs[i] = t.vocab.padID
		}
	}
	return enc
}

// EncodePrompt converts text into an unpadded id sequence with begin/end
// markers, for autoregressive generation.
func (t *WordPieceTokenizer) EncodePrompt(text string) []int64 {
	ids := make([]int64, 0, 64)
	ids = append(ids, t.vocab.bosID)
	ids = append(ids, t.Tokenize(text)...)
	ids = append(ids, t.vocab.eosID)
	return ids
}

// Tokenize maps text to subword ids without special tokens or padding.
func (t *WordPieceTokenizer) Tokenize(text string) []int64 {
	var ids []int64
	for _, word := range basicTokenize(text) {
		ids = append(ids, t.tokenizeWord(word)...)
	}
	return ids
}

// tokenizeWord applies greedy longest-match segmentation to one basic token.
// When no vocabulary prefix matches at any length, it emits [UNK] and
// advances a single rune rather than failing.
func (t *WordPieceTokenizer) tokenizeWord(word string) []int64 {
	runes := []rune(word)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) > maxWordChars {
		return []int64{t.vocab.unkID}
	}

	var ids []int64
	start := 0
	for start < len(runes) {
		end := len(runes)
		found := false
		for end > start {
			piece := string(runes[start:end])
			if start > 0 {
				piece = subwordPrefix + piece
			}
			if t.vocab.Contains(piece) {
				ids = append(ids, t.vocab.ID(piece))
				found = true
				break
			}
			end--
		}
		if !found {
			ids = append(ids, t.vocab.unkID)
			start++
			continue
		}
		start = end
	}
	return ids
}

// Decode converts generated ids back to text, dropping special tokens and
// joining continuation pieces onto the preceding word.
func (t *WordPieceTokenizer) Decode(ids []int64) string {
	var sb strings.Builder
	first := true
	for _, id := range ids {
		if t.vocab.isSpecial(id) {
			continue
		}
		tok := t.vocab.Token(id)
		if tok == "" {
			continue
		}
		if piece, ok := strings.CutPrefix(tok, subwordPrefix); ok {
			sb.WriteString(piece)
			continue
		}
		if !first {
			sb.WriteString(" ")
		}
		sb.WriteString(tok)
		first = false
	}
	return sb.String()
}

// basicTokenize lowercases, strips accents, isolates punctuation and splits
// on whitespace.
func basicTokenize(text string) []string {
	normalized := normalize(text)

	var sb strings.Builder
	sb.Grow(len(normalized) + 16)
	for _, r := range normalized {
		if isPunctuation(r) {
			sb.WriteRune(' ')
			sb.WriteRune(r)
			sb.WriteRune(' ')
		} else {
			sb.WriteRune(r)
		}
	}
	return strings.Fields(sb.String())
}

// normalize lowercases, trims, and removes combining marks (NFD then drop Mn).
func normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	decomposed := norm.NFD.String(text)
	var sb strings.Builder
	sb.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) ||
		(r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}
