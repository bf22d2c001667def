package dagbok

import (
	"regexp"
	"strings"
)

// Sentence boundaries: a run of sentence-ending punctuation followed by
// whitespace, or a blank line. Heuristic, not grammatical.
var sentenceBoundary = regexp.MustCompile(`([.!?。！？]+)\s+|\n{2,}`)

// SplitSentences splits text into an ordered list of sentences. Terminating
// punctuation stays attached to the preceding sentence; empty spans are
// dropped; any trailing remainder becomes the final sentence.
func SplitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, m := range sentenceBoundary.FindAllStringSubmatchIndex(text, -1) {
		end := m[1]
		if m[2] >= 0 {
			// Keep the punctuation run, discard the whitespace after it.
			end = m[3]
		}
		if s := strings.TrimSpace(text[last:end]); s != "" {
			sentences = append(sentences, s)
		}
		last = m[1]
	}
	if s := strings.TrimSpace(text[last:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
