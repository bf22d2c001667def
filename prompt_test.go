package dagbok

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildTitlePrompt(t *testing.T) {
	p := buildTitlePrompt("Went for a long run this morning.")

	assert.True(t, strings.HasPrefix(p, "<|system|>\n"))
	assert.Contains(t, p, "<|user|>\n")
	assert.Contains(t, p, "Went for a long run this morning.")
	assert.True(t, strings.HasSuffix(p, "<|assistant|>\n"))
}

func TestBuildTitlePromptTruncatesNote(t *testing.T) {
	note := strings.Repeat("å", titleContextChars+50)
	p := buildTitlePrompt(note)

	assert.NotContains(t, p, note)
	assert.Contains(t, p, strings.Repeat("å", titleContextChars))
}

func TestBuildQuestionPromptTruncatesNote(t *testing.T) {
	note := strings.Repeat("x", questionContextChars+1)
	p := buildQuestionPrompt(note)

	assert.NotContains(t, p, note)
	assert.Contains(t, p, strings.Repeat("x", questionContextChars))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "hé", truncateRunes("héllo", 2), "cuts on rune boundaries")
	assert.Equal(t, "short", truncateRunes("short", 100))
	assert.Equal(t, "", truncateRunes("", 5))
}
