package dagbok

import (
	"strings"
	"text/template"
)

// Note content is truncated before prompting so short-text generation never
// sees more context than it needs.
const (
	titleContextChars    = 200
	questionContextChars = 300
)

const (
	titleSystemPrompt    = "You are a journaling assistant. Write one concise title, at most eight words, for the user's note."
	questionSystemPrompt = "You are a reflective journaling assistant. Ask one short, gentle question that helps the user explore their note further."

	titleRequest    = "Write a title for this journal entry:"
	questionRequest = "Ask a reflective question about this journal entry:"
)

// Role-tagged prompt layout: system instruction, user request with note
// content, then the assistant marker the model continues after.
var promptTemplate = template.Must(template.New("prompt").Parse(
	"<|system|>\n{{.System}}\n<|user|>\n{{.Request}}\n{{.Content}}\n<|assistant|>\n"))

type promptData struct {
	System  string
	Request string
	Content string
}

func buildTitlePrompt(note string) string {
	return renderPrompt(promptData{
		System:  titleSystemPrompt,
		Request: titleRequest,
		Content: truncateRunes(note, titleContextChars),
	})
}

func buildQuestionPrompt(note string) string {
	return renderPrompt(promptData{
		System:  questionSystemPrompt,
		Request: questionRequest,
		Content: truncateRunes(note, questionContextChars),
	})
}

func renderPrompt(data promptData) string {
	var sb strings.Builder
	// The template is compile-time constant; execution cannot fail on a
	// string builder.
	_ = promptTemplate.Execute(&sb, data)
	return sb.String()
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
