package utils

import (
	"strings"

	"google.golang.org/genai"
)

// ExtractContentText joins the text parts of content.
func ExtractContentText(content *genai.Content) string {
	if content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// NormalizeQuestion lower-cases and trims a question for literal comparison.
func NormalizeQuestion(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Truncate cuts text to at most limit runes, appending "..." when cut.
func Truncate(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

// WordCount counts whitespace separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
