package telegram

import (
	"bytes"
	"log/slog"
	"strings"

	"github.com/leonid-shevtsov/telegold"
	"github.com/yuin/goldmark"
)

var htmlConverter = goldmark.New(goldmark.WithRenderer(telegold.NewRenderer()))

// ToHTML converts Markdown to the HTML subset Telegram accepts. On failure
// the input is returned unchanged.
func ToHTML(markdown string) string {
	var buf bytes.Buffer
	if err := htmlConverter.Convert([]byte(markdown), &buf); err != nil {
		slog.Warn("markdown conversion failed", "error", err.Error())
		return markdown
	}
	return strings.TrimSpace(buf.String())
}

// stripMarkdown is the plain text fallback when Telegram rejects the markup.
func stripMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "\\*", "*")
	text = strings.ReplaceAll(text, "\\_", "_")
	text = strings.ReplaceAll(text, "\\`", "`")
	return text
}
