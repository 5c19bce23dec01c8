package components

import (
	"github.com/charmbracelet/glamour"
)

// NewMarkdownRenderer returns the dark glamour renderer used for session
// notes. A width of 0 disables word wrapping.
func NewMarkdownRenderer(width int) (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(width),
	)
}

// RenderMarkdown renders content, falling back to the raw text when glamour
// cannot.
func RenderMarkdown(renderer *glamour.TermRenderer, content string) string {
	if renderer == nil {
		return content
	}
	out, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return out
}
