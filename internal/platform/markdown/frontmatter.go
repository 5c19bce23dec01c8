// Package markdown renders and reads notes that carry a YAML frontmatter
// block ahead of the markdown body.
package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const fence = "---\n"

var ErrNoFrontmatter = errors.New("note has no frontmatter")

// Render writes meta as YAML between fences followed by body. meta may be any
// value yaml.v3 can marshal, usually a struct with yaml tags.
func Render(meta any, body string) (string, error) {
	raw, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(fence)
	buf.Write(raw)
	buf.WriteString(fence)
	if body != "" && !strings.HasPrefix(body, "\n") {
		buf.WriteByte('\n')
	}
	buf.WriteString(body)
	return buf.String(), nil
}

// Split separates the raw frontmatter from the body.
func Split(content string) (string, string, error) {
	if !strings.HasPrefix(content, fence) {
		return "", content, ErrNoFrontmatter
	}
	rest := strings.TrimPrefix(content, fence)
	if strings.HasPrefix(rest, fence) {
		return "", strings.TrimPrefix(rest, fence), nil
	}
	idx := strings.Index(rest, "\n"+fence)
	if idx < 0 {
		return "", "", fmt.Errorf("frontmatter: missing closing fence")
	}
	return rest[:idx+1], rest[idx+1+len(fence):], nil
}

// Decode unmarshals the frontmatter of content into meta and returns the body.
func Decode(content string, meta any) (string, error) {
	raw, body, err := Split(content)
	if err != nil {
		return "", err
	}
	if err := yaml.Unmarshal([]byte(raw), meta); err != nil {
		return "", fmt.Errorf("unmarshal frontmatter: %w", err)
	}
	return body, nil
}

// Body strips the frontmatter, if any.
func Body(content string) string {
	_, body, err := Split(content)
	if err != nil {
		return content
	}
	return strings.TrimPrefix(body, "\n")
}
