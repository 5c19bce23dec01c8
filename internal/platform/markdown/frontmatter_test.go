package markdown

import (
	"errors"
	"testing"
)

type meta struct {
	ID    int64  `yaml:"id"`
	Guide string `yaml:"guide_type"`
	BPM   *int   `yaml:"bpm,omitempty"`
}

func TestRenderDecodeRoundTrip(t *testing.T) {
	t.Parallel()
	bpm := 72
	content, err := Render(meta{ID: 4, Guide: "VIBRATION", BPM: &bpm}, "# Vibration session\n")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var got meta
	body, err := Decode(content, &got)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != 4 || got.Guide != "VIBRATION" || got.BPM == nil || *got.BPM != 72 {
		t.Fatalf("unexpected meta %+v", got)
	}
	if body != "\n# Vibration session\n" {
		t.Fatalf("unexpected body %q", body)
	}
	if Body(content) != "# Vibration session\n" {
		t.Fatalf("unexpected stripped body %q", Body(content))
	}
}

func TestSplitWithoutFrontmatter(t *testing.T) {
	t.Parallel()
	_, body, err := Split("plain text")
	if !errors.Is(err, ErrNoFrontmatter) {
		t.Fatalf("expected ErrNoFrontmatter, got %v", err)
	}
	if body != "plain text" || Body("plain text") != "plain text" {
		t.Fatalf("body should be untouched")
	}
}

func TestSplitMissingClosingFence(t *testing.T) {
	t.Parallel()
	if _, _, err := Split("---\nid: 1\n"); err == nil {
		t.Fatalf("expected error for unterminated frontmatter")
	}
}
