package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeSurvivesWrapping(t *testing.T) {
	t.Parallel()
	err := fmt.Errorf("start guidance: %w", fmt.Errorf("%w: bpm=0", ErrInvalidBPM))
	if got := Code(err); got != "invalid_bpm" {
		t.Fatalf("unexpected code: %q", got)
	}
	if !errors.Is(err, ErrInvalidBPM) {
		t.Fatalf("expected errors.Is to match sentinel")
	}
	if Code(errors.New("plain")) != "" {
		t.Fatalf("expected empty code for uncoded error")
	}
}
