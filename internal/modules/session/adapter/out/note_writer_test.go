package out

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"calmvibe/internal/modules/session/domain"
)

func TestFileNoteWriterLaysOutByDate(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.Local)
	path, err := NewFileNoteWriter().Write(context.Background(), root, domain.Record{ID: 7, RecordedAt: at, GuideType: domain.GuideBreath}, "# Breath session\n")
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	want := filepath.Join(root, "2026", "02", "03", "040506-7-breath.md")
	if path != want {
		t.Fatalf("unexpected path: %s", path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(raw), "# Breath") {
		t.Fatalf("unexpected content: %s", raw)
	}
}
