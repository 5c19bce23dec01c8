package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"calmvibe/internal/modules/session/domain"
	sessionout "calmvibe/internal/modules/session/port/out"
)

// FileNoteWriter lays notes out as root/YYYY/MM/DD/HHMMSS-<id>-<guide>.md.
type FileNoteWriter struct{}

func NewFileNoteWriter() sessionout.NoteWriter {
	return FileNoteWriter{}
}

func (FileNoteWriter) Write(_ context.Context, root string, record domain.Record, content string) (string, error) {
	date := record.RecordedAt.Local()
	dir := filepath.Join(root, date.Format("2006"), date.Format("01"), date.Format("02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create note dir: %w", err)
	}
	name := fmt.Sprintf("%s-%d-%s.md", date.Format("150405"), record.ID, strings.ToLower(string(record.GuideType)))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write session note: %w", err)
	}
	return path, nil
}
