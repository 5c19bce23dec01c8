package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
)

type Options struct {
	Path  string
	Level string
	JSON  bool
}

// New opens the log file and returns the root logger with its closer. An empty
// path logs to stderr.
func New(opts Options) (hclog.Logger, io.Closer, error) {
	var out io.WriteCloser = nopCloser{os.Stderr}
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
	}
	level := hclog.LevelFromString(opts.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "calmvibe",
		Level:      level,
		Output:     out,
		JSONFormat: opts.JSON,
	})
	return logger, out, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
