// Command calmvibe-bell is the reference actuator plugin. It rings the
// terminal bell at the start of every "on" segment it is asked to play.
//
// Output goes to /dev/tty, or to the file named by CALMVIBE_BELL_OUTPUT.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	actuatorrpc "calmvibe/internal/modules/actuator/adapter/out/rpc"
	guidanceout "calmvibe/internal/modules/guidance/adapter/out"
	"calmvibe/internal/platform/clock"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

const outputEnv = "CALMVIBE_BELL_OUTPUT"

type server struct {
	logger hclog.Logger

	mu    sync.Mutex
	bell  *guidanceout.BellActuator
	close io.Closer
}

func (s *server) open() (*guidanceout.BellActuator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bell != nil {
		return s.bell, nil
	}
	path := os.Getenv(outputEnv)
	flags := os.O_WRONLY
	if path == "" {
		path = "/dev/tty"
	} else {
		flags |= os.O_CREATE | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open bell output: %w", err)
	}
	s.close = f
	s.bell = guidanceout.NewBellActuator(f, clock.SystemClock{})
	s.logger.Debug("bell output opened", "path", path)
	return s.bell, nil
}

func (s *server) current() *guidanceout.BellActuator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bell
}

func (s *server) GetMetadata(context.Context, *actuatorrpc.Empty) (*actuatorrpc.Metadata, error) {
	return &actuatorrpc.Metadata{
		Name:         "bell",
		Version:      "1.0.0",
		Capabilities: []string{"vibrate"},
	}, nil
}

func (s *server) Play(ctx context.Context, in *actuatorrpc.PlayRequest) (*actuatorrpc.Empty, error) {
	bell, err := s.open()
	if err != nil {
		return nil, err
	}
	if err := bell.Play(ctx, actuatorrpc.PatternFromWire(in.PatternMS)); err != nil {
		return nil, err
	}
	return &actuatorrpc.Empty{}, nil
}

func (s *server) Stop(ctx context.Context, _ *actuatorrpc.Empty) (*actuatorrpc.Empty, error) {
	if bell := s.current(); bell != nil {
		if err := bell.Stop(ctx); err != nil {
			return nil, err
		}
	}
	return &actuatorrpc.Empty{}, nil
}

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "calmvibe-bell",
		Level:      hclog.Info,
		Output:     os.Stderr,
		JSONFormat: true,
	})
	srv := &server{logger: logger}
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: actuatorrpc.HandshakeConfig,
		Plugins:         actuatorrpc.PluginMap(srv),
		GRPCServer:      plugin.DefaultGRPCServer,
		Logger:          logger,
	})
	if srv.close != nil {
		_ = srv.close.Close()
	}
}
