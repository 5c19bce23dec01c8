package out

import (
	"context"
	"fmt"
	"sync"

	actuatorrpc "calmvibe/internal/modules/actuator/adapter/out/rpc"

	"github.com/hashicorp/go-hclog"
)

// PluginActuator drives a guidance session through one long-lived plugin
// process. The process starts on the first Play and is restarted on the next
// Play if it exits.
type PluginActuator struct {
	name   string
	binary string
	logger hclog.Logger

	mu   sync.Mutex
	conn *connection
}

func NewPluginActuator(name, binary string, logger hclog.Logger) *PluginActuator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &PluginActuator{name: name, binary: binary, logger: logger.Named(name)}
}

func (a *PluginActuator) Play(ctx context.Context, patternMS []int) error {
	client, err := a.client()
	if err != nil {
		return err
	}
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	if err := client.Play(callCtx, &actuatorrpc.PlayRequest{PatternMS: actuatorrpc.PatternToWire(patternMS)}); err != nil {
		return fmt.Errorf("actuator %s play: %w", a.name, err)
	}
	return nil
}

// Stop is a no-op when no process has been started.
func (a *PluginActuator) Stop(ctx context.Context) error {
	a.mu.Lock()
	conn := a.conn
	a.mu.Unlock()
	if conn == nil || conn.exited() {
		return nil
	}
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	if err := conn.client.Stop(callCtx); err != nil {
		return fmt.Errorf("actuator %s stop: %w", a.name, err)
	}
	return nil
}

// Close kills the plugin process.
func (a *PluginActuator) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn != nil {
		a.conn.close()
		a.conn = nil
	}
	return nil
}

func (a *PluginActuator) client() (actuatorrpc.ActuatorClient, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn != nil && !a.conn.exited() {
		return a.conn.client, nil
	}
	if a.conn != nil {
		a.logger.Warn("actuator process exited, restarting")
	}
	conn, err := dial(a.binary, a.logger)
	if err != nil {
		a.conn = nil
		return nil, err
	}
	a.conn = conn
	return conn.client, nil
}
