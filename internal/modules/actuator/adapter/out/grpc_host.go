package out

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	actuatorrpc "calmvibe/internal/modules/actuator/adapter/out/rpc"
	"calmvibe/internal/modules/actuator/domain"
	actuatorout "calmvibe/internal/modules/actuator/port/out"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 2 * time.Second
)

// GRPCHost runs short-lived plugin processes for inspection.
type GRPCHost struct {
	logger hclog.Logger
}

func NewGRPCHost(logger hclog.Logger) actuatorout.Host {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &GRPCHost{logger: logger}
}

func (h *GRPCHost) CheckLifecycle(ctx context.Context, manifest domain.Manifest) error {
	_, err := h.GetMetadata(ctx, manifest)
	return err
}

func (h *GRPCHost) GetMetadata(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error) {
	conn, err := dial(manifest.Binary, h.logger.Named(manifest.Name))
	if err != nil {
		return domain.Metadata{}, err
	}
	defer conn.close()

	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	meta, err := conn.client.GetMetadata(callCtx)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return domain.Metadata{}, fmt.Errorf("%w: %s", domain.ErrActuatorTimeout, manifest.Name)
		}
		return domain.Metadata{}, fmt.Errorf("get metadata: %w", err)
	}
	capabilities := make([]domain.Capability, 0, len(meta.Capabilities))
	for _, c := range meta.Capabilities {
		capabilities = append(capabilities, domain.Capability(c))
	}
	return domain.Metadata{Name: meta.Name, Version: meta.Version, Capabilities: capabilities}, nil
}

type connection struct {
	plugin *plugin.Client
	client actuatorrpc.ActuatorClient
}

func (c *connection) close() {
	c.plugin.Kill()
}

func (c *connection) exited() bool {
	return c.plugin.Exited()
}

func dial(binary string, logger hclog.Logger) (*connection, error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  actuatorrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          actuatorrpc.PluginMap(nil),
		Cmd:              exec.Command(binary),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           logger,
	})
	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("start actuator plugin: %w", err)
	}
	raw, err := rpcClient.Dispense(actuatorrpc.PluginMapKey)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispense actuator plugin: %w", err)
	}
	typed, ok := raw.(actuatorrpc.ActuatorClient)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("actuator rpc client type mismatch")
	}
	return &connection{plugin: client, client: typed}, nil
}

func callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
