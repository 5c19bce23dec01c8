// Package rpc is the wire contract between calmvibe and actuator plugins:
// a gRPC service carried over go-plugin with a JSON codec, so neither side
// needs generated protobuf code.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey      = "actuator"
	serviceName       = "calmvibe.actuator.v1.Actuator"
	jsonCodecName     = "json"
	methodGetMetadata = "/" + serviceName + "/GetMetadata"
	methodPlay        = "/" + serviceName + "/Play"
	methodStop        = "/" + serviceName + "/Stop"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "CALMVIBE_ACTUATOR",
	MagicCookieValue: "calmvibe",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Metadata struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Capabilities []string `json:"capabilities"`
}

// PlayRequest carries alternating on/off segment lengths, starting with on.
type PlayRequest struct {
	PatternMS []int32 `json:"pattern_ms"`
}

type ActuatorServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	Play(ctx context.Context, in *PlayRequest) (*Empty, error)
	Stop(ctx context.Context, in *Empty) (*Empty, error)
}

type ActuatorClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	Play(ctx context.Context, in *PlayRequest) error
	Stop(ctx context.Context) error
}

type actuatorClient struct {
	conn *grpc.ClientConn
}

func NewActuatorClient(conn *grpc.ClientConn) ActuatorClient {
	return &actuatorClient{conn: conn}
}

func (c *actuatorClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	out := &Metadata{}
	if err := c.conn.Invoke(ctx, methodGetMetadata, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *actuatorClient) Play(ctx context.Context, in *PlayRequest) error {
	return c.conn.Invoke(ctx, methodPlay, in, &Empty{}, grpc.CallContentSubtype(jsonCodecName))
}

func (c *actuatorClient) Stop(ctx context.Context) error {
	return c.conn.Invoke(ctx, methodStop, &Empty{}, &Empty{}, grpc.CallContentSubtype(jsonCodecName))
}

func RegisterActuatorServer(server grpc.ServiceRegistrar, impl ActuatorServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*ActuatorServer)(nil),
		Methods: []grpc.MethodDesc{
			unary("GetMetadata", methodGetMetadata, impl.GetMetadata),
			unary("Play", methodPlay, impl.Play),
			unary("Stop", methodStop, impl.Stop),
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "calmvibe/actuator/v1",
	}, impl)
}

func unary[Req, Resp any](name, fullMethod string, call func(context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				typed, ok := req.(*Req)
				if !ok {
					return nil, fmt.Errorf("invalid request type %T", req)
				}
				return call(ctx, typed)
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl ActuatorServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterActuatorServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewActuatorClient(conn), nil
}

func PluginMap(impl ActuatorServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}

// PatternToWire narrows pattern lengths for the wire.
func PatternToWire(patternMS []int) []int32 {
	out := make([]int32, len(patternMS))
	for i, v := range patternMS {
		out[i] = int32(v)
	}
	return out
}

func PatternFromWire(patternMS []int32) []int {
	out := make([]int, len(patternMS))
	for i, v := range patternMS {
		out[i] = int(v)
	}
	return out
}
