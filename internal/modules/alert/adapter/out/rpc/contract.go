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
	PluginMapKey      = "alert-sink"
	serviceName       = "meetingd.alert.v1.AlertSink"
	jsonCodecName     = "json"
	methodGetMetadata = "/" + serviceName + "/GetMetadata"
	methodDeliver     = "/" + serviceName + "/Deliver"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "MEETINGD_ALERT_SINK",
	MagicCookieValue: "meetingd",
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
	Name    string `json:"name"`
	Version string `json:"version"`
}

type DeliverRequest struct {
	AlertID        string            `json:"alert_id"`
	OrganizationID string            `json:"organization_id"`
	TeamID         string            `json:"team_id"`
	SessionID      string            `json:"session_id"`
	UserID         string            `json:"user_id"`
	ErrorType      string            `json:"error_type"`
	Severity       string            `json:"severity"`
	Message        string            `json:"message"`
	Phase          string            `json:"phase"`
	Context        map[string]string `json:"context"`
	OccurredAt     string            `json:"occurred_at"`
}

type DeliverResponse struct {
	Accepted bool   `json:"accepted"`
	Detail   string `json:"detail"`
}

type AlertSinkServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	Deliver(ctx context.Context, in *DeliverRequest) (*DeliverResponse, error)
}

type AlertSinkClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	Deliver(ctx context.Context, in *DeliverRequest) (*DeliverResponse, error)
}

type alertSinkClient struct {
	conn *grpc.ClientConn
}

func NewAlertSinkClient(conn *grpc.ClientConn) AlertSinkClient {
	return &alertSinkClient{conn: conn}
}

func (c *alertSinkClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	out := &Metadata{}
	if err := c.conn.Invoke(ctx, methodGetMetadata, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *alertSinkClient) Deliver(ctx context.Context, in *DeliverRequest) (*DeliverResponse, error) {
	out := &DeliverResponse{}
	if err := c.conn.Invoke(ctx, methodDeliver, in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterAlertSinkServer(server grpc.ServiceRegistrar, impl AlertSinkServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*AlertSinkServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "GetMetadata",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &Empty{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.GetMetadata(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetMetadata}
					handler := func(ctx context.Context, req any) (any, error) {
						empty, ok := req.(*Empty)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.GetMetadata(ctx, empty)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
			{
				MethodName: "Deliver",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &DeliverRequest{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.Deliver(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodDeliver}
					handler := func(ctx context.Context, req any) (any, error) {
						inReq, ok := req.(*DeliverRequest)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.Deliver(ctx, inReq)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "alert-sink-v1",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl AlertSinkServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterAlertSinkServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewAlertSinkClient(conn), nil
}

func PluginMap(impl AlertSinkServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
