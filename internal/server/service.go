package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "voiceguard.v1.VoiceGuardService"

const detectVoiceMethod = "/" + ServiceName + "/DetectVoice"

// VoiceGuardServer is the server API for the VoiceGuard service. Requests
// and responses are google.protobuf.Struct documents; see Request and
// Response for their fields.
type VoiceGuardServer interface {
	DetectVoice(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func detectVoiceHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VoiceGuardServer).DetectVoice(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: detectVoiceMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(VoiceGuardServer).DetectVoice(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc describes the VoiceGuard service for grpc.Server registration.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VoiceGuardServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "DetectVoice", Handler: detectVoiceHandler},
	},
	Metadata: "voiceguard/v1/voiceguard.proto",
}

// RegisterVoiceGuardServer registers srv on s.
func RegisterVoiceGuardServer(s grpc.ServiceRegistrar, srv VoiceGuardServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls the VoiceGuard service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a client over cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// DetectVoice invokes the DetectVoice RPC.
func (c *Client) DetectVoice(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, detectVoiceMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
