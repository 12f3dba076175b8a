package agent

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "vaultkeeper.agent.Agent"

// Full method names.
const (
	MethodStatus      = "/" + ServiceName + "/Status"
	MethodListEntries = "/" + ServiceName + "/ListEntries"
	MethodGetEntry    = "/" + ServiceName + "/GetEntry"
	MethodLock        = "/" + ServiceName + "/Lock"
)

// AgentServer is the server side of the agent service.
type AgentServer interface {
	Status(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
	ListEntries(ctx context.Context, in *wrapperspb.StringValue) (*structpb.ListValue, error)
	GetEntry(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error)
	Lock(ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error)
}

// ServiceDesc describes the agent service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AgentServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Status", func() *emptypb.Empty { return &emptypb.Empty{} },
			func(s AgentServer, ctx context.Context, in *emptypb.Empty) (proto.Message, error) { return s.Status(ctx, in) }),
		unary("ListEntries", func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} },
			func(s AgentServer, ctx context.Context, in *wrapperspb.StringValue) (proto.Message, error) {
				return s.ListEntries(ctx, in)
			}),
		unary("GetEntry", func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} },
			func(s AgentServer, ctx context.Context, in *wrapperspb.StringValue) (proto.Message, error) {
				return s.GetEntry(ctx, in)
			}),
		unary("Lock", func() *emptypb.Empty { return &emptypb.Empty{} },
			func(s AgentServer, ctx context.Context, in *emptypb.Empty) (proto.Message, error) { return s.Lock(ctx, in) }),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "agent.proto",
}

// RegisterAgentServer registers srv on s.
func RegisterAgentServer(s grpc.ServiceRegistrar, srv AgentServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary builds a method descriptor the way protoc-gen-go-grpc would.
func unary[T proto.Message](name string, newReq func() T, call func(AgentServer, context.Context, T) (proto.Message, error)) grpc.MethodDesc {
	full := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			h := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AgentServer), ctx, req.(T))
			}
			if interceptor == nil {
				return h(ctx, in)
			}
			return interceptor(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: full}, h)
		},
	}
}
