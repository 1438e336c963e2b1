package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const serviceName = "hotswap.v1.Settings"

// SettingsServer is the hotswap.v1.Settings service. Messages are
// protobuf well-known types so no generated code is needed:
//
//	Get(StringValue key)            -> Struct{value, version}
//	Put(Struct{key, value})         -> UInt64Value version
//	Delete(StringValue key)         -> UInt64Value version
//	Snapshot(Empty)                 -> Struct{version, values}
type SettingsServer interface {
	Get(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Put(context.Context, *structpb.Struct) (*wrapperspb.UInt64Value, error)
	Delete(context.Context, *wrapperspb.StringValue) (*wrapperspb.UInt64Value, error)
	Snapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func RegisterSettingsServer(s grpc.ServiceRegistrar, srv SettingsServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*SettingsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Get", Handler: unary(func(s SettingsServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
			return s.Get(ctx, in)
		})},
		{MethodName: "Put", Handler: unary(func(s SettingsServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.Put(ctx, in)
		})},
		{MethodName: "Delete", Handler: unary(func(s SettingsServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
			return s.Delete(ctx, in)
		})},
		{MethodName: "Snapshot", Handler: unary(func(s SettingsServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.Snapshot(ctx, in)
		})},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hotswap/v1/settings.proto",
}

// unary builds the method handler protoc-gen-go-grpc would generate
// for one method.
func unary[Req any, PReq interface {
	*Req
}](call func(SettingsServer, context.Context, PReq) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SettingsServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(ctx)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SettingsServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func fullMethod(ctx context.Context) string {
	if m, ok := grpc.Method(ctx); ok {
		return m
	}
	return "/" + serviceName
}
