package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// RemoteStoreServer is the server API for the RemoteStore service.
type RemoteStoreServer interface {
	Ping(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Insert(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Update(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Delete(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Select(context.Context, *structpb.Struct) (*structpb.ListValue, error)
	PresignPhoto(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterRemoteStoreServer attaches srv to s.
func RegisterRemoteStoreServer(s grpc.ServiceRegistrar, srv RemoteStoreServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func _Ping_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RemoteStoreServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodPing}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RemoteStoreServer).Ping(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _Insert_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RemoteStoreServer).Insert(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodInsert}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RemoteStoreServer).Insert(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _Update_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RemoteStoreServer).Update(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodUpdate}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RemoteStoreServer).Update(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _Delete_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RemoteStoreServer).Delete(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodDelete}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RemoteStoreServer).Delete(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _Select_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RemoteStoreServer).Select(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodSelect}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RemoteStoreServer).Select(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _PresignPhoto_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RemoteStoreServer).PresignPhoto(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodPresignPhoto}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RemoteStoreServer).PresignPhoto(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc is the grpc.ServiceDesc for the RemoteStore service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RemoteStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: _Ping_Handler},
		{MethodName: "Insert", Handler: _Insert_Handler},
		{MethodName: "Update", Handler: _Update_Handler},
		{MethodName: "Delete", Handler: _Delete_Handler},
		{MethodName: "Select", Handler: _Select_Handler},
		{MethodName: "PresignPhoto", Handler: _PresignPhoto_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "estimatekeeper/remote/v1/remote_store.proto",
}
