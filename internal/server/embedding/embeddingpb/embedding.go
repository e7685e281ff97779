// Package embeddingpb declares the gRPC contract of the embedding provider.
//
// The request is a google.protobuf.Struct carrying the user profile
// (user_id, size, dtype, email, nickname, favorite, lat, lng) and the reply is a
// google.protobuf.BytesValue holding the packed big-endian vector.
package embeddingpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName                 = "embedding.EmbeddingService"
	UserEmbeddingFullMethodName = "/embedding.EmbeddingService/UserEmbedding"
)

// EmbeddingServiceClient is the client API for EmbeddingService.
type EmbeddingServiceClient interface {
	UserEmbedding(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type embeddingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewEmbeddingServiceClient(cc grpc.ClientConnInterface) EmbeddingServiceClient {
	return &embeddingServiceClient{cc}
}

func (c *embeddingServiceClient) UserEmbedding(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, UserEmbeddingFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// EmbeddingServiceServer is the server API for EmbeddingService.
type EmbeddingServiceServer interface {
	UserEmbedding(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
}

// UnimplementedEmbeddingServiceServer can be embedded to have forward
// compatible implementations.
type UnimplementedEmbeddingServiceServer struct{}

func (UnimplementedEmbeddingServiceServer) UserEmbedding(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method UserEmbedding not implemented")
}

func RegisterEmbeddingServiceServer(s grpc.ServiceRegistrar, srv EmbeddingServiceServer) {
	s.RegisterService(&EmbeddingService_ServiceDesc, srv)
}

func _EmbeddingService_UserEmbedding_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EmbeddingServiceServer).UserEmbedding(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: UserEmbeddingFullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EmbeddingServiceServer).UserEmbedding(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// EmbeddingService_ServiceDesc is the grpc.ServiceDesc for EmbeddingService.
var EmbeddingService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EmbeddingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "UserEmbedding",
			Handler:    _EmbeddingService_UserEmbedding_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "embedding.proto",
}
