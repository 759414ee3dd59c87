package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "typecast.v1.CastService"

const (
	checkCastMethod      = "/" + ServiceName + "/CheckCast"
	checkCastBatchMethod = "/" + ServiceName + "/CheckCastBatch"
)

// CastServiceServer is the server API for typecast.v1.CastService. Requests
// and responses are google.protobuf.Struct messages.
type CastServiceServer interface {
	// CheckCast takes {"source", "target"} and returns one verdict.
	CheckCast(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// CheckCastBatch takes {"pairs": [{"source", "target"}, ...]} and returns
	// {"results": [...]} in request order.
	CheckCastBatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// CastServiceDesc describes typecast.v1.CastService for grpc.Server.
var CastServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CastServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckCast", Handler: checkCastHandler},
		{MethodName: "CheckCastBatch", Handler: checkCastBatchHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "typecast/v1/cast.proto",
}

// RegisterCastServiceServer registers srv on s.
func RegisterCastServiceServer(s grpc.ServiceRegistrar, srv CastServiceServer) {
	s.RegisterService(&CastServiceDesc, srv)
}

func checkCastHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CastServiceServer).CheckCast(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: checkCastMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CastServiceServer).CheckCast(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func checkCastBatchHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CastServiceServer).CheckCastBatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: checkCastBatchMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CastServiceServer).CheckCastBatch(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// CastServiceClient calls typecast.v1.CastService.
type CastServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewCastServiceClient creates a client on an established connection.
func NewCastServiceClient(cc grpc.ClientConnInterface) *CastServiceClient {
	return &CastServiceClient{cc: cc}
}

// CheckCast calls CastService.CheckCast.
func (c *CastServiceClient) CheckCast(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, checkCastMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// CheckCastBatch calls CastService.CheckCastBatch.
func (c *CastServiceClient) CheckCastBatch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, checkCastBatchMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
