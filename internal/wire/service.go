package wire

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully-qualified gRPC service name used by the daemon.
const ServiceName = "manager.Manager"

// Full method names, one per operation.
const (
	MethodGet            = "/" + ServiceName + "/Get"
	MethodGetCurrentClip = "/" + ServiceName + "/GetCurrentClip"
	MethodUpdate         = "/" + ServiceName + "/Update"
	MethodMark           = "/" + ServiceName + "/Mark"
	MethodInsert         = "/" + ServiceName + "/Insert"
	MethodLength         = "/" + ServiceName + "/Length"
	MethodList           = "/" + ServiceName + "/List"
	MethodRemove         = "/" + ServiceName + "/Remove"
	MethodBatchRemove    = "/" + ServiceName + "/BatchRemove"
	MethodClear          = "/" + ServiceName + "/Clear"
)

// ManagerServer is the server API of the manager service.
type ManagerServer interface {
	Get(context.Context, *GetRequest) (*GetResponse, error)
	GetCurrentClip(context.Context, *GetCurrentClipRequest) (*GetCurrentClipResponse, error)
	Update(context.Context, *UpdateRequest) (*UpdateResponse, error)
	Mark(context.Context, *MarkRequest) (*MarkResponse, error)
	Insert(context.Context, *InsertRequest) (*InsertResponse, error)
	Length(context.Context, *LengthRequest) (*LengthResponse, error)
	List(context.Context, *ListRequest) (*ListResponse, error)
	Remove(context.Context, *RemoveRequest) (*RemoveResponse, error)
	BatchRemove(context.Context, *BatchRemoveRequest) (*BatchRemoveResponse, error)
	Clear(context.Context, *ClearRequest) (*ClearResponse, error)
}

// RegisterManagerServer registers srv on s. The server must have been built
// with ServerOptions so requests are decoded by Codec.
func RegisterManagerServer(s grpc.ServiceRegistrar, srv ManagerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes the manager service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ManagerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Get", Handler: unary[GetRequest](MethodGet, ManagerServer.Get)},
		{MethodName: "GetCurrentClip", Handler: unary[GetCurrentClipRequest](MethodGetCurrentClip, ManagerServer.GetCurrentClip)},
		{MethodName: "Update", Handler: unary[UpdateRequest](MethodUpdate, ManagerServer.Update)},
		{MethodName: "Mark", Handler: unary[MarkRequest](MethodMark, ManagerServer.Mark)},
		{MethodName: "Insert", Handler: unary[InsertRequest](MethodInsert, ManagerServer.Insert)},
		{MethodName: "Length", Handler: unary[LengthRequest](MethodLength, ManagerServer.Length)},
		{MethodName: "List", Handler: unary[ListRequest](MethodList, ManagerServer.List)},
		{MethodName: "Remove", Handler: unary[RemoveRequest](MethodRemove, ManagerServer.Remove)},
		{MethodName: "BatchRemove", Handler: unary[BatchRemoveRequest](MethodBatchRemove, ManagerServer.BatchRemove)},
		{MethodName: "Clear", Handler: unary[ClearRequest](MethodClear, ManagerServer.Clear)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "manager.proto",
}

// unary adapts a typed ManagerServer method to a grpc.MethodDesc handler.
func unary[Req any, PReq interface {
	*Req
	Message
}, Resp any](
	fullMethod string,
	call func(ManagerServer, context.Context, PReq) (Resp, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ManagerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ManagerServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}
