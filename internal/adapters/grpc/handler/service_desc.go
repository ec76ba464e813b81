package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName は DashboardService の完全修飾名です。
const ServiceName = "taskvault.dashboard.v1.DashboardService"

// DashboardServer は DashboardService が提供する RPC です。
// メッセージは全て google.protobuf.Struct で表現します。
type DashboardServer interface {
	ResolveSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCatalog(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateEmployee(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateEmployee(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ToggleTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreatePenalty(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeletePenalty(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SwitchRole(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ClearRole(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WatchBoard(*structpb.Struct, grpc.ServerStream) error
}

type unaryMethod func(DashboardServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			server := srv.(DashboardServer)
			if interceptor == nil {
				return call(server, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(server, ctx, req.(*structpb.Struct))
			})
		},
	}
}

func watchBoardHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(DashboardServer).WatchBoard(in, stream)
}

// FullMethod は RPC 名から gRPC のメソッドパスを返します。
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

var dashboardServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DashboardServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ResolveSession", DashboardServer.ResolveSession),
		unary("ListCatalog", DashboardServer.ListCatalog),
		unary("CreateEmployee", DashboardServer.CreateEmployee),
		unary("UpdateEmployee", DashboardServer.UpdateEmployee),
		unary("CreateTask", DashboardServer.CreateTask),
		unary("ToggleTask", DashboardServer.ToggleTask),
		unary("DeleteTask", DashboardServer.DeleteTask),
		unary("CreatePenalty", DashboardServer.CreatePenalty),
		unary("DeletePenalty", DashboardServer.DeletePenalty),
		unary("SwitchRole", DashboardServer.SwitchRole),
		unary("ClearRole", DashboardServer.ClearRole),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchBoard",
			Handler:       watchBoardHandler,
			ServerStreams: true,
		},
	},
	Metadata: "taskvault/dashboard/v1/dashboard.proto",
}

// RegisterDashboardServer は DashboardService をサーバーへ登録します。
func RegisterDashboardServer(s grpc.ServiceRegistrar, srv DashboardServer) {
	s.RegisterService(&dashboardServiceDesc, srv)
}

// WatchBoardStreamDesc はクライアントから WatchBoard を呼び出す際のストリーム定義です。
var WatchBoardStreamDesc = &grpc.StreamDesc{StreamName: "WatchBoard", ServerStreams: true}
