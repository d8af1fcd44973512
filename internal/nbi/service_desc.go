package nbi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// GridServiceName is the fully qualified gRPC service name.
const GridServiceName = "cablegrid.nbi.v1.GridService"

// GridServiceServer is the server API for the grid northbound service. Every
// method takes and returns a google.protobuf.Struct.
type GridServiceServer interface {
	CreateConnectionPoint(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveConnectionPoint(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SpawnCable(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GenerateCable(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GeneratedGeometry(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCable(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateSpark(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveSpark(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AdvanceSpark(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetSparkDirection(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SparkWorldPosition(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateTower(context.Context, *structpb.Struct) (*structpb.Struct, error)
	InstanceReady(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveStructure(context.Context, *structpb.Struct) (*structpb.Struct, error)
	LoadScenario(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ClearScenario(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSnapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Tick(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(GridServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethodDesc(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + GridServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(GridServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(GridServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// GridServiceDesc describes GridService for grpc.Server.RegisterService.
var GridServiceDesc = grpc.ServiceDesc{
	ServiceName: GridServiceName,
	HandlerType: (*GridServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethodDesc("CreateConnectionPoint", GridServiceServer.CreateConnectionPoint),
		unaryMethodDesc("RemoveConnectionPoint", GridServiceServer.RemoveConnectionPoint),
		unaryMethodDesc("SpawnCable", GridServiceServer.SpawnCable),
		unaryMethodDesc("GenerateCable", GridServiceServer.GenerateCable),
		unaryMethodDesc("GeneratedGeometry", GridServiceServer.GeneratedGeometry),
		unaryMethodDesc("GetCable", GridServiceServer.GetCable),
		unaryMethodDesc("CreateSpark", GridServiceServer.CreateSpark),
		unaryMethodDesc("RemoveSpark", GridServiceServer.RemoveSpark),
		unaryMethodDesc("AdvanceSpark", GridServiceServer.AdvanceSpark),
		unaryMethodDesc("SetSparkDirection", GridServiceServer.SetSparkDirection),
		unaryMethodDesc("SparkWorldPosition", GridServiceServer.SparkWorldPosition),
		unaryMethodDesc("CreateTower", GridServiceServer.CreateTower),
		unaryMethodDesc("InstanceReady", GridServiceServer.InstanceReady),
		unaryMethodDesc("RemoveStructure", GridServiceServer.RemoveStructure),
		unaryMethodDesc("LoadScenario", GridServiceServer.LoadScenario),
		unaryMethodDesc("ClearScenario", GridServiceServer.ClearScenario),
		unaryMethodDesc("GetSnapshot", GridServiceServer.GetSnapshot),
		unaryMethodDesc("Tick", GridServiceServer.Tick),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cablegrid/nbi/v1/grid_service",
}

// RegisterGridServiceServer registers srv on s.
func RegisterGridServiceServer(s grpc.ServiceRegistrar, srv GridServiceServer) {
	s.RegisterService(&GridServiceDesc, srv)
}

// GridClient invokes GridService methods over a client connection.
type GridClient struct {
	cc grpc.ClientConnInterface
}

// NewGridClient wraps cc.
func NewGridClient(cc grpc.ClientConnInterface) *GridClient {
	return &GridClient{cc: cc}
}

// Call invokes method (e.g. "SpawnCable") with in. A nil in sends an empty
// Struct.
func (c *GridClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+GridServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// CallMap is Call with the request built from a plain map, as accepted by
// structpb.NewStruct.
func (c *GridClient) CallMap(ctx context.Context, method string, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return c.Call(ctx, method, in, opts...)
}
