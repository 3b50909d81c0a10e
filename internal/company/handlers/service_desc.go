package handlers

import (
	"context"

	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "overseer.v1.CompanyService"

// FullMethod returns the gRPC method path for method, as seen by interceptors.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// CompanyServiceServer is the server API for the company service.
// Companies travel as structpb.Struct values holding the company JSON graph.
type CompanyServiceServer interface {
	CreateCompany(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCompany(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	// ListCompanies takes {"offset": n, "limit": n}.
	ListCompanies(context.Context, *structpb.Struct) (*structpb.ListValue, error)
	// UpdateCompany takes {"id": n} plus the fields to change.
	UpdateCompany(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteCompany(context.Context, *wrapperspb.Int64Value) (*emptypb.Empty, error)
	DescribeCompany(context.Context, *wrapperspb.Int64Value) (*httpbody.HttpBody, error)
	// AddCustomer takes {"companyId": n, "customer": {...}}.
	AddCustomer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// RemoveCustomer takes {"companyId": n, "customerId": n}.
	RemoveCustomer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// AddEmployee takes {"companyId": n, "employee": {...}}.
	AddEmployee(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// RemoveEmployee takes {"companyId": n, "employeeId": n}.
	RemoveEmployee(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// CompanyServiceDesc is the grpc.ServiceDesc for the company service.
var CompanyServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CompanyServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("CreateCompany", CompanyServiceServer.CreateCompany),
		unaryMethod("GetCompany", CompanyServiceServer.GetCompany),
		unaryMethod("ListCompanies", CompanyServiceServer.ListCompanies),
		unaryMethod("UpdateCompany", CompanyServiceServer.UpdateCompany),
		unaryMethod("DeleteCompany", CompanyServiceServer.DeleteCompany),
		unaryMethod("DescribeCompany", CompanyServiceServer.DescribeCompany),
		unaryMethod("AddCustomer", CompanyServiceServer.AddCustomer),
		unaryMethod("RemoveCustomer", CompanyServiceServer.RemoveCustomer),
		unaryMethod("AddEmployee", CompanyServiceServer.AddEmployee),
		unaryMethod("RemoveEmployee", CompanyServiceServer.RemoveEmployee),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "overseer/v1/company.proto",
}

// RegisterCompanyServiceServer registers srv on s.
func RegisterCompanyServiceServer(s grpc.ServiceRegistrar, srv CompanyServiceServer) {
	s.RegisterService(&CompanyServiceDesc, srv)
}

// unaryMethod builds the method descriptor the protoc plugin would generate
// for a unary RPC.
func unaryMethod[Req any, Resp any](
	name string,
	call func(CompanyServiceServer, context.Context, *Req) (Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(
			srv interface{},
			ctx context.Context,
			dec func(interface{}) error,
			interceptor grpc.UnaryServerInterceptor,
		) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CompanyServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(CompanyServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// CompanyServiceClient is the client API for the company service.
type CompanyServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCompanyServiceClient(cc grpc.ClientConnInterface) *CompanyServiceClient {
	return &CompanyServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in interface{}, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CompanyServiceClient) CreateCompany(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, "CreateCompany", in, opts)
}

func (c *CompanyServiceClient) GetCompany(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, "GetCompany", in, opts)
}

func (c *CompanyServiceClient) ListCompanies(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	return invoke[structpb.ListValue](ctx, c.cc, "ListCompanies", in, opts)
}

func (c *CompanyServiceClient) UpdateCompany(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, "UpdateCompany", in, opts)
}

func (c *CompanyServiceClient) DeleteCompany(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, "DeleteCompany", in, opts)
}

func (c *CompanyServiceClient) DescribeCompany(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*httpbody.HttpBody, error) {
	return invoke[httpbody.HttpBody](ctx, c.cc, "DescribeCompany", in, opts)
}

func (c *CompanyServiceClient) AddCustomer(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, "AddCustomer", in, opts)
}

func (c *CompanyServiceClient) RemoveCustomer(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, "RemoveCustomer", in, opts)
}

func (c *CompanyServiceClient) AddEmployee(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, "AddEmployee", in, opts)
}

func (c *CompanyServiceClient) RemoveEmployee(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, "RemoveEmployee", in, opts)
}
