package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Gateway translates the REST routes under /v1/companies into calls on the
// gRPC service, the way generated grpc-gateway handlers do.
type Gateway struct {
	client    *CompanyServiceClient
	mux       *runtime.ServeMux
	marshaler runtime.Marshaler
	logger    *zap.Logger
}

// NewGateway registers the company routes on a grpc-gateway ServeMux.
// A non-nil metrics handler is served on /metrics.
func NewGateway(client *CompanyServiceClient, metrics http.Handler, logger *zap.Logger) (*Gateway, error) {
	g := &Gateway{
		client:    client,
		mux:       runtime.NewServeMux(),
		marshaler: &runtime.HTTPBodyMarshaler{Marshaler: &runtime.JSONPb{}},
		logger:    logger.Named("http_gateway"),
	}

	routes := []struct {
		method  string
		pattern string
		handler runtime.HandlerFunc
	}{
		{http.MethodPost, "/v1/companies", g.createCompany},
		{http.MethodGet, "/v1/companies", g.listCompanies},
		{http.MethodGet, "/v1/companies/{id}", g.getCompany},
		{http.MethodPatch, "/v1/companies/{id}", g.updateCompany},
		{http.MethodDelete, "/v1/companies/{id}", g.deleteCompany},
		{http.MethodGet, "/v1/companies/{id}/describe", g.describeCompany},
		{http.MethodPost, "/v1/companies/{id}/customers", g.addCustomer},
		{http.MethodDelete, "/v1/companies/{id}/customers/{customer_id}", g.removeCustomer},
		{http.MethodPost, "/v1/companies/{id}/employees", g.addEmployee},
		{http.MethodDelete, "/v1/companies/{id}/employees/{employee_id}", g.removeEmployee},
	}
	if metrics != nil {
		routes = append(routes, struct {
			method  string
			pattern string
			handler runtime.HandlerFunc
		}{http.MethodGet, "/metrics", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
			metrics.ServeHTTP(w, r)
		}})
	}

	for _, route := range routes {
		if err := g.mux.HandlePath(route.method, route.pattern, route.handler); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mux.ServeHTTP(w, r)
}

type rpcCall func(ctx context.Context, opts ...grpc.CallOption) (proto.Message, error)

// forward runs call with the request's authorization forwarded as metadata
// and writes the response or the mapped error.
func (g *Gateway) forward(w http.ResponseWriter, r *http.Request, call rpcCall) {
	ctx := r.Context()
	if authorization := r.Header.Get("Authorization"); authorization != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", authorization)
	}

	var md runtime.ServerMetadata
	resp, err := call(ctx, grpc.Header(&md.HeaderMD), grpc.Trailer(&md.TrailerMD))
	ctx = runtime.NewServerMetadataContext(ctx, md)
	if err != nil {
		g.fail(ctx, w, r, err)
		return
	}

	runtime.ForwardResponseMessage(ctx, g.mux, g.marshaler, w, r, resp)
}

func (g *Gateway) fail(ctx context.Context, w http.ResponseWriter, r *http.Request, err error) {
	if status.Code(err) == codes.Internal {
		g.logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	runtime.HTTPError(ctx, g.mux, g.marshaler, w, r, err)
}

func (g *Gateway) decodeBody(r *http.Request) (*structpb.Struct, error) {
	body := &structpb.Struct{}
	if err := g.marshaler.NewDecoder(r.Body).Decode(body); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request body: %v", err)
	}
	return body, nil
}

func pathID(params map[string]string, name string) (int64, error) {
	id, err := strconv.ParseInt(params[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, status.Errorf(codes.InvalidArgument, "invalid %s %q", name, params[name])
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, status.Errorf(codes.InvalidArgument, "invalid %s %q", name, raw)
	}
	return n, nil
}

func (g *Gateway) createCompany(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	body, err := g.decodeBody(r)
	if err != nil {
		g.fail(r.Context(), w, r, err)
		return
	}
	g.forward(w, r, func(ctx context.Context, opts ...grpc.CallOption) (proto.Message, error) {
		return g.client.CreateCompany(ctx, body, opts...)
	})
}

func (g *Gateway) listCompanies(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	offset, err := queryInt(r, "offset")
	if err != nil {
		g.fail(r.Context(), w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		g.fail(r.Context(), w, r, err)
		return
	}
	req, err := structpb.NewStruct(map[string]interface{}{"offset": offset, "limit": limit})
	if err != nil {
		g.fail(r.Context(), w, r, err)
		return
	}
	g.forward(w, r, func(ctx context.Context, opts ...grpc.CallOption) (proto.Message, error) {
		return g.client.ListCompanies(ctx, req, opts...)
	})
}

func (g *Gateway) getCompany(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params, "id")
	if err != nil {
		g.fail(r.Context(), w, r, err)
		return
	}
	g.forward(w, r, func(ctx context.Context, opts ...grpc.CallOption) (proto.Message, error) {
		return g.client.GetCompany(ctx, wrapperspb.Int64(id), opts...)
	})
}

func (g *Gateway) updateCompany(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params, "id")
	if err != nil {
		g.fail(r.Context(), w, r, err)
		return
	}
	body, err := g.decodeBody(r)
	if err != nil {
		g.fail(r.Context(), w, r, err)
		return
	}
	if body.Fields == nil {
		body.Fields = make(map[string]*structpb.Value)
	}
	body.Fields["id"] = structpb.NewNumberValue(float64(id))
	g.forward(w, r, func(ctx context.Context, opts ...grpc.CallOption) (proto.Message, error) {
		return g.client.UpdateCompany(ctx, body, opts...)
	})
}

func (g *Gateway) deleteCompany(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params, "id")
	if err != nil {
		g.fail(r.Context(), w, r, err)
		return
	}
	g.forward(w, r, func(ctx context.Context, opts ...grpc.CallOption) (proto.Message, error) {
		return g.client.DeleteCompany(ctx, wrapperspb.Int64(id), opts...)
	})
}

func (g *Gateway) describeCompany(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := pathID(params, "id")
	if err != nil {
		g.fail(r.Context(), w, r, err)
		return
	}
	g.forward(w, r, func(ctx context.Context, opts ...grpc.CallOption) (proto.Message, error) {
		return g.client.DescribeCompany(ctx, wrapperspb.Int64(id), opts...)
	})
}

// memberRequest wraps a member body as {"companyId": id, key: body}.
func (g *Gateway) memberRequest(r *http.Request, params map[string]string, key string) (*structpb.Struct, error) {
	id, err := pathID(params, "id")
	if err != nil {
		return nil, err
	}
	body, err := g.decodeBody(r)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"companyId": structpb.NewNumberValue(float64(id)),
		key:         structpb.NewStructValue(body),
	}}, nil
}

func removalRequest(params map[string]string, param, key string) (*structpb.Struct, error) {
	id, err := pathID(params, "id")
	if err != nil {
		return nil, err
	}
	memberID, err := pathID(params, param)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"companyId": structpb.NewNumberValue(float64(id)),
		key:         structpb.NewNumberValue(float64(memberID)),
	}}, nil
}

func (g *Gateway) addCustomer(w http.ResponseWriter, r *http.Request, params map[string]string) {
	req, err := g.memberRequest(r, params, "customer")
	if err != nil {
		g.fail(r.Context(), w, r, err)
		return
	}
	g.forward(w, r, func(ctx context.Context, opts ...grpc.CallOption) (proto.Message, error) {
		return g.client.AddCustomer(ctx, req, opts...)
	})
}

func (g *Gateway) removeCustomer(w http.ResponseWriter, r *http.Request, params map[string]string) {
	req, err := removalRequest(params, "customer_id", "customerId")
	if err != nil {
		g.fail(r.Context(), w, r, err)
		return
	}
	g.forward(w, r, func(ctx context.Context, opts ...grpc.CallOption) (proto.Message, error) {
		return g.client.RemoveCustomer(ctx, req, opts...)
	})
}

func (g *Gateway) addEmployee(w http.ResponseWriter, r *http.Request, params map[string]string) {
	req, err := g.memberRequest(r, params, "employee")
	if err != nil {
		g.fail(r.Context(), w, r, err)
		return
	}
	g.forward(w, r, func(ctx context.Context, opts ...grpc.CallOption) (proto.Message, error) {
		return g.client.AddEmployee(ctx, req, opts...)
	})
}

func (g *Gateway) removeEmployee(w http.ResponseWriter, r *http.Request, params map[string]string) {
	req, err := removalRequest(params, "employee_id", "employeeId")
	if err != nil {
		g.fail(r.Context(), w, r, err)
		return
	}
	g.forward(w, r, func(ctx context.Context, opts ...grpc.CallOption) (proto.Message, error) {
		return g.client.RemoveEmployee(ctx, req, opts...)
	})
}
