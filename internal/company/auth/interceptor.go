// Package auth guards the company API with HMAC-signed JWTs, both on the
// gRPC server and on the HTTP gateway in front of it.
package auth

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const servicePrefix = "/overseer.v1.CompanyService/"

// ProtectedMethods lists the RPCs that modify companies.
var ProtectedMethods = []string{
	servicePrefix + "CreateCompany",
	servicePrefix + "UpdateCompany",
	servicePrefix + "DeleteCompany",
	servicePrefix + "AddCustomer",
	servicePrefix + "RemoveCustomer",
	servicePrefix + "AddEmployee",
	servicePrefix + "RemoveEmployee",
}

// Interceptor authenticates calls to ProtectedMethods.
type Interceptor struct {
	jwtSecret        string
	protectedMethods map[string]bool
}

func NewAuthInterceptor(jwtSecret string) *Interceptor {
	protected := make(map[string]bool, len(ProtectedMethods))
	for _, method := range ProtectedMethods {
		protected[method] = true
	}
	return &Interceptor{
		jwtSecret:        jwtSecret,
		protectedMethods: protected,
	}
}

// Unary returns a unary server interceptor that stores the caller's claims in
// the context of protected calls and rejects calls without a valid token.
func (i *Interceptor) Unary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if !i.protectedMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "metadata missing")
		}
		tokenString, err := extractTokenFromMetadata(md)
		if err != nil {
			return nil, err
		}
		claims, err := validateToken(tokenString, i.jwtSecret)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		return handler(withClaims(ctx, claims), req)
	}
}

func extractTokenFromMetadata(md metadata.MD) (string, error) {
	var header string
	if values := md.Get("authorization"); len(values) > 0 {
		header = values[0]
	}
	token, err := bearerToken(header)
	if err != nil {
		return "", status.Error(codes.Unauthenticated, err.Error())
	}
	return token, nil
}
