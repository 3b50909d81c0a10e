// Package handlers provides gRPC and HTTP server implementations for
// serving the CompanyService, bridging the transport layer and business logic,
// translating between protobuf messages and domain models.
package handlers

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/timeoverseer/overseer/internal/company/auth"
	"github.com/timeoverseer/overseer/internal/company/models"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// CompanyController defines the business logic interface
// that the gRPC/HTTP handlers will invoke.
type CompanyController interface {
	CreateCompany(ctx context.Context, company *models.Company) (*models.Company, error)
	GetCompany(ctx context.Context, id int64) (*models.Company, error)
	ListCompanies(ctx context.Context, offset, limit int) ([]*models.Company, error)
	UpdateCompany(ctx context.Context, update *models.CompanyUpdate) (*models.Company, error)
	DeleteCompany(ctx context.Context, id int64) error
	DescribeCompany(ctx context.Context, id int64) (string, error)
	AddCustomer(ctx context.Context, companyID int64, customer *models.Customer) (*models.Company, error)
	RemoveCustomer(ctx context.Context, companyID, customerID int64) (*models.Company, error)
	AddEmployee(ctx context.Context, companyID int64, employee *models.Employee) (*models.Company, error)
	RemoveEmployee(ctx context.Context, companyID, employeeID int64) (*models.Company, error)
}

// Server holds references to both a gRPC server and an HTTP server.
type Server struct {
	grpcServer   *grpc.Server
	httpServer   *http.Server
	gatewayConn  *grpc.ClientConn
	logger       *zap.Logger
	grpcEndpoint string
	httpEndpoint string
}

// NewServer constructs a Server with separate endpoints for gRPC and HTTP.
func NewServer(
	grpcPort int,
	httpPort int,
	logger *zap.Logger,
	grpcOpts ...grpc.ServerOption,
) *Server {
	return &Server{
		grpcServer:   grpc.NewServer(grpcOpts...),
		httpServer:   &http.Server{ReadHeaderTimeout: 10 * time.Second},
		logger:       logger,
		grpcEndpoint: fmt.Sprintf(":%d", grpcPort),
		httpEndpoint: fmt.Sprintf(":%d", httpPort),
	}
}

// RegisterGRPCHandler registers the gRPC handler for the CompanyService.
func (s *Server) RegisterGRPCHandler(h *CompanyHandler) {
	RegisterCompanyServiceServer(s.grpcServer, h)
}

// RegisterHTTPGateway sets up the HTTP reverse-proxy to the gRPC endpoint
// with the specified dial options. Mutating routes require a JWT.
func (s *Server) RegisterHTTPGateway(dialOpts []grpc.DialOption, jwtSecret string, metrics http.Handler) error {
	conn, err := grpc.NewClient(s.grpcEndpoint, dialOpts...)
	if err != nil {
		return fmt.Errorf("failed to create gateway client: %w", err)
	}

	gateway, err := NewGateway(NewCompanyServiceClient(conn), metrics, s.logger)
	if err != nil {
		_ = conn.Close()
		return err
	}

	s.gatewayConn = conn
	s.httpServer.Handler = auth.HTTPMiddleware(gateway, jwtSecret)
	s.httpServer.Addr = s.httpEndpoint
	return nil
}

// Start runs the gRPC and HTTP servers concurrently, returning on the first error.
func (s *Server) Start() error {
	var wg sync.WaitGroup
	wg.Add(2)
	errChan := make(chan error, 2)

	// Start gRPC Server
	go func() {
		defer wg.Done()
		s.logger.Info("Starting gRPC server", zap.String("endpoint", s.grpcEndpoint))
		lis, err := net.Listen("tcp", s.grpcEndpoint)
		if err != nil {
			errChan <- fmt.Errorf("gRPC listen error: %w", err)
			return
		}
		if err := s.grpcServer.Serve(lis); err != nil {
			errChan <- fmt.Errorf("gRPC serve error: %w", err)
		}
	}()

	// Start HTTP Server
	go func() {
		defer wg.Done()
		s.logger.Info("Starting HTTP server", zap.String("endpoint", s.httpEndpoint))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP serve error: %w", err)
		}
	}()

	go func() {
		wg.Wait()
		close(errChan)
	}()

	for err := range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}

// Stop gracefully shuts down both gRPC and HTTP servers.
func (s *Server) Stop() {
	s.logger.Info("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	s.grpcServer.GracefulStop()
	if s.gatewayConn != nil {
		if err := s.gatewayConn.Close(); err != nil {
			s.logger.Error("Gateway connection close error", zap.Error(err))
		}
	}

	s.logger.Info("Servers stopped")
}
