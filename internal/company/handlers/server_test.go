package handlers

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	e "github.com/timeoverseer/overseer/internal/company/errors"
	"github.com/timeoverseer/overseer/internal/company/models"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	testGRPCPort = 50151
	testHTTPPort = 18180
)

// dummyCompanyController answers every read with a fixed company.
func dummyCompanyController() *mockCompanyController {
	return &mockCompanyController{
		getCompanyFunc: func(_ context.Context, id int64) (*models.Company, error) {
			// Return a dummy company.
			return sampleCompany(id), nil
		},
	}
}

func TestServer_RegisterHTTPGateway(t *testing.T) {
	logger := zaptest.NewLogger(t)
	// Create a new Server with fixed ports.
	s := NewServer(testGRPCPort, testHTTPPort, logger)
	// Call RegisterHTTPGateway with proper dial options.
	err := s.RegisterHTTPGateway([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, "secret", nil)
	if err != nil {
		t.Fatalf("RegisterHTTPGateway failed: %v", err)
	}
	defer s.gatewayConn.Close()

	// Verify that the HTTP server is configured.
	if s.httpServer.Handler == nil {
		t.Error("expected httpServer.Handler to be set")
	}
	if s.httpServer.Addr != s.httpEndpoint {
		t.Errorf("expected httpServer.Addr %q, got %q", s.httpEndpoint, s.httpServer.Addr)
	}
}

func TestServer_StartStop(t *testing.T) {
	logger := zaptest.NewLogger(t)
	// Use fixed ports so we know what address to dial.
	s := NewServer(testGRPCPort, testHTTPPort, logger, grpc.Creds(insecure.NewCredentials()))

	// Create a CompanyHandler using a dummy controller.
	handler := NewCompanyHandler(dummyCompanyController(), logger)
	s.RegisterGRPCHandler(handler)

	// Also register the HTTP gateway.
	if err := s.RegisterHTTPGateway([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, "secret", nil); err != nil {
		t.Fatalf("RegisterHTTPGateway failed: %v", err)
	}

	// Start the server in a separate goroutine.
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	// Give the server a moment to start.
	time.Sleep(200 * time.Millisecond)

	conn, err := grpc.NewClient(
		fmt.Sprintf("localhost:%d", testGRPCPort),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to connect to gRPC server: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	company, err := NewCompanyServiceClient(conn).GetCompany(ctx, wrapperspb.Int64(7))
	if err != nil {
		t.Errorf("GetCompany over gRPC failed: %v", err)
	} else if id := company.GetFields()["id"].GetNumberValue(); id != 7 {
		t.Errorf("expected company 7, got %v", id)
	}
	conn.Close()

	// The gateway proxies to the same server.
	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/v1/companies/7", testHTTPPort))
	if err != nil {
		t.Errorf("GET through gateway failed: %v", err)
	} else {
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", resp.StatusCode)
		}
		resp.Body.Close()
	}

	// Stop the server.
	s.Stop()

	// Wait for Start() to return.
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Server Start returned error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for server to stop")
	}

	// Verify that the gRPC server has stopped by attempting to listen on the same endpoint.
	lis, err := net.Listen("tcp", s.grpcEndpoint)
	if err != nil {
		t.Errorf("expected to be able to listen on %q after shutdown, but got error: %v", s.grpcEndpoint, err)
	} else {
		lis.Close()
	}
}

func TestMetrics_UnaryInterceptor(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	interceptor := metrics.UnaryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: FullMethod("GetCompany")}

	_, _ = interceptor(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		return "ok", nil
	})
	_, err := interceptor(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		return nil, (&CompanyHandler{logger: zaptest.NewLogger(t)}).mapServiceError(e.ErrNotFound)
	})
	if status.Code(err).String() != "NotFound" {
		t.Fatalf("expected NotFound to pass through, got %v", err)
	}

	if got := testutil.ToFloat64(metrics.Requests.WithLabelValues(FullMethod("GetCompany"), "OK")); got != 1 {
		t.Errorf("expected 1 OK request, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Requests.WithLabelValues(FullMethod("GetCompany"), "NotFound")); got != 1 {
		t.Errorf("expected 1 NotFound request, got %v", got)
	}
	if got := testutil.CollectAndCount(metrics.Latency); got != 1 {
		t.Errorf("expected one latency series, got %d", got)
	}
}
