package handlers

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timeoverseer/overseer/internal/company/auth"
	e "github.com/timeoverseer/overseer/internal/company/errors"
	"github.com/timeoverseer/overseer/internal/company/models"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

const gatewaySecret = "gateway-secret"

// gatewayHarness wires the gateway to an in-memory gRPC server carrying the
// same interceptors as the real one.
type gatewayHarness struct {
	handler http.Handler
	client  *CompanyServiceClient
	token   string
}

func newGatewayHarness(t *testing.T, ctrl CompanyController) *gatewayHarness {
	t.Helper()
	logger := zaptest.NewLogger(t)

	lis := bufconn.Listen(1 << 20)
	metrics := NewMetrics(prometheus.NewRegistry())
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		metrics.UnaryInterceptor(),
		auth.NewAuthInterceptor(gatewaySecret).Unary(),
	))
	RegisterCompanyServiceServer(srv, NewCompanyHandler(ctrl, logger))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client := NewCompanyServiceClient(conn)
	gateway, err := NewGateway(client, metrics.Handler(), logger)
	require.NoError(t, err)

	token, err := auth.GenerateToken("tester", "", gatewaySecret, time.Hour)
	require.NoError(t, err)

	return &gatewayHarness{
		handler: auth.HTTPMiddleware(gateway, gatewaySecret),
		client:  client,
		token:   token,
	}
}

func (h *gatewayHarness) do(t *testing.T, method, path, body string, authenticated bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decodeObject(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestGateway_ReadRoutes(t *testing.T) {
	ctrl := &mockCompanyController{
		getCompanyFunc: func(_ context.Context, id int64) (*models.Company, error) {
			if id != 1 {
				return nil, e.ErrNotFound
			}
			return sampleCompany(1), nil
		},
		listCompaniesFunc: func(_ context.Context, offset, limit int) ([]*models.Company, error) {
			if offset != 1 || limit != 2 {
				return nil, e.ErrInvalidInput
			}
			return []*models.Company{sampleCompany(1), sampleCompany(2)}, nil
		},
		describeCompanyFunc: func(_ context.Context, id int64) (string, error) {
			return sampleCompany(id).String(), nil
		},
	}
	h := newGatewayHarness(t, ctrl)

	t.Run("get", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/v1/companies/1", "", false)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decodeObject(t, rec)
		assert.Equal(t, "Acme", body["name"])
		assert.Equal(t, "1949-03-12", body["founded"])
		employees := body["employees"].([]interface{})
		require.Len(t, employees, 1)
		assert.Equal(t, float64(1), employees[0].(map[string]interface{})["employer"])
	})

	t.Run("not found", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/v1/companies/2", "", false)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/v1/companies/abc", "", false)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/v1/companies?offset=1&limit=2", "", false)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var list []interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		assert.Len(t, list, 2)
	})

	t.Run("list with bad limit", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/v1/companies?limit=many", "", false)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("describe", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/v1/companies/5/describe", "", false)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, sampleCompany(5).String(), rec.Body.String())
	})
}

func TestGateway_WriteRoutes(t *testing.T) {
	var (
		updated    *models.CompanyUpdate
		deletedID  int64
		customer   *models.Customer
		removedEmp int64
	)
	ctrl := &mockCompanyController{
		createCompanyFunc: func(_ context.Context, c *models.Company) (*models.Company, error) {
			c.ID = 11
			return c, nil
		},
		updateCompanyFunc: func(_ context.Context, u *models.CompanyUpdate) (*models.Company, error) {
			updated = u
			c := sampleCompany(u.ID)
			u.Apply(c)
			return c, nil
		},
		deleteCompanyFunc: func(_ context.Context, id int64) error {
			deletedID = id
			return nil
		},
		addCustomerFunc: func(_ context.Context, _ int64, c *models.Customer) (*models.Company, error) {
			customer = c
			return sampleCompany(1), nil
		},
		removeEmployeeFunc: func(_ context.Context, _ int64, employeeID int64) (*models.Company, error) {
			removedEmp = employeeID
			return sampleCompany(1), nil
		},
	}
	h := newGatewayHarness(t, ctrl)

	t.Run("create requires token", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/v1/companies", `{"name":"Acme"}`, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("create", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/v1/companies",
			`{"name":"Acme","founded":"1949-03-12","industry":"i","founders":"f","products":"p"}`, true)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, float64(11), decodeObject(t, rec)["id"])
	})

	t.Run("create with malformed body", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/v1/companies", `{"name":`, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("patch", func(t *testing.T) {
		rec := h.do(t, http.MethodPatch, "/v1/companies/3", `{"industry":"Aerospace"}`, true)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.NotNil(t, updated)
		assert.Equal(t, int64(3), updated.ID)
		require.NotNil(t, updated.Industry)
		assert.Equal(t, "Aerospace", *updated.Industry)
		assert.Nil(t, updated.Name)
		assert.Equal(t, "Aerospace", decodeObject(t, rec)["industry"])
	})

	t.Run("delete", func(t *testing.T) {
		rec := h.do(t, http.MethodDelete, "/v1/companies/4", "", true)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, int64(4), deletedID)
	})

	t.Run("add customer", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/v1/companies/1/customers", `{"name":"Elmer","email":"elmer@hunt.test"}`, true)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.NotNil(t, customer)
		assert.Equal(t, "Elmer", customer.Name)
		assert.Equal(t, "elmer@hunt.test", customer.Email)
	})

	t.Run("remove employee", func(t *testing.T) {
		rec := h.do(t, http.MethodDelete, "/v1/companies/1/employees/30", "", true)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, int64(30), removedEmp)
	})

	t.Run("remove customer requires token", func(t *testing.T) {
		rec := h.do(t, http.MethodDelete, "/v1/companies/1/customers/2", "", false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGateway_GRPCRequiresToken(t *testing.T) {
	ctrl := &mockCompanyController{
		createCompanyFunc: func(_ context.Context, c *models.Company) (*models.Company, error) {
			return c, nil
		},
	}
	h := newGatewayHarness(t, ctrl)

	req, err := structpb.NewStruct(map[string]interface{}{"name": "Acme"})
	require.NoError(t, err)

	_, err = h.client.CreateCompany(context.Background(), req)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestGateway_Metrics(t *testing.T) {
	ctrl := &mockCompanyController{
		getCompanyFunc: func(_ context.Context, _ int64) (*models.Company, error) {
			return nil, e.ErrNotFound
		},
	}
	h := newGatewayHarness(t, ctrl)

	h.do(t, http.MethodGet, "/v1/companies/9", "", false)

	rec := h.do(t, http.MethodGet, "/metrics", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `company_rpc_requests_total{code="NotFound",method="/overseer.v1.CompanyService/GetCompany"} 1`)
	assert.Contains(t, rec.Body.String(), "company_rpc_duration_seconds")
}
