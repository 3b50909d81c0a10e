package handlers

import (
	"context"

	"github.com/timeoverseer/overseer/internal/company/models"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// CompanyHandler provides gRPC methods for Company operations,
// mapping requests to a CompanyController interface.
type CompanyHandler struct {
	service CompanyController
	logger  *zap.Logger
}

var _ CompanyServiceServer = (*CompanyHandler)(nil)

// NewCompanyHandler constructs a new CompanyHandler with the given service and logger.
func NewCompanyHandler(service CompanyController, logger *zap.Logger) *CompanyHandler {
	return &CompanyHandler{
		service: service,
		logger:  logger.Named("grpc_handler"),
	}
}

// CreateCompany creates a company together with the customers and employees
// in the request.
func (h *CompanyHandler) CreateCompany(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	company, err := h.protoToModel(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	created, err := h.service.CreateCompany(ctx, company)
	if err != nil {
		h.logger.Error("Create company failed", zap.Error(err))
		return nil, h.mapServiceError(err)
	}
	return h.respond(created)
}

// GetCompany fetches a Company by ID, returning an error if not found.
func (h *CompanyHandler) GetCompany(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	id, err := companyID(req)
	if err != nil {
		return nil, err
	}

	company, err := h.service.GetCompany(ctx, id)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return h.respond(company)
}

// ListCompanies returns one page of companies.
func (h *CompanyHandler) ListCompanies(ctx context.Context, req *structpb.Struct) (*structpb.ListValue, error) {
	var page pageJSON
	if len(req.GetFields()) > 0 {
		if err := decodeStruct(req, &page); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
	}

	companies, err := h.service.ListCompanies(ctx, page.Offset, page.Limit)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	out, err := h.modelsToProto(companies)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return out, nil
}

// UpdateCompany processes updates to an existing Company based on the provided ID and update data.
func (h *CompanyHandler) UpdateCompany(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	update, err := h.protoToUpdate(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	updated, err := h.service.UpdateCompany(ctx, update)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return h.respond(updated)
}

// DeleteCompany removes a Company given its ID.
func (h *CompanyHandler) DeleteCompany(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	id, err := companyID(req)
	if err != nil {
		return nil, err
	}

	if err := h.service.DeleteCompany(ctx, id); err != nil {
		return nil, h.mapServiceError(err)
	}
	return &emptypb.Empty{}, nil
}

// DescribeCompany returns the diagnostic text of a Company as plain text.
func (h *CompanyHandler) DescribeCompany(ctx context.Context, req *wrapperspb.Int64Value) (*httpbody.HttpBody, error) {
	id, err := companyID(req)
	if err != nil {
		return nil, err
	}

	description, err := h.service.DescribeCompany(ctx, id)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &httpbody.HttpBody{
		ContentType: "text/plain; charset=utf-8",
		Data:        []byte(description),
	}, nil
}

func (h *CompanyHandler) AddCustomer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in addCustomerJSON
	if err := decodeStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if in.Customer == nil {
		return nil, status.Error(codes.InvalidArgument, "customer data required")
	}

	customer := &models.Customer{ID: in.Customer.ID, Name: in.Customer.Name, Email: in.Customer.Email}
	company, err := h.service.AddCustomer(ctx, in.CompanyID, customer)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return h.respond(company)
}

func (h *CompanyHandler) RemoveCustomer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in removeMemberJSON
	if err := decodeStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	company, err := h.service.RemoveCustomer(ctx, in.CompanyID, in.CustomerID)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return h.respond(company)
}

func (h *CompanyHandler) AddEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in addEmployeeJSON
	if err := decodeStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if in.Employee == nil {
		return nil, status.Error(codes.InvalidArgument, "employee data required")
	}

	employee := models.NewEmployee(in.Employee.FirstName, in.Employee.LastName, in.Employee.Position)
	company, err := h.service.AddEmployee(ctx, in.CompanyID, employee)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return h.respond(company)
}

func (h *CompanyHandler) RemoveEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in removeMemberJSON
	if err := decodeStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	company, err := h.service.RemoveEmployee(ctx, in.CompanyID, in.EmployeeID)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return h.respond(company)
}

func (h *CompanyHandler) respond(company *models.Company) (*structpb.Struct, error) {
	out, err := h.modelToProto(company)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return out, nil
}

func companyID(req *wrapperspb.Int64Value) (int64, error) {
	if req.GetValue() <= 0 {
		return 0, status.Error(codes.InvalidArgument, "invalid company ID")
	}
	return req.GetValue(), nil
}
