package handlers

import (
	"encoding/json"
	"errors"
	"fmt"

	e "github.com/timeoverseer/overseer/internal/company/errors"
	"github.com/timeoverseer/overseer/internal/company/models"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type companyUpdateJSON struct {
	ID       int64        `json:"id"`
	Name     *string      `json:"name"`
	Founded  *models.Date `json:"founded"`
	Industry *string      `json:"industry"`
	Founders *string      `json:"founders"`
	Products *string      `json:"products"`
}

type pageJSON struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type addCustomerJSON struct {
	CompanyID int64 `json:"companyId"`
	Customer  *struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"customer"`
}

type addEmployeeJSON struct {
	CompanyID int64 `json:"companyId"`
	Employee  *struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Position  string `json:"position"`
	} `json:"employee"`
}

type removeMemberJSON struct {
	CompanyID  int64 `json:"companyId"`
	CustomerID int64 `json:"customerId"`
	EmployeeID int64 `json:"employeeId"`
}

// decodeStruct reads a protobuf Struct into v through its JSON form.
func decodeStruct(s *structpb.Struct, v interface{}) error {
	if s == nil {
		return errors.New("empty request")
	}
	data, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func encodeJSON(data []byte, m proto.Message) error {
	return protojson.Unmarshal(data, m)
}

// protoToModel converts a protobuf Struct holding a company graph into a
// Company model.
func (h *CompanyHandler) protoToModel(s *structpb.Struct) (*models.Company, error) {
	if s == nil || len(s.GetFields()) == 0 {
		return nil, errors.New("nil company data")
	}
	data, err := protojson.Marshal(s)
	if err != nil {
		return nil, err
	}
	return models.UnmarshalCompany(data)
}

// protoToUpdate converts a protobuf Struct into a CompanyUpdate. Fields
// absent from the struct are left unchanged.
func (h *CompanyHandler) protoToUpdate(s *structpb.Struct) (*models.CompanyUpdate, error) {
	var u companyUpdateJSON
	if err := decodeStruct(s, &u); err != nil {
		return nil, fmt.Errorf("invalid update data: %w", err)
	}
	if u.ID == 0 {
		return nil, errors.New("invalid company ID")
	}
	return &models.CompanyUpdate{
		ID:       u.ID,
		Name:     u.Name,
		Founded:  u.Founded,
		Industry: u.Industry,
		Founders: u.Founders,
		Products: u.Products,
	}, nil
}

// modelToProto converts a Company model into a protobuf Struct.
func (h *CompanyHandler) modelToProto(company *models.Company) (*structpb.Struct, error) {
	data, err := models.MarshalCompany(company)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := encodeJSON(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

// modelsToProto converts companies into a protobuf ListValue sharing one
// identity scope.
func (h *CompanyHandler) modelsToProto(companies []*models.Company) (*structpb.ListValue, error) {
	data, err := models.MarshalCompanies(companies)
	if err != nil {
		return nil, err
	}
	out := &structpb.ListValue{}
	if err := encodeJSON(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

// mapServiceError maps domain or repository errors to appropriate gRPC status codes.
func (h *CompanyHandler) mapServiceError(err error) error {
	switch {
	case errors.Is(err, e.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, e.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		h.logger.Error("Internal server error", zap.Error(err))
		return status.Error(codes.Internal, fmt.Sprintf("internal server error: %v", err))
	}
}
