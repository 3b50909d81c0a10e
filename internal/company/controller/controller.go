// Package controller implements the core business logic (service layer)
// for managing Company entities, orchestrating repository operations
// and sending relevant events.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/timeoverseer/overseer/internal/company/db"
	e "github.com/timeoverseer/overseer/internal/company/errors"
	"github.com/timeoverseer/overseer/internal/company/events"
	"github.com/timeoverseer/overseer/internal/company/models"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

type EventProducer interface {
	Produce(eventType events.EventType, company *models.Company)
}

// Repository defines the storage interface for Company objects.
type Repository interface {
	CreateCompany(ctx context.Context, company *models.Company) error
	GetCompany(ctx context.Context, id int64) (*models.Company, error)
	ListCompanies(ctx context.Context, offset, limit int) ([]*models.Company, error)
	UpdateCompany(ctx context.Context, update *models.CompanyUpdate) error
	DeleteCompany(ctx context.Context, id int64) error
	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
	Close() error
}

// CompanyService provides methods to manage companies via repository
// operations and event production.
type CompanyService struct {
	repo     Repository
	producer EventProducer
	logger   *zap.Logger
}

// NewCompanyService constructs a CompanyService with a repository,
// an event producer, and a logger.
func NewCompanyService(repo Repository, producer EventProducer, logger *zap.Logger) *CompanyService {
	return &CompanyService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("company_service"),
	}
}

// CreateCompany stores a new Company together with the customers and
// employees attached to it, and triggers an event. Employees must be new.
// Customers carrying an ID must already exist and are linked as stored.
func (s *CompanyService) CreateCompany(ctx context.Context, company *models.Company) (*models.Company, error) {
	if company == nil {
		return nil, fmt.Errorf("%w: company data required", e.ErrInvalidInput)
	}
	if err := validateCompany(company); err != nil {
		return nil, err
	}
	for _, emp := range company.Employees() {
		if emp.ID != 0 {
			return nil, fmt.Errorf("%w: employee %d already exists", e.ErrInvalidInput, emp.ID)
		}
	}

	company.ID = 0
	var err error
	if hasStoredCustomers(company) {
		err = s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
			if err := resolveCustomers(ctx, tx, company); err != nil {
				return err
			}
			return tx.CreateCompany(ctx, company)
		})
	} else {
		err = s.repo.CreateCompany(ctx, company)
	}
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	s.publish(events.CompanyCreated, company)
	return company, nil
}

func hasStoredCustomers(company *models.Company) bool {
	for _, cu := range company.Customers() {
		if cu.ID != 0 {
			return true
		}
	}
	return false
}

// resolveCustomers replaces every customer reference carrying an ID with the
// stored customer, so client supplied fields never reach the customer table.
func resolveCustomers(ctx context.Context, tx *db.Repository, company *models.Company) error {
	for _, ref := range company.Customers() {
		if ref.ID == 0 {
			continue
		}
		stored, err := tx.GetCustomer(ctx, ref.ID)
		if err != nil {
			return fmt.Errorf("customer %d: %w", ref.ID, err)
		}
		company.RemoveCustomer(ref)
		company.AddCustomer(stored)
	}
	return nil
}

// GetCompany retrieves a Company by ID, returning an error if not found.
func (s *CompanyService) GetCompany(ctx context.Context, id int64) (*models.Company, error) {
	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

// ListCompanies returns a page of companies. A non-positive limit selects
// the default page size; larger limits are capped.
func (s *CompanyService) ListCompanies(ctx context.Context, offset, limit int) ([]*models.Company, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: negative offset", e.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	companies, err := s.repo.ListCompanies(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

// DescribeCompany returns the diagnostic representation of a Company,
// including its customers and employees.
func (s *CompanyService) DescribeCompany(ctx context.Context, id int64) (string, error) {
	company, err := s.GetCompany(ctx, id)
	if err != nil {
		return "", err
	}
	return company.String(), nil
}

// UpdateCompany modifies the specified Company fields,
// then fetches the updated version for returning and event production.
func (s *CompanyService) UpdateCompany(ctx context.Context, update *models.CompanyUpdate) (*models.Company, error) {
	if update == nil || update.ID == 0 {
		return nil, fmt.Errorf("%w: invalid company ID", e.ErrInvalidInput)
	}
	if update.IsEmpty() {
		return nil, fmt.Errorf("%w: nothing to update", e.ErrInvalidInput)
	}
	if err := validateUpdate(update); err != nil {
		return nil, err
	}

	err := s.repo.UpdateCompany(ctx, update)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update company: %w", err)
	}

	updated, err := s.repo.GetCompany(ctx, update.ID)
	if err != nil {
		s.logger.Error("Failed to get company for event",
			zap.Error(err),
			zap.Int64("company_id", update.ID),
		)
		return nil, err
	}
	s.publish(events.CompanyUpdated, updated)
	return updated, nil
}

// DeleteCompany removes a Company by ID, together with its employees, and
// fires a deletion event carrying the deleted state.
func (s *CompanyService) DeleteCompany(ctx context.Context, id int64) error {
	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to get company for deletion: %w", err)
	}

	if err := s.repo.DeleteCompany(ctx, id); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete company: %w", err)
	}

	s.publish(events.CompanyDeleted, company)
	return nil
}

// AddCustomer links a customer to a company. A customer with an ID must
// already exist; a customer without one is created.
func (s *CompanyService) AddCustomer(ctx context.Context, companyID int64, customer *models.Customer) (*models.Company, error) {
	if customer == nil {
		return nil, fmt.Errorf("%w: customer data required", e.ErrInvalidInput)
	}
	if customer.ID == 0 && strings.TrimSpace(customer.Name) == "" {
		return nil, fmt.Errorf("%w: customer name required", e.ErrInvalidInput)
	}

	return s.modifyCompany(ctx, companyID, func(tx *db.Repository, company *models.Company) (bool, error) {
		if customer.ID != 0 {
			existing, err := tx.GetCustomer(ctx, customer.ID)
			if err != nil {
				return false, fmt.Errorf("customer %d: %w", customer.ID, err)
			}
			customer = existing
		}
		return company.AddCustomer(customer), nil
	})
}

// RemoveCustomer unlinks a customer from a company. The customer itself is
// kept; removing a customer that is not linked changes nothing.
func (s *CompanyService) RemoveCustomer(ctx context.Context, companyID, customerID int64) (*models.Company, error) {
	if customerID == 0 {
		return nil, fmt.Errorf("%w: invalid customer ID", e.ErrInvalidInput)
	}
	return s.modifyCompany(ctx, companyID, func(_ *db.Repository, company *models.Company) (bool, error) {
		return company.RemoveCustomer(&models.Customer{ID: customerID}), nil
	})
}

// AddEmployee hires a new employee into a company.
func (s *CompanyService) AddEmployee(ctx context.Context, companyID int64, employee *models.Employee) (*models.Company, error) {
	if employee == nil {
		return nil, fmt.Errorf("%w: employee data required", e.ErrInvalidInput)
	}
	if employee.ID != 0 {
		return nil, fmt.Errorf("%w: employee already exists", e.ErrInvalidInput)
	}
	if err := validateEmployee(employee); err != nil {
		return nil, err
	}
	return s.modifyCompany(ctx, companyID, func(_ *db.Repository, company *models.Company) (bool, error) {
		return company.AddEmployee(employee), nil
	})
}

// RemoveEmployee detaches an employee from a company, which deletes the
// employee. Removing an employee the company does not have changes nothing.
func (s *CompanyService) RemoveEmployee(ctx context.Context, companyID, employeeID int64) (*models.Company, error) {
	if employeeID == 0 {
		return nil, fmt.Errorf("%w: invalid employee ID", e.ErrInvalidInput)
	}
	return s.modifyCompany(ctx, companyID, func(_ *db.Repository, company *models.Company) (bool, error) {
		return company.RemoveEmployee(&models.Employee{ID: employeeID}), nil
	})
}

// modifyCompany loads a company, applies mutate and saves the result in one
// transaction. Nothing is saved or published when mutate reports no change.
func (s *CompanyService) modifyCompany(
	ctx context.Context,
	id int64,
	mutate func(tx *db.Repository, company *models.Company) (bool, error),
) (*models.Company, error) {
	if id == 0 {
		return nil, fmt.Errorf("%w: invalid company ID", e.ErrInvalidInput)
	}

	var (
		company *models.Company
		changed bool
	)
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		loaded, err := tx.GetCompany(ctx, id)
		if err != nil {
			return err
		}
		changed, err = mutate(tx, loaded)
		if err != nil {
			return err
		}
		if changed {
			if err := tx.SaveCompany(ctx, loaded); err != nil {
				return err
			}
		}
		company = loaded
		return nil
	})
	if err != nil {
		if errors.Is(err, e.ErrNotFound) || errors.Is(err, e.ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to modify company: %w", err)
	}

	if changed {
		s.publish(events.CompanyUpdated, company)
	} else {
		s.logger.Debug("Company relationships unchanged", zap.Int64("company_id", id))
	}
	return company, nil
}

func (s *CompanyService) publish(eventType events.EventType, company *models.Company) {
	go func() {
		s.producer.Produce(eventType, company)
	}()
}

// validateCompany checks that the required attributes are present. Formats
// and ranges are not checked.
func validateCompany(c *models.Company) error {
	required := map[string]string{
		"name":     c.Name,
		"industry": c.Industry,
		"founders": c.Founders,
		"products": c.Products,
	}
	for _, field := range []string{"name", "industry", "founders", "products"} {
		if strings.TrimSpace(required[field]) == "" {
			return fmt.Errorf("%w: %s required", e.ErrInvalidInput, field)
		}
	}
	if c.Founded.IsZero() {
		return fmt.Errorf("%w: founded required", e.ErrInvalidInput)
	}
	for _, cu := range c.Customers() {
		if cu.ID == 0 && strings.TrimSpace(cu.Name) == "" {
			return fmt.Errorf("%w: customer name required", e.ErrInvalidInput)
		}
	}
	for _, emp := range c.Employees() {
		if err := validateEmployee(emp); err != nil {
			return err
		}
	}
	return nil
}

func validateEmployee(emp *models.Employee) error {
	if strings.TrimSpace(emp.FirstName) == "" || strings.TrimSpace(emp.LastName) == "" {
		return fmt.Errorf("%w: employee first and last name required", e.ErrInvalidInput)
	}
	return nil
}

func validateUpdate(u *models.CompanyUpdate) error {
	fields := []struct {
		name  string
		value *string
	}{
		{"name", u.Name},
		{"industry", u.Industry},
		{"founders", u.Founders},
		{"products", u.Products},
	}
	for _, f := range fields {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			return fmt.Errorf("%w: %s cannot be empty", e.ErrInvalidInput, f.name)
		}
	}
	if u.Founded != nil && u.Founded.IsZero() {
		return fmt.Errorf("%w: founded cannot be empty", e.ErrInvalidInput)
	}
	return nil
}
