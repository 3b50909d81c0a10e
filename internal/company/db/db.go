// Package db is the persistence layer for companies. It maps domain models
// to the records in db/models and runs the cascade and orphan-removal
// rules for the company relationships explicitly.
package db

import (
	"context"
	"errors"
	"fmt"

	dbmodels "github.com/timeoverseer/overseer/internal/company/db/models"
	e "github.com/timeoverseer/overseer/internal/company/errors"
	"github.com/timeoverseer/overseer/internal/company/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// DefaultSchema is the database schema holding the overseer tables.
const DefaultSchema = "overseer"

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// Schema prefixes every table. Empty means the connection's default schema.
	Schema string
}

// NewRepository connects to Postgres and migrates the overseer tables.
func NewRepository(cfg *Config) (*Repository, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	return Open(postgres.Open(dsn), cfg.Schema)
}

// Open connects through the given dialector, creates the schema on Postgres
// when one is set, and auto-migrates the records.
func Open(dialector gorm.Dialector, schemaName string) (*Repository, error) {
	naming := schema.NamingStrategy{SingularTable: true}
	if schemaName != "" {
		naming.TablePrefix = schemaName + "."
	}

	db, err := gorm.Open(dialector, &gorm.Config{NamingStrategy: naming})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if schemaName != "" && db.Dialector.Name() == "postgres" {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %q", schemaName)).Error; err != nil {
			return nil, fmt.Errorf("failed to create schema %s: %w", schemaName, err)
		}
	}

	if err := db.AutoMigrate(dbmodels.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

// CreateCompany inserts the company, persisting new customers and all
// employees with it, and copies the generated ids back into the models.
func (r *Repository) CreateCompany(ctx context.Context, company *models.Company) error {
	rec := toCompanyRecord(company)
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return err
	}
	writeBackIDs(company, rec)
	return nil
}

// GetCompany loads a company with its customers and employees.
func (r *Repository) GetCompany(ctx context.Context, id int64) (*models.Company, error) {
	var rec dbmodels.Company
	result := r.withRelations(ctx).First(&rec, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return fromCompanyRecord(&rec), nil
}

// ListCompanies returns a page of companies ordered by id.
func (r *Repository) ListCompanies(ctx context.Context, offset, limit int) ([]*models.Company, error) {
	var recs []*dbmodels.Company
	result := r.withRelations(ctx).Order("id").Offset(offset).Limit(limit).Find(&recs)
	if result.Error != nil {
		return nil, result.Error
	}
	companies := make([]*models.Company, 0, len(recs))
	for _, rec := range recs {
		companies = append(companies, fromCompanyRecord(rec))
	}
	return companies, nil
}

func (r *Repository) withRelations(ctx context.Context) *gorm.DB {
	byID := func(db *gorm.DB) *gorm.DB { return db.Order("id") }
	return r.db.WithContext(ctx).
		Preload("Customers", byID).
		Preload("Employees", byID)
}

// UpdateCompany writes the scalar fields set in update.
func (r *Repository) UpdateCompany(ctx context.Context, update *models.CompanyUpdate) error {
	cols := updateColumns(update)
	if len(cols) == 0 {
		_, err := r.GetCompany(ctx, update.ID)
		return err
	}

	result := r.db.WithContext(ctx).Model(&dbmodels.Company{}).
		Where("id = ?", update.ID).
		Updates(cols)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// SaveCompany synchronizes a loaded company with storage: scalar fields,
// the customer association (customers are linked or unlinked, never
// deleted) and the employees (new ones are inserted, detached ones are
// deleted).
func (r *Repository) SaveCompany(ctx context.Context, company *models.Company) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		return tx.saveCompany(ctx, company)
	})
}

func (r *Repository) saveCompany(ctx context.Context, company *models.Company) error {
	db := r.db.WithContext(ctx)
	rec := toCompanyRecord(company)

	result := db.Model(&dbmodels.Company{}).Where("id = ?", rec.ID).Updates(map[string]interface{}{
		"name":     rec.Name,
		"founded":  rec.Founded,
		"industry": rec.Industry,
		"founders": rec.Founders,
		"products": rec.Products,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}

	customers := db.Model(&dbmodels.Company{ID: rec.ID}).Association("Customers")
	var err error
	if len(rec.Customers) == 0 {
		err = customers.Clear()
	} else {
		err = customers.Replace(rec.Customers)
	}
	if err != nil {
		return fmt.Errorf("failed to sync customers: %w", err)
	}

	keep := make([]int64, 0, len(rec.Employees))
	for _, emp := range rec.Employees {
		if err := saveEmployee(db, emp); err != nil {
			return err
		}
		keep = append(keep, emp.ID)
	}

	orphans := db.Where("company_id = ?", rec.ID)
	if len(keep) > 0 {
		orphans = orphans.Where("id NOT IN ?", keep)
	}
	if err := orphans.Delete(&dbmodels.Employee{}).Error; err != nil {
		return fmt.Errorf("failed to remove orphaned employees: %w", err)
	}

	writeBackIDs(company, rec)
	return nil
}

func saveEmployee(db *gorm.DB, emp *dbmodels.Employee) error {
	if emp.ID == 0 {
		return db.Create(emp).Error
	}
	result := db.Model(&dbmodels.Employee{}).Where("id = ?", emp.ID).Updates(map[string]interface{}{
		"company_id": emp.CompanyID,
		"first_name": emp.FirstName,
		"last_name":  emp.LastName,
		"position":   emp.Position,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("employee %d: %w", emp.ID, e.ErrNotFound)
	}
	return nil
}

// DeleteCompany deletes the company together with its employees. Linked
// customers are only dissociated.
func (r *Repository) DeleteCompany(ctx context.Context, id int64) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		db := tx.db.WithContext(ctx)

		var count int64
		if err := db.Model(&dbmodels.Company{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return e.ErrNotFound
		}

		if err := db.Where("company_id = ?", id).Delete(&dbmodels.Employee{}).Error; err != nil {
			return fmt.Errorf("failed to delete employees: %w", err)
		}
		if err := db.Model(&dbmodels.Company{ID: id}).Association("Customers").Clear(); err != nil {
			return fmt.Errorf("failed to dissociate customers: %w", err)
		}

		result := db.Delete(&dbmodels.Company{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return e.ErrNotFound
		}
		return nil
	})
}

func (r *Repository) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	rec := toCustomerRecord(customer)
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return err
	}
	customer.ID = rec.ID
	return nil
}

func (r *Repository) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	var rec dbmodels.Customer
	result := r.db.WithContext(ctx).First(&rec, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	return fromCustomerRecord(&rec), nil
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) Exec(ctx context.Context, query string, params ...interface{}) error {
	result := r.db.WithContext(ctx).Exec(query, params...)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
