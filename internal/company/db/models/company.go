// Package models contains the persistence records for the overseer schema,
// configured to work using GORM as the ORM. The struct tags are the mapping
// description: table and column names, relationship cardinality, join table
// and cascade rules. Domain types never carry these tags.
package models

import (
	"time"
)

// Company maps the company table. Customers are linked through the
// company_customer join table; employees reference the company through
// employee.company_id and are deleted with it.
type Company struct {
	ID        int64       `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string      `gorm:"column:name;not null"`
	Founded   time.Time   `gorm:"column:founded;type:date;not null"`
	Industry  string      `gorm:"column:industry;not null"`
	Founders  string      `gorm:"column:founders;not null"`
	Products  string      `gorm:"column:products;not null"`
	Customers []*Customer `gorm:"many2many:company_customer;joinForeignKey:CompanyID;joinReferences:CustomerID"`
	Employees []*Employee `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Customer maps the customer table. Customers are shared between companies
// and are never deleted through a company.
type Customer struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string `gorm:"column:name;not null"`
	Email     string `gorm:"column:email"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Employee maps the employee table.
type Employee struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement"`
	CompanyID int64  `gorm:"column:company_id;not null;index"`
	FirstName string `gorm:"column:first_name;not null"`
	LastName  string `gorm:"column:last_name;not null"`
	Position  string `gorm:"column:position"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// All lists every record type, in migration order.
func All() []interface{} {
	return []interface{}{&Company{}, &Customer{}, &Employee{}}
}
