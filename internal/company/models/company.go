// Package models defines the core domain models of the overseer service:
// the Company entity and the Customer and Employee entities it relates to.
package models

import (
	"fmt"
	"strings"
)

// Company represents a business entity that develops and manufactures
// technology and provides business solutions for its customers.
//
// Scalar fields are plain exported fields; assigning to them performs no
// validation. The customer and employee sets are always initialized, so the
// zero value is usable by the persistence layer when it rebuilds a Company.
type Company struct {
	// ID is the surrogate identifier assigned by storage on creation.
	ID int64
	// Name is the company's display name.
	Name string
	// Founded is the date the company was founded.
	Founded Date
	// Industry is the industry classification.
	Industry string
	// Founders is a free-text list of founder names.
	Founders string
	// Products is a free-text description of the products.
	Products string

	customers entitySet[*Customer]
	employees entitySet[*Employee]
}

// NewCompany constructs a Company with all of its required attributes.
func NewCompany(name string, founded Date, industry, founders, products string) *Company {
	return &Company{
		Name:     name,
		Founded:  founded,
		Industry: industry,
		Founders: founders,
		Products: products,
	}
}

// Customers returns the customers served by the company.
func (c *Company) Customers() []*Customer {
	return c.customers.values()
}

// AddCustomer associates a customer with the company. It reports whether
// the customer was added; adding a present customer is a no-op.
func (c *Company) AddCustomer(customer *Customer) bool {
	if customer == nil {
		return false
	}
	return c.customers.add(customer)
}

// RemoveCustomer dissociates a customer from the company. Removing an
// absent customer is a no-op and reports false.
func (c *Company) RemoveCustomer(customer *Customer) bool {
	if customer == nil {
		return false
	}
	return c.customers.remove(customer)
}

// HasCustomer reports whether the customer is associated with the company.
func (c *Company) HasCustomer(customer *Customer) bool {
	return customer != nil && c.customers.contains(customer)
}

// Employees returns the employees owned by the company.
func (c *Company) Employees() []*Employee {
	return c.employees.values()
}

// AddEmployee attaches an employee to the company and makes the company its
// employer. An employee working for another company is moved: it leaves that
// company's employees. It reports whether the employee was added; adding a
// present employee changes nothing.
func (c *Company) AddEmployee(employee *Employee) bool {
	if employee == nil || c.employees.contains(employee) {
		return false
	}
	if prev := employee.Employer; prev != nil && prev != c {
		prev.employees.remove(employee)
	}
	c.employees.add(employee)
	employee.Employer = c
	return true
}

// RemoveEmployee detaches an employee from the company. Once persisted, a
// detached employee is deleted (orphan removal); the company is unaffected.
func (c *Company) RemoveEmployee(employee *Employee) bool {
	if employee == nil {
		return false
	}
	removed := c.employees.remove(employee)
	if employee.Employer == c {
		employee.Employer = nil
	}
	return removed
}

// HasEmployee reports whether the employee belongs to the company.
func (c *Company) HasEmployee(employee *Employee) bool {
	return employee != nil && c.employees.contains(employee)
}

func (c *Company) String() string {
	if c == nil {
		return "Company{nil}"
	}
	return fmt.Sprintf(
		"Company{id=%d, name='%s', founded=%s, industry='%s', founders='%s', products='%s', customers=%s, employees=%s}",
		c.ID, c.Name, c.Founded, c.Industry, c.Founders, c.Products,
		joinStrings(c.customers.items), joinStrings(c.employees.items),
	)
}

func joinStrings[T fmt.Stringer](items []T) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, item.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// CompanyUpdate represents the fields that can be updated for a Company.
// Pointer types are used to allow partial updates.
type CompanyUpdate struct {
	// ID is the unique identifier of the company to update.
	ID       int64
	Name     *string
	Founded  *Date
	Industry *string
	Founders *string
	Products *string
}

// IsEmpty reports whether the update changes nothing.
func (u *CompanyUpdate) IsEmpty() bool {
	return u.Name == nil && u.Founded == nil && u.Industry == nil &&
		u.Founders == nil && u.Products == nil
}

// Apply copies the set fields of u onto c.
func (u *CompanyUpdate) Apply(c *Company) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Founded != nil {
		c.Founded = *u.Founded
	}
	if u.Industry != nil {
		c.Industry = *u.Industry
	}
	if u.Founders != nil {
		c.Founders = *u.Founders
	}
	if u.Products != nil {
		c.Products = *u.Products
	}
}
