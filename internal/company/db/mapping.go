package db

import (
	dbmodels "github.com/timeoverseer/overseer/internal/company/db/models"
	"github.com/timeoverseer/overseer/internal/company/models"
)

// toCompanyRecord converts a domain Company and its relationships into
// records. Record slices keep the order of the domain collections so that
// generated ids can be copied back by position.
func toCompanyRecord(c *models.Company) *dbmodels.Company {
	rec := &dbmodels.Company{
		ID:       c.ID,
		Name:     c.Name,
		Founded:  c.Founded.Time(),
		Industry: c.Industry,
		Founders: c.Founders,
		Products: c.Products,
	}
	for _, cu := range c.Customers() {
		rec.Customers = append(rec.Customers, toCustomerRecord(cu))
	}
	for _, e := range c.Employees() {
		rec.Employees = append(rec.Employees, toEmployeeRecord(e, c.ID))
	}
	return rec
}

func toCustomerRecord(c *models.Customer) *dbmodels.Customer {
	return &dbmodels.Customer{ID: c.ID, Name: c.Name, Email: c.Email}
}

func toEmployeeRecord(e *models.Employee, companyID int64) *dbmodels.Employee {
	return &dbmodels.Employee{
		ID:        e.ID,
		CompanyID: companyID,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Position:  e.Position,
	}
}

// writeBackIDs copies ids generated by storage into the domain objects.
func writeBackIDs(c *models.Company, rec *dbmodels.Company) {
	c.ID = rec.ID
	for i, cu := range c.Customers() {
		if i < len(rec.Customers) {
			cu.ID = rec.Customers[i].ID
		}
	}
	for i, e := range c.Employees() {
		if i < len(rec.Employees) {
			e.ID = rec.Employees[i].ID
		}
	}
}

// fromCompanyRecord rebuilds a domain Company, linking every employee back
// to it.
func fromCompanyRecord(rec *dbmodels.Company) *models.Company {
	c := &models.Company{
		ID:       rec.ID,
		Name:     rec.Name,
		Founded:  models.DateOf(rec.Founded),
		Industry: rec.Industry,
		Founders: rec.Founders,
		Products: rec.Products,
	}
	for _, cu := range rec.Customers {
		c.AddCustomer(fromCustomerRecord(cu))
	}
	for _, e := range rec.Employees {
		c.AddEmployee(&models.Employee{
			ID:        e.ID,
			FirstName: e.FirstName,
			LastName:  e.LastName,
			Position:  e.Position,
		})
	}
	return c
}

func fromCustomerRecord(rec *dbmodels.Customer) *models.Customer {
	return &models.Customer{ID: rec.ID, Name: rec.Name, Email: rec.Email}
}

// updateColumns lists the columns a partial update touches.
func updateColumns(u *models.CompanyUpdate) map[string]interface{} {
	cols := make(map[string]interface{})
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.Founded != nil {
		cols["founded"] = u.Founded.Time()
	}
	if u.Industry != nil {
		cols["industry"] = *u.Industry
	}
	if u.Founders != nil {
		cols["founders"] = *u.Founders
	}
	if u.Products != nil {
		cols["products"] = *u.Products
	}
	return cols
}
