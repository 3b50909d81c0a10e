package models

import "fmt"

// Customer is a client served by one or more companies.
type Customer struct {
	ID    int64
	Name  string
	Email string
}

// NewCustomer constructs a Customer that has not been persisted yet.
func NewCustomer(name, email string) *Customer {
	return &Customer{Name: name, Email: email}
}

func (c *Customer) entityID() int64 {
	if c == nil {
		return 0
	}
	return c.ID
}

func (c *Customer) String() string {
	if c == nil {
		return "Customer{nil}"
	}
	return fmt.Sprintf("Customer{id=%d, name='%s', email='%s'}", c.ID, c.Name, c.Email)
}
