package models

import "fmt"

// Employee is a person employed by exactly one company.
type Employee struct {
	ID        int64
	FirstName string
	LastName  string
	Position  string
	// Employer is the owning company. It is maintained by
	// Company.AddEmployee and Company.RemoveEmployee.
	Employer *Company
}

// NewEmployee constructs an Employee that has not been persisted yet.
func NewEmployee(firstName, lastName, position string) *Employee {
	return &Employee{FirstName: firstName, LastName: lastName, Position: position}
}

func (e *Employee) entityID() int64 {
	if e == nil {
		return 0
	}
	return e.ID
}

// String prints the employer as an id only, since the employer prints its
// employees.
func (e *Employee) String() string {
	if e == nil {
		return "Employee{nil}"
	}
	employer := "null"
	if e.Employer != nil {
		employer = fmt.Sprintf("%d", e.Employer.ID)
	}
	return fmt.Sprintf("Employee{id=%d, firstName='%s', lastName='%s', position='%s', employer=%s}",
		e.ID, e.FirstName, e.LastName, e.Position, employer)
}
