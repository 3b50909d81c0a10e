package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrUnidentifiedCycle is returned when a company without an ID is reached
// again while it is still being encoded, other than as the employer of its
// own employees. Such a company cannot be referenced.
var ErrUnidentifiedCycle = errors.New("company without id appears in a reference cycle")

// Wire shapes. A company appears in full the first time it is written in a
// graph; later occurrences are written as its bare id.
type companyJSON struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Founded   Date              `json:"founded"`
	Industry  string            `json:"industry"`
	Founders  string            `json:"founders"`
	Products  string            `json:"products"`
	Customers []customerJSON    `json:"customers"`
	Employees []json.RawMessage `json:"employees"`
}

type customerJSON struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type employeeJSON struct {
	ID        int64           `json:"id"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Position  string          `json:"position"`
	Employer  json.RawMessage `json:"employer"`
}

// MarshalCompany encodes c and everything reachable from it.
func MarshalCompany(c *Company) ([]byte, error) {
	return newGraphEncoder().company(c)
}

// MarshalCompanies encodes companies as a JSON array sharing one identity
// scope: a company already written earlier in the array is referenced by id.
func MarshalCompanies(companies []*Company) ([]byte, error) {
	enc := newGraphEncoder()
	parts := make([]json.RawMessage, 0, len(companies))
	for _, c := range companies {
		raw, err := enc.company(c)
		if err != nil {
			return nil, err
		}
		parts = append(parts, raw)
	}
	return json.Marshal(parts)
}

// UnmarshalCompany decodes a company graph. Id references resolve to the
// same *Company as the full object carrying that id.
func UnmarshalCompany(data []byte) (*Company, error) {
	return newGraphDecoder().company(data, nil)
}

// UnmarshalCompanies decodes a JSON array of companies sharing one identity scope.
func UnmarshalCompanies(data []byte) ([]*Company, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode companies: %w", err)
	}
	dec := newGraphDecoder()
	out := make([]*Company, 0, len(raws))
	for _, raw := range raws {
		c, err := dec.company(raw, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// MarshalJSON implements json.Marshaler using the graph encoding. The
// identity scope is c and what is reachable from it: encoding/json calls it
// once per company, so two companies in one container are each written in
// full. Use MarshalCompanies to share a scope across several companies.
func (c *Company) MarshalJSON() ([]byte, error) {
	return MarshalCompany(c)
}

// UnmarshalJSON implements json.Unmarshaler using the graph encoding. Like
// MarshalJSON its scope is a single company; id references to companies
// outside it decode to placeholders. Use UnmarshalCompanies for arrays.
func (c *Company) UnmarshalJSON(data []byte) error {
	_, err := newGraphDecoder().company(data, c)
	return err
}

type graphEncoder struct {
	written map[int64]bool
	open    map[*Company]bool
}

func newGraphEncoder() *graphEncoder {
	return &graphEncoder{
		written: make(map[int64]bool),
		open:    make(map[*Company]bool),
	}
}

func (e *graphEncoder) company(c *Company) (json.RawMessage, error) {
	if c == nil {
		return json.RawMessage("null"), nil
	}
	if c.ID != 0 && e.written[c.ID] {
		return json.RawMessage(strconv.FormatInt(c.ID, 10)), nil
	}
	if e.open[c] {
		return nil, ErrUnidentifiedCycle
	}
	if c.ID != 0 {
		e.written[c.ID] = true
	}
	e.open[c] = true
	defer delete(e.open, c)

	out := companyJSON{
		ID:        c.ID,
		Name:      c.Name,
		Founded:   c.Founded,
		Industry:  c.Industry,
		Founders:  c.Founders,
		Products:  c.Products,
		Customers: make([]customerJSON, 0, c.customers.len()),
		Employees: make([]json.RawMessage, 0, c.employees.len()),
	}
	for _, cu := range c.customers.items {
		out.Customers = append(out.Customers, customerJSON{ID: cu.ID, Name: cu.Name, Email: cu.Email})
	}
	for _, emp := range c.employees.items {
		raw, err := e.employee(emp, c)
		if err != nil {
			return nil, err
		}
		out.Employees = append(out.Employees, raw)
	}
	return json.Marshal(out)
}

// employee encodes emp as listed by owner. An owner without an id cannot be
// referenced, so it is written as a null employer, which decodes back to the
// owning company.
func (e *graphEncoder) employee(emp *Employee, owner *Company) (json.RawMessage, error) {
	employer := json.RawMessage("null")
	if emp.Employer != owner || owner.ID != 0 {
		var err error
		if employer, err = e.company(emp.Employer); err != nil {
			return nil, err
		}
	}
	return json.Marshal(employeeJSON{
		ID:        emp.ID,
		FirstName: emp.FirstName,
		LastName:  emp.LastName,
		Position:  emp.Position,
		Employer:  employer,
	})
}

type graphDecoder struct {
	byID map[int64]*Company
}

func newGraphDecoder() *graphDecoder {
	return &graphDecoder{byID: make(map[int64]*Company)}
}

// company decodes raw into target when target is non-nil, otherwise into
// the company already known under the decoded id or a new one.
func (d *graphDecoder) company(raw []byte, target *Company) (*Company, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] != '{' {
		var id int64
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, fmt.Errorf("decode company reference: %w", err)
		}
		return d.reference(id, target), nil
	}

	var in companyJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("decode company: %w", err)
	}

	c := target
	if c == nil && in.ID != 0 {
		c = d.byID[in.ID]
	}
	if c == nil {
		c = &Company{}
	}
	if in.ID != 0 {
		d.byID[in.ID] = c
	}

	c.ID = in.ID
	c.Name = in.Name
	c.Founded = in.Founded
	c.Industry = in.Industry
	c.Founders = in.Founders
	c.Products = in.Products
	c.customers = entitySet[*Customer]{}
	c.employees = entitySet[*Employee]{}

	for _, cu := range in.Customers {
		c.customers.add(&Customer{ID: cu.ID, Name: cu.Name, Email: cu.Email})
	}
	for _, rawEmp := range in.Employees {
		emp, err := d.employee(rawEmp)
		if err != nil {
			return nil, err
		}
		if emp.Employer == nil {
			emp.Employer = c
		}
		c.employees.add(emp)
	}
	return c, nil
}

// reference resolves an id to a company, creating a placeholder that a
// later full object with the same id fills in.
func (d *graphDecoder) reference(id int64, target *Company) *Company {
	if target != nil {
		target.ID = id
		d.byID[id] = target
		return target
	}
	if c, ok := d.byID[id]; ok {
		return c
	}
	c := &Company{ID: id}
	d.byID[id] = c
	return c
}

func (d *graphDecoder) employee(raw json.RawMessage) (*Employee, error) {
	var in employeeJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("decode employee: %w", err)
	}
	employer, err := d.company(in.Employer, nil)
	if err != nil {
		return nil, err
	}
	return &Employee{
		ID:        in.ID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Position:  in.Position,
		Employer:  employer,
	}, nil
}
