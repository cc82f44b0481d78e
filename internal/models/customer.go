package models

// Customer is a person or company estimates are written for.
type Customer struct {
	Revision
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

func (c *Customer) Table() Table { return TableCustomers }

func (c *Customer) Columns() []string {
	return columns("user_id", "name", "phone", "email", "address", "notes")
}

func (c *Customer) Values() []any {
	return append(c.Revision.values(), c.UserID, c.Name, c.Phone, c.Email, c.Address, c.Notes)
}

func (c *Customer) Scan(row Scanner) error {
	rs := c.Revision.scan()
	dest := append(rs.dest(), &c.UserID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.Notes)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	return rs.finish()
}
