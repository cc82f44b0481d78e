package models

// CatalogItem is a reusable line-item template.
type CatalogItem struct {
	Revision
	UserID          string  `json:"user_id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	UnitPrice       float64 `json:"unit_price"`
	DefaultQuantity float64 `json:"default_quantity"`
}

func (c *CatalogItem) Table() Table { return TableCatalog }

func (c *CatalogItem) Columns() []string {
	return columns("user_id", "name", "description", "unit_price", "default_quantity")
}

func (c *CatalogItem) Values() []any {
	return append(c.Revision.values(), c.UserID, c.Name, c.Description, c.UnitPrice, c.DefaultQuantity)
}

func (c *CatalogItem) Scan(row Scanner) error {
	rs := c.Revision.scan()
	dest := append(rs.dest(), &c.UserID, &c.Name, &c.Description, &c.UnitPrice, &c.DefaultQuantity)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	return rs.finish()
}
