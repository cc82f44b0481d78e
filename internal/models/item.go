package models

// EstimateItem is one priced line of an estimate. Total is written by the
// caller (quantity × unit price); the store never re-derives it.
type EstimateItem struct {
	Revision
	EstimateID     string  `json:"estimate_id"`
	Description    string  `json:"description"`
	Quantity       float64 `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	Total          float64 `json:"total"`
	CatalogItemID  *string `json:"catalog_item_id"`
	MarkupExcluded bool    `json:"markup_excluded"`
}

func (i *EstimateItem) Table() Table { return TableEstimateItems }

func (i *EstimateItem) Columns() []string {
	return columns("estimate_id", "description", "quantity", "unit_price", "total", "catalog_item_id",
		"markup_excluded")
}

func (i *EstimateItem) Values() []any {
	var catalog any
	if i.CatalogItemID != nil {
		catalog = *i.CatalogItemID
	}
	return append(i.Revision.values(), i.EstimateID, i.Description, i.Quantity, i.UnitPrice, i.Total,
		catalog, i.MarkupExcluded)
}

func (i *EstimateItem) Scan(row Scanner) error {
	rs := i.Revision.scan()
	dest := append(rs.dest(), &i.EstimateID, &i.Description, &i.Quantity, &i.UnitPrice, &i.Total,
		&i.CatalogItemID, &i.MarkupExcluded)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	return rs.finish()
}
