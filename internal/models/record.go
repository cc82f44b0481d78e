package models

import (
	"fmt"

	"github.com/dmitrijs2005/estimatekeeper/internal/common"
)

// Table names a mirrored table.
type Table string

const (
	TableCustomers     Table = "customers"
	TableEstimates     Table = "estimates"
	TableEstimateItems Table = "estimate_items"
	TablePhotos        Table = "photos"
	TableCatalog       Table = "item_catalog"
)

// Tables lists every mirrored table in foreign-key order: a table only
// references tables that come before it.
var Tables = []Table{TableCustomers, TableCatalog, TableEstimates, TableEstimateItems, TablePhotos}

// Valid reports whether t is one of the mirrored tables.
func (t Table) Valid() bool {
	switch t {
	case TableCustomers, TableEstimates, TableEstimateItems, TablePhotos, TableCatalog:
		return true
	}
	return false
}

// ScopeColumn is the column remote bulk selects filter on: user_id for
// top-level tables, estimate_id for rows owned by an estimate.
func (t Table) ScopeColumn() string {
	switch t {
	case TableEstimateItems, TablePhotos:
		return "estimate_id"
	default:
		return "user_id"
	}
}

// Scanner is implemented by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Record is a mirrored row.
type Record interface {
	Table() Table
	Rev() *Revision
	// Columns returns the column names in storage order, id first.
	Columns() []string
	// Values returns the bound values aligned with Columns.
	Values() []any
	// Scan reads one row selected with Columns.
	Scan(row Scanner) error
}

// NewRecord returns an empty record of the concrete type stored in t.
func NewRecord(t Table) (Record, error) {
	switch t {
	case TableCustomers:
		return &Customer{}, nil
	case TableEstimates:
		return &Estimate{}, nil
	case TableEstimateItems:
		return &EstimateItem{}, nil
	case TablePhotos:
		return &Photo{}, nil
	case TableCatalog:
		return &CatalogItem{}, nil
	}
	return nil, fmt.Errorf("%w: %q", common.ErrUnknownTable, string(t))
}

// HasColumn reports whether rec stores column name.
func HasColumn(rec Record, name string) bool {
	for _, c := range rec.Columns() {
		if c == name {
			return true
		}
	}
	return false
}
