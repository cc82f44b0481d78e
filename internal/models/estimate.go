package models

import "fmt"

// EstimateStatus is the lifecycle state of an estimate.
type EstimateStatus string

const (
	StatusDraft    EstimateStatus = "draft"
	StatusSent     EstimateStatus = "sent"
	StatusAccepted EstimateStatus = "accepted"
	StatusDeclined EstimateStatus = "declined"
)

// ParseStatus validates s.
func ParseStatus(s string) (EstimateStatus, error) {
	switch st := EstimateStatus(s); st {
	case StatusDraft, StatusSent, StatusAccepted, StatusDeclined:
		return st, nil
	}
	return "", fmt.Errorf("unknown estimate status %q", s)
}

// Estimate is a priced quote owned by a user. The monetary fields are
// derived from its items and labor; see package pricing.
type Estimate struct {
	Revision
	UserID        string         `json:"user_id"`
	CustomerID    *string        `json:"customer_id"`
	Date          string         `json:"date"`
	MaterialTotal float64        `json:"material_total"`
	LaborHours    float64        `json:"labor_hours"`
	LaborRate     float64        `json:"labor_rate"`
	LaborTotal    float64        `json:"labor_total"`
	Subtotal      float64        `json:"subtotal"`
	TaxRate       float64        `json:"tax_rate"`
	TaxTotal      float64        `json:"tax_total"`
	Total         float64        `json:"total"`
	MarkupRate    float64        `json:"markup_rate"`
	Notes         string         `json:"notes"`
	Status        EstimateStatus `json:"status"`
}

func (e *Estimate) Table() Table { return TableEstimates }

func (e *Estimate) Columns() []string {
	return columns("user_id", "customer_id", "date", "material_total", "labor_hours", "labor_rate",
		"labor_total", "subtotal", "tax_rate", "tax_total", "total", "markup_rate", "notes", "status")
}

func (e *Estimate) Values() []any {
	var customer any
	if e.CustomerID != nil {
		customer = *e.CustomerID
	}
	return append(e.Revision.values(), e.UserID, customer, e.Date, e.MaterialTotal, e.LaborHours,
		e.LaborRate, e.LaborTotal, e.Subtotal, e.TaxRate, e.TaxTotal, e.Total, e.MarkupRate, e.Notes,
		string(e.Status))
}

func (e *Estimate) Scan(row Scanner) error {
	rs := e.Revision.scan()
	var status string
	dest := append(rs.dest(), &e.UserID, &e.CustomerID, &e.Date, &e.MaterialTotal, &e.LaborHours,
		&e.LaborRate, &e.LaborTotal, &e.Subtotal, &e.TaxRate, &e.TaxTotal, &e.Total, &e.MarkupRate,
		&e.Notes, &status)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	e.Status = EstimateStatus(status)
	return rs.finish()
}
