// Package pricing computes estimate totals from line items and labor.
//
// Arithmetic is done in decimal and every published amount is rounded
// half-up to cents, so totals do not drift with float accumulation.
package pricing

import (
	"github.com/dmitrijs2005/estimatekeeper/internal/models"
	"github.com/shopspring/decimal"
)

const places = 2

var hundred = decimal.NewFromInt(100)

// Line is the part of an estimate item pricing cares about.
type Line struct {
	Total          float64
	MarkupExcluded bool
}

// Inputs are the estimate-level pricing parameters. Rates are percents.
type Inputs struct {
	LaborHours float64
	LaborRate  float64
	TaxRate    float64
	MarkupRate float64
}

// Totals is the result of Compute.
type Totals struct {
	// Base is the plain sum of line totals before markup.
	Base          float64
	MaterialTotal float64
	LaborTotal    float64
	Subtotal      float64
	TaxTotal      float64
	Total         float64
}

// LineTotal returns quantity × unit price rounded to cents.
func LineTotal(quantity, unitPrice float64) float64 {
	v, _ := decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(unitPrice)).Round(places).Float64()
	return v
}

// Compute prices lines under in. Markup is applied to lines that are not
// excluded from it; labor is never marked up.
func Compute(lines []Line, in Inputs) Totals {
	base := decimal.Zero
	markable := decimal.Zero
	for _, l := range lines {
		t := decimal.NewFromFloat(l.Total)
		base = base.Add(t)
		if !l.MarkupExcluded {
			markable = markable.Add(t)
		}
	}
	base = base.Round(places)

	markup := markable.Mul(decimal.NewFromFloat(in.MarkupRate)).Div(hundred)
	material := base.Add(markup).Round(places)
	labor := decimal.NewFromFloat(in.LaborHours).Mul(decimal.NewFromFloat(in.LaborRate)).Round(places)
	subtotal := material.Add(labor)
	tax := subtotal.Mul(decimal.NewFromFloat(in.TaxRate)).Div(hundred).Round(places)

	return Totals{
		Base:          toFloat(base),
		MaterialTotal: toFloat(material),
		LaborTotal:    toFloat(labor),
		Subtotal:      toFloat(subtotal),
		TaxTotal:      toFloat(tax),
		Total:         toFloat(subtotal.Add(tax)),
	}
}

// ForEstimate prices e from items, skipping soft-deleted ones.
func ForEstimate(e *models.Estimate, items []*models.EstimateItem) Totals {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		if it.IsDeleted() {
			continue
		}
		lines = append(lines, Line{Total: it.Total, MarkupExcluded: it.MarkupExcluded})
	}
	return Compute(lines, Inputs{
		LaborHours: e.LaborHours,
		LaborRate:  e.LaborRate,
		TaxRate:    e.TaxRate,
		MarkupRate: e.MarkupRate,
	})
}

// Apply copies t into the estimate's monetary fields.
func (t Totals) Apply(e *models.Estimate) {
	e.MaterialTotal = t.MaterialTotal
	e.LaborTotal = t.LaborTotal
	e.Subtotal = t.Subtotal
	e.TaxTotal = t.TaxTotal
	e.Total = t.Total
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
