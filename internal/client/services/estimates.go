package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/estimatekeeper/internal/client/pricing"
	"github.com/dmitrijs2005/estimatekeeper/internal/common"
	"github.com/dmitrijs2005/estimatekeeper/internal/dbx"
	"github.com/dmitrijs2005/estimatekeeper/internal/models"
)

// EstimateInput holds the editable estimate fields. Monetary totals are
// always derived, never set directly.
type EstimateInput struct {
	CustomerID *string
	Date       string
	LaborHours float64
	LaborRate  float64
	TaxRate    float64
	MarkupRate float64
	Notes      string
}

func (in EstimateInput) validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"labor hours", in.LaborHours},
		{"labor rate", in.LaborRate},
		{"tax rate", in.TaxRate},
		{"markup rate", in.MarkupRate},
	} {
		if err := nonNegative(f.name, f.v); err != nil {
			return err
		}
	}
	return nil
}

func (in EstimateInput) apply(e *models.Estimate) {
	e.CustomerID = in.CustomerID
	e.Date = in.Date
	e.LaborHours = in.LaborHours
	e.LaborRate = in.LaborRate
	e.TaxRate = in.TaxRate
	e.MarkupRate = in.MarkupRate
	e.Notes = in.Notes
}

// ItemInput describes one estimate line. When CatalogItemID is set, empty
// Description and zero UnitPrice are taken from the catalog entry.
type ItemInput struct {
	Description    string
	Quantity       float64
	UnitPrice      float64
	CatalogItemID  *string
	MarkupExcluded bool
}

func (in ItemInput) validate() error {
	if err := nonNegative("quantity", in.Quantity); err != nil {
		return err
	}
	return nonNegative("unit price", in.UnitPrice)
}

// EstimateService manages estimates and their line items. Every item
// change re-prices the parent estimate in the same transaction.
type EstimateService struct {
	writer
}

func NewEstimateService(store DBProvider) *EstimateService {
	return &EstimateService{writer: newWriter(store)}
}

func (s *EstimateService) Create(ctx context.Context, userID string, in EstimateInput) (*models.Estimate, error) {
	if err := required("user id", userID); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	e := &models.Estimate{UserID: userID, Status: models.StatusDraft}
	in.apply(e)
	pricing.ForEstimate(e, nil).Apply(e)

	err := s.tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.checkCustomer(ctx, tx, e.CustomerID); err != nil {
			return err
		}
		return s.create(ctx, tx, e)
	})
	if err != nil {
		return nil, fmt.Errorf("create estimate: %w", err)
	}
	return e, nil
}

func (s *EstimateService) Update(ctx context.Context, id string, in EstimateInput) (*models.Estimate, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var e *models.Estimate
	err := s.tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if e, err = s.repos.Estimates(tx).Get(ctx, id, false); err != nil {
			return err
		}
		// a customer that never reached this device may stay attached
		if !samePtr(e.CustomerID, in.CustomerID) {
			if err := s.checkCustomer(ctx, tx, in.CustomerID); err != nil {
				return err
			}
		}
		in.apply(e)
		return s.reprice(ctx, tx, e)
	})
	if err != nil {
		return nil, fmt.Errorf("update estimate: %w", err)
	}
	return e, nil
}

func (s *EstimateService) SetStatus(ctx context.Context, id string, status models.EstimateStatus) (*models.Estimate, error) {
	if _, err := models.ParseStatus(string(status)); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}

	var e *models.Estimate
	err := s.tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if e, err = s.repos.Estimates(tx).Get(ctx, id, false); err != nil {
			return err
		}
		if e.Status == status {
			return nil
		}
		e.Status = status
		return s.update(ctx, tx, e)
	})
	if err != nil {
		return nil, fmt.Errorf("set estimate status: %w", err)
	}
	return e, nil
}

// Delete soft-deletes the estimate together with its live items and
// photos.
func (s *EstimateService) Delete(ctx context.Context, id string) error {
	err := s.tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		e, err := s.repos.Estimates(tx).Get(ctx, id, false)
		if err != nil {
			return err
		}
		items, err := s.repos.Items(tx).ListBy(ctx, "estimate_id", id, false)
		if err != nil {
			return err
		}
		photos, err := s.repos.Photos(tx).ListBy(ctx, "estimate_id", id, false)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := s.softDelete(ctx, tx, it); err != nil {
				return err
			}
		}
		for _, p := range photos {
			if err := s.softDelete(ctx, tx, p); err != nil {
				return err
			}
		}
		return s.softDelete(ctx, tx, e)
	})
	if err != nil {
		return fmt.Errorf("delete estimate: %w", err)
	}
	return nil
}

func (s *EstimateService) Get(ctx context.Context, id string) (*models.Estimate, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return s.repos.Estimates(db).Get(ctx, id, false)
}

func (s *EstimateService) List(ctx context.Context, userID string) ([]*models.Estimate, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return s.repos.Estimates(db).ListBy(ctx, "user_id", userID, false)
}

func (s *EstimateService) Item(ctx context.Context, id string) (*models.EstimateItem, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return s.repos.Items(db).Get(ctx, id, false)
}

func (s *EstimateService) Items(ctx context.Context, estimateID string) ([]*models.EstimateItem, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return s.repos.Items(db).ListBy(ctx, "estimate_id", estimateID, false)
}

func (s *EstimateService) AddItem(ctx context.Context, estimateID string, in ItemInput) (*models.EstimateItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	it := &models.EstimateItem{
		EstimateID:     estimateID,
		Description:    in.Description,
		Quantity:       in.Quantity,
		UnitPrice:      in.UnitPrice,
		CatalogItemID:  in.CatalogItemID,
		MarkupExcluded: in.MarkupExcluded,
	}

	err := s.tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		e, err := s.repos.Estimates(tx).Get(ctx, estimateID, false)
		if err != nil {
			return err
		}
		if err := s.fillFromCatalog(ctx, tx, it); err != nil {
			return err
		}
		it.Total = pricing.LineTotal(it.Quantity, it.UnitPrice)
		if err := s.create(ctx, tx, it); err != nil {
			return err
		}
		return s.reprice(ctx, tx, e)
	})
	if err != nil {
		return nil, fmt.Errorf("add estimate item: %w", err)
	}
	return it, nil
}

func (s *EstimateService) UpdateItem(ctx context.Context, itemID string, in ItemInput) (*models.EstimateItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var it *models.EstimateItem
	err := s.tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if it, err = s.repos.Items(tx).Get(ctx, itemID, false); err != nil {
			return err
		}
		e, err := s.repos.Estimates(tx).Get(ctx, it.EstimateID, false)
		if err != nil {
			return err
		}
		it.Description = in.Description
		it.Quantity = in.Quantity
		it.UnitPrice = in.UnitPrice
		it.CatalogItemID = in.CatalogItemID
		it.MarkupExcluded = in.MarkupExcluded
		it.Total = pricing.LineTotal(it.Quantity, it.UnitPrice)
		if err := s.update(ctx, tx, it); err != nil {
			return err
		}
		return s.reprice(ctx, tx, e)
	})
	if err != nil {
		return nil, fmt.Errorf("update estimate item: %w", err)
	}
	return it, nil
}

func (s *EstimateService) DeleteItem(ctx context.Context, itemID string) error {
	err := s.tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		it, err := s.repos.Items(tx).Get(ctx, itemID, false)
		if err != nil {
			return err
		}
		e, err := s.repos.Estimates(tx).Get(ctx, it.EstimateID, false)
		if err != nil {
			return err
		}
		if err := s.softDelete(ctx, tx, it); err != nil {
			return err
		}
		return s.reprice(ctx, tx, e)
	})
	if err != nil {
		return fmt.Errorf("delete estimate item: %w", err)
	}
	return nil
}

// reprice recomputes e's totals from its live items and queues the
// update.
func (s *EstimateService) reprice(ctx context.Context, tx dbx.DBTX, e *models.Estimate) error {
	items, err := s.repos.Items(tx).ListBy(ctx, "estimate_id", e.ID, false)
	if err != nil {
		return err
	}
	pricing.ForEstimate(e, items).Apply(e)
	return s.update(ctx, tx, e)
}

func (s *EstimateService) checkCustomer(ctx context.Context, tx dbx.DBTX, id *string) error {
	if id == nil {
		return nil
	}
	if _, err := s.repos.Customers(tx).Get(ctx, *id, false); err != nil {
		return fmt.Errorf("customer: %w", err)
	}
	return nil
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *EstimateService) fillFromCatalog(ctx context.Context, tx dbx.DBTX, it *models.EstimateItem) error {
	if it.CatalogItemID == nil {
		return nil
	}
	c, err := s.repos.Catalog(tx).Get(ctx, *it.CatalogItemID, false)
	if err != nil {
		return fmt.Errorf("catalog item: %w", err)
	}
	if it.Description == "" {
		it.Description = c.Name
	}
	if it.UnitPrice == 0 {
		it.UnitPrice = c.UnitPrice
	}
	if it.Quantity == 0 {
		it.Quantity = c.DefaultQuantity
	}
	return nil
}
