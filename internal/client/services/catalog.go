package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/estimatekeeper/internal/dbx"
	"github.com/dmitrijs2005/estimatekeeper/internal/models"
)

type CatalogInput struct {
	Name            string
	Description     string
	UnitPrice       float64
	DefaultQuantity float64
}

func (in CatalogInput) validate() error {
	if err := required("name", in.Name); err != nil {
		return err
	}
	if err := nonNegative("unit price", in.UnitPrice); err != nil {
		return err
	}
	return nonNegative("default quantity", in.DefaultQuantity)
}

func (in CatalogInput) apply(c *models.CatalogItem) {
	c.Name = in.Name
	c.Description = in.Description
	c.UnitPrice = in.UnitPrice
	c.DefaultQuantity = in.DefaultQuantity
	if c.DefaultQuantity == 0 {
		c.DefaultQuantity = 1
	}
}

// CatalogService manages the user's reusable line-item templates.
type CatalogService struct {
	writer
}

func NewCatalogService(store DBProvider) *CatalogService {
	return &CatalogService{writer: newWriter(store)}
}

func (s *CatalogService) Create(ctx context.Context, userID string, in CatalogInput) (*models.CatalogItem, error) {
	if err := required("user id", userID); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	c := &models.CatalogItem{UserID: userID}
	in.apply(c)

	if err := s.tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.create(ctx, tx, c)
	}); err != nil {
		return nil, fmt.Errorf("create catalog item: %w", err)
	}
	return c, nil
}

func (s *CatalogService) Update(ctx context.Context, id string, in CatalogInput) (*models.CatalogItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var c *models.CatalogItem
	if err := s.tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if c, err = s.repos.Catalog(tx).Get(ctx, id, false); err != nil {
			return err
		}
		in.apply(c)
		return s.update(ctx, tx, c)
	}); err != nil {
		return nil, fmt.Errorf("update catalog item: %w", err)
	}
	return c, nil
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		c, err := s.repos.Catalog(tx).Get(ctx, id, false)
		if err != nil {
			return err
		}
		return s.softDelete(ctx, tx, c)
	}); err != nil {
		return fmt.Errorf("delete catalog item: %w", err)
	}
	return nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*models.CatalogItem, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return s.repos.Catalog(db).Get(ctx, id, false)
}

func (s *CatalogService) List(ctx context.Context, userID string) ([]*models.CatalogItem, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return s.repos.Catalog(db).ListBy(ctx, "user_id", userID, false)
}
