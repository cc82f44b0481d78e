package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/estimatekeeper/internal/dbx"
	"github.com/dmitrijs2005/estimatekeeper/internal/models"
)

// CustomerInput holds the editable customer fields.
type CustomerInput struct {
	Name    string
	Phone   string
	Email   string
	Address string
	Notes   string
}

func (in CustomerInput) validate() error {
	return required("name", in.Name)
}

func (in CustomerInput) apply(c *models.Customer) {
	c.Name = in.Name
	c.Phone = in.Phone
	c.Email = in.Email
	c.Address = in.Address
	c.Notes = in.Notes
}

type CustomerService struct {
	writer
}

func NewCustomerService(store DBProvider) *CustomerService {
	return &CustomerService{writer: newWriter(store)}
}

func (s *CustomerService) Create(ctx context.Context, userID string, in CustomerInput) (*models.Customer, error) {
	if err := required("user id", userID); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	c := &models.Customer{UserID: userID}
	in.apply(c)

	err := s.tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.create(ctx, tx, c)
	})
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

func (s *CustomerService) Update(ctx context.Context, id string, in CustomerInput) (*models.Customer, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var c *models.Customer
	err := s.tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if c, err = s.repos.Customers(tx).Get(ctx, id, false); err != nil {
			return err
		}
		in.apply(c)
		return s.update(ctx, tx, c)
	})
	if err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return c, nil
}

// Delete soft-deletes the customer. Estimates keep their reference.
func (s *CustomerService) Delete(ctx context.Context, id string) error {
	err := s.tx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		c, err := s.repos.Customers(tx).Get(ctx, id, false)
		if err != nil {
			return err
		}
		return s.softDelete(ctx, tx, c)
	})
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return nil
}

func (s *CustomerService) Get(ctx context.Context, id string) (*models.Customer, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return s.repos.Customers(db).Get(ctx, id, false)
}

func (s *CustomerService) List(ctx context.Context, userID string) ([]*models.Customer, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	return s.repos.Customers(db).ListBy(ctx, "user_id", userID, false)
}
