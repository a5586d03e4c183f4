package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sandeepkv93/products-api/internal/domain"
	"github.com/sandeepkv93/products-api/internal/observability"
	"github.com/sandeepkv93/products-api/internal/repository"
)

var ErrProductIDMismatch = errors.New("product id in body does not match path")

type CreateProductInput struct {
	ProductCode int
	Name        string
	Price       decimal.Decimal
}

// ReplaceProductInput carries the full replacement record. ID must equal the
// addressed product id.
type ReplaceProductInput struct {
	ID          uint
	ProductCode int
	Name        string
	Price       decimal.Decimal
}

type ProductServiceImpl struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) *ProductServiceImpl {
	return &ProductServiceImpl{repo: repo}
}

func (s *ProductServiceImpl) List(ctx context.Context) ([]domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordProductOperation(ctx, "list", outcome, time.Since(start)) }()

	products, err := s.repo.List(ctx)
	if err != nil {
		outcome = operationOutcome(err)
		return nil, err
	}
	return products, nil
}

func (s *ProductServiceImpl) GetByID(ctx context.Context, id uint) (*domain.Product, bool, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordProductOperation(ctx, "get", outcome, time.Since(start)) }()

	product, ok, err := s.repo.FindByID(ctx, id)
	switch {
	case err != nil:
		outcome = operationOutcome(err)
		return nil, false, err
	case !ok:
		outcome = "not_found"
		return nil, false, nil
	}
	return product, true, nil
}

func (s *ProductServiceImpl) Create(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordProductOperation(ctx, "create", outcome, time.Since(start)) }()

	product := &domain.Product{
		ProductCode: input.ProductCode,
		Name:        input.Name,
		Price:       input.Price,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		outcome = operationOutcome(err)
		return nil, err
	}
	return product, nil
}

// Replace overwrites every mutable field of product id. A body id that
// differs from id is rejected before the store is consulted.
func (s *ProductServiceImpl) Replace(ctx context.Context, id uint, input ReplaceProductInput) error {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordProductOperation(ctx, "replace", outcome, time.Since(start)) }()

	if input.ID != id {
		outcome = "bad_request"
		return fmt.Errorf("path id %d, body id %d: %w", id, input.ID, ErrProductIDMismatch)
	}
	err := s.repo.Update(ctx, id, &domain.Product{
		ID:          id,
		ProductCode: input.ProductCode,
		Name:        input.Name,
		Price:       input.Price,
	})
	if err != nil {
		outcome = operationOutcome(err)
		return err
	}
	return nil
}

func (s *ProductServiceImpl) Delete(ctx context.Context, id uint) (*domain.Product, error) {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordProductOperation(ctx, "delete", outcome, time.Since(start)) }()

	product, err := s.repo.Delete(ctx, id)
	if err != nil {
		outcome = operationOutcome(err)
		return nil, err
	}
	return product, nil
}

func operationOutcome(err error) string {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrDuplicateProductCode), errors.Is(err, repository.ErrConcurrencyConflict):
		return "conflict"
	default:
		return "error"
	}
}
