package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sandeepkv93/products-api/internal/domain"
	"github.com/sandeepkv93/products-api/internal/observability"
)

//go:generate mockgen -destination=gomock/product_repository_mock.go -package=gomock github.com/sandeepkv93/products-api/internal/repository ProductRepository

type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, id uint) (*domain.Product, bool, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, id uint, product *domain.Product) error
	Delete(ctx context.Context, id uint) (*domain.Product, error)
}

type GormProductRepository struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	products := make([]domain.Product, 0)
	if err := r.db.WithContext(ctx).Order("id asc").Find(&products).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "product", "list", "error")
		return nil, fmt.Errorf("%w: list products: %w", ErrStorage, err)
	}
	observability.RecordRepositoryOperation(ctx, "product", "list", "success")
	return products, nil
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uint) (*domain.Product, bool, error) {
	var product domain.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "product", "find_by_id", "not_found")
			return nil, false, nil
		}
		observability.RecordRepositoryOperation(ctx, "product", "find_by_id", "error")
		return nil, false, fmt.Errorf("%w: find product %d: %w", ErrStorage, id, err)
	}
	observability.RecordRepositoryOperation(ctx, "product", "find_by_id", "success")
	return &product, true, nil
}

func (r *GormProductRepository) Exists(ctx context.Context, id uint) (bool, error) {
	ok, err := exists(r.db.WithContext(ctx), id)
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "product", "exists", "error")
		return false, fmt.Errorf("%w: check product %d: %w", ErrStorage, id, err)
	}
	observability.RecordRepositoryOperation(ctx, "product", "exists", "success")
	return ok, nil
}

func exists(db *gorm.DB, id uint) (bool, error) {
	var count int64
	if err := db.Model(&domain.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts product and writes the assigned ID back. Any caller-supplied
// ID is discarded.
func (r *GormProductRepository) Create(ctx context.Context, product *domain.Product) error {
	product.ID = 0
	ctx, span := observability.StartSpan(ctx, "product.create")
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(product).Error
	})
	observability.EndSpan(span, err)
	if err != nil {
		if isDuplicateKey(err) {
			observability.RecordRepositoryOperation(ctx, "product", "create", "duplicate")
			return fmt.Errorf("create product code %d: %w", product.ProductCode, ErrDuplicateProductCode)
		}
		observability.RecordRepositoryOperation(ctx, "product", "create", "error")
		return fmt.Errorf("%w: create product: %w", ErrStorage, err)
	}
	observability.RecordRepositoryOperation(ctx, "product", "create", "success")
	return nil
}

// Update replaces ProductCode, Name and Price of the row with the given id.
// When no row is affected the row's existence is re-checked in the same
// transaction to tell a missing row from a conflicting write.
func (r *GormProductRepository) Update(ctx context.Context, id uint, product *domain.Product) error {
	ctx, span := observability.StartSpan(ctx, "product.update")
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Product{}).Where("id = ?", id).Updates(map[string]any{
			"product_code": product.ProductCode,
			"name":         product.Name,
			"price":        product.Price,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		ok, err := exists(tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrProductNotFound
		}
		return ErrConcurrencyConflict
	})
	observability.EndSpan(span, err)
	switch {
	case err == nil:
		observability.RecordRepositoryOperation(ctx, "product", "update", "success")
		return nil
	case errors.Is(err, ErrProductNotFound):
		observability.RecordRepositoryOperation(ctx, "product", "update", "not_found")
		return err
	case errors.Is(err, ErrConcurrencyConflict):
		observability.RecordRepositoryOperation(ctx, "product", "update", "conflict")
		return fmt.Errorf("update product %d: %w", id, err)
	case isDuplicateKey(err):
		observability.RecordRepositoryOperation(ctx, "product", "update", "duplicate")
		return fmt.Errorf("update product %d code %d: %w", id, product.ProductCode, ErrDuplicateProductCode)
	default:
		observability.RecordRepositoryOperation(ctx, "product", "update", "error")
		return fmt.Errorf("%w: update product %d: %w", ErrStorage, id, err)
	}
}

// Delete removes the row and returns its contents as they were before removal.
func (r *GormProductRepository) Delete(ctx context.Context, id uint) (*domain.Product, error) {
	var product domain.Product
	ctx, span := observability.StartSpan(ctx, "product.delete")
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		res := tx.Delete(&domain.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrProductNotFound
		}
		return nil
	})
	observability.EndSpan(span, err)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			observability.RecordRepositoryOperation(ctx, "product", "delete", "not_found")
			return nil, err
		}
		observability.RecordRepositoryOperation(ctx, "product", "delete", "error")
		return nil, fmt.Errorf("%w: delete product %d: %w", ErrStorage, id, err)
	}
	observability.RecordRepositoryOperation(ctx, "product", "delete", "success")
	return &product, nil
}
