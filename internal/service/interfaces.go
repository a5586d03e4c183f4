package service

import (
	"context"

	"github.com/sandeepkv93/products-api/internal/domain"
)

//go:generate mockgen -destination=gomock/product_service_mock.go -package=gomock github.com/sandeepkv93/products-api/internal/service ProductService

type ProductService interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id uint) (*domain.Product, bool, error)
	Create(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	Replace(ctx context.Context, id uint, input ReplaceProductInput) error
	Delete(ctx context.Context, id uint) (*domain.Product, error)
}
