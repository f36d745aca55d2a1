package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/RezaAbdollahigit/StoreTrack/internal/domain"
	"github.com/RezaAbdollahigit/StoreTrack/internal/repository"
)

// CatalogService owns product and category management plus the read-only
// reporting queries. Stock mutation goes through AdjustStock only; plain
// field edits never touch stock.
type CatalogService struct {
	store  *repository.Store
	cache  ProductCache
	logger *zap.Logger
}

// NewCatalogService builds the service. cache may be nil; every cache path
// degrades to the database.
func NewCatalogService(store *repository.Store, cache ProductCache, logger *zap.Logger) *CatalogService {
	return &CatalogService{store: store, cache: cache, logger: logger}
}

func (s *CatalogService) CreateProduct(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error) {
	if req.CategoryID != nil {
		if _, err := s.store.GetCategory(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, err
		}
	}
	product := &domain.Product{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		CategoryID:    req.CategoryID,
		ImageURL:      req.ImageURL,
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	s.logger.Info("Product created",
		zap.Uint("product_id", product.ID),
		zap.String("name", product.Name),
		zap.Int("initial_stock", product.StockQuantity))
	return product, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*domain.Product, error) {
	if s.cache != nil {
		if p, ok := s.cache.Get(ctx, id); ok {
			return p, nil
		}
	}

	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, &ProductNotFoundError{ProductID: id}
		}
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, product)
	}
	return product, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	return s.store.ListProducts(ctx, filter)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, req domain.UpdateProductRequest) (*domain.Product, error) {
	fields := map[string]any{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, fmt.Errorf("price cannot be negative")
		}
		fields["price"] = *req.Price
	}
	if req.CategoryID != nil {
		if _, err := s.store.GetCategory(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, err
		}
		fields["category_id"] = *req.CategoryID
	}
	if req.ImageURL != nil {
		fields["image_url"] = *req.ImageURL
	}

	product, err := s.store.UpdateProductFields(ctx, id, fields)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, &ProductNotFoundError{ProductID: id}
		}
		return nil, err
	}
	s.invalidate(id)
	return product, nil
}

// AdjustStock applies a manual stock correction through the same primitive
// the order engine uses, so the movement ledger stays complete.
func (s *CatalogService) AdjustStock(ctx context.Context, id uint, delta int, reason string) (*domain.Product, error) {
	product, err := s.store.AdjustStock(ctx, id, delta, reason)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			return nil, &ProductNotFoundError{ProductID: id}
		case errors.Is(err, repository.ErrInsufficientStock):
			return nil, &InsufficientStockError{
				ProductID: id,
				Available: product.StockQuantity,
				Requested: -delta,
			}
		default:
			return nil, err
		}
	}
	s.logger.Info("Stock adjusted",
		zap.Uint("product_id", id),
		zap.Int("delta", delta),
		zap.String("reason", reason),
		zap.Int("new_stock", product.StockQuantity))
	s.invalidate(id)
	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	err := s.store.DeleteProduct(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return &ProductNotFoundError{ProductID: id}
		}
		return err
	}
	s.invalidate(id)
	return nil
}

func (s *CatalogService) ListLowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	return s.store.ListLowStock(ctx, threshold)
}

func (s *CatalogService) StockHistory(ctx context.Context) ([]domain.StockMovement, error) {
	return s.store.StockHistory(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	if name == "" {
		return nil, fmt.Errorf("category name is required")
	}
	category := &domain.Category{Name: name}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	err := s.store.DeleteCategory(ctx, id)
	if errors.Is(err, repository.ErrCategoryNotFound) {
		return ErrCategoryNotFound
	}
	return err
}

func (s *CatalogService) invalidate(id uint) {
	if s.cache == nil {
		return
	}
	s.cache.Drop(context.Background(), id)
}
