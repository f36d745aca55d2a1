package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/RezaAbdollahigit/StoreTrack/internal/domain"
)

func (s *Store) CreateProduct(ctx context.Context, p *domain.Product) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (s *Store) GetProduct(ctx context.Context, id uint) (*domain.Product, error) {
	var p domain.Product
	err := s.db.WithContext(ctx).Preload("Category").First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

// GetProductForUpdate reads a product row under a FOR UPDATE lock. Must be
// called inside Transaction; the lock is held until commit so a concurrent
// order competing for the same stock waits rather than double-spending it.
func (s *Store) GetProductForUpdate(ctx context.Context, id uint) (*domain.Product, error) {
	var p domain.Product
	err := s.db.WithContext(ctx).
		Clauses(lockForUpdate()).
		First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}
	return &p, nil
}

// AdjustStock applies a signed delta to a product's stock and appends the
// matching ledger entry. The row is locked first, so the non-negativity
// check and the write see the same snapshot. Callers needing atomicity with
// other writes run this inside Transaction.
func (s *Store) AdjustStock(ctx context.Context, productID uint, delta int, reason string) (*domain.Product, error) {
	var updated *domain.Product
	run := func(tx *Store) error {
		p, err := tx.GetProductForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		newQty := p.StockQuantity + delta
		if newQty < 0 {
			// Hand the caller the current quantity for its error detail.
			updated = p
			return ErrInsufficientStock
		}
		if err := tx.db.WithContext(ctx).Model(p).Update("stock_quantity", newQty).Error; err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}
		mv := domain.StockMovement{
			ProductID:      productID,
			QuantityChange: delta,
			Reason:         reason,
		}
		if err := tx.db.WithContext(ctx).Create(&mv).Error; err != nil {
			return fmt.Errorf("failed to record stock movement: %w", err)
		}
		p.StockQuantity = newQty
		updated = p
		return nil
	}

	// Already inside a transaction when db is tx-bound; nesting would
	// start a savepoint we don't need.
	var err error
	if s.inTx() {
		err = run(s)
	} else {
		err = s.Transaction(ctx, run)
	}
	if err != nil && !errors.Is(err, ErrInsufficientStock) {
		return nil, err
	}
	return updated, err
}

func (s *Store) inTx() bool {
	committer, ok := s.db.Statement.ConnPool.(gorm.TxCommitter)
	return ok && committer != nil
}

func (s *Store) UpdateProductFields(ctx context.Context, id uint, fields map[string]any) (*domain.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return p, nil
	}
	if err := s.db.WithContext(ctx).Model(p).Updates(fields).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return s.GetProduct(ctx, id)
}

func (s *Store) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	q := s.db.WithContext(ctx).Preload("Category")
	if filter.CategoryID != 0 {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}
	var products []domain.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *Store) ListLowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	var products []domain.Product
	err := s.db.WithContext(ctx).
		Where("stock_quantity <= ?", threshold).
		Order("stock_quantity ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}
	return products, nil
}

// DeleteProduct removes a product together with its ledger rows so no
// orphaned movements remain. Order items referencing the product are kept;
// they are historical snapshots, not live references.
func (s *Store) DeleteProduct(ctx context.Context, id uint) error {
	return s.Transaction(ctx, func(tx *Store) error {
		if _, err := tx.GetProduct(ctx, id); err != nil {
			return err
		}
		if err := tx.db.WithContext(ctx).Where("product_id = ?", id).Delete(&domain.StockMovement{}).Error; err != nil {
			return fmt.Errorf("failed to delete stock movements: %w", err)
		}
		if err := tx.db.WithContext(ctx).Delete(&domain.Product{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
}
