package repository

import (
	"context"
	"fmt"

	"github.com/RezaAbdollahigit/StoreTrack/internal/domain"
)

// StockHistory returns every ledger entry, most recent first, with the
// product preloaded for display.
func (s *Store) StockHistory(ctx context.Context) ([]domain.StockMovement, error) {
	var history []domain.StockMovement
	err := s.db.WithContext(ctx).
		Preload("Product").
		Order("created_at DESC").
		Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stock history: %w", err)
	}
	return history, nil
}

// MovementSum returns the net quantity change recorded for a product.
func (s *Store) MovementSum(ctx context.Context, productID uint) (int, error) {
	var sum int
	err := s.db.WithContext(ctx).
		Model(&domain.StockMovement{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity_change), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum stock movements: %w", err)
	}
	return sum, nil
}
