package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/RezaAbdollahigit/StoreTrack/internal/domain"
)

func (s *Store) CreateCategory(ctx context.Context, c *domain.Category) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (s *Store) GetCategory(ctx context.Context, id uint) (*domain.Category, error) {
	var c domain.Category
	err := s.db.WithContext(ctx).First(&c, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := s.db.WithContext(ctx).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// DeleteCategory nulls out the category link on its products rather than
// cascading, so catalog rows and their ledgers survive the deletion.
func (s *Store) DeleteCategory(ctx context.Context, id uint) error {
	return s.Transaction(ctx, func(tx *Store) error {
		if _, err := tx.GetCategory(ctx, id); err != nil {
			return err
		}
		err := tx.db.WithContext(ctx).
			Model(&domain.Product{}).
			Where("category_id = ?", id).
			Update("category_id", nil).Error
		if err != nil {
			return fmt.Errorf("failed to detach products: %w", err)
		}
		if err := tx.db.WithContext(ctx).Delete(&domain.Category{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return nil
	})
}
