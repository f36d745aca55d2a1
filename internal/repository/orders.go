package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/RezaAbdollahigit/StoreTrack/internal/domain"
)

func (s *Store) CreateOrder(ctx context.Context, o *domain.Order) error {
	if err := s.db.WithContext(ctx).Create(o).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (s *Store) CreateOrderItems(ctx context.Context, items []domain.OrderItem) error {
	if err := s.db.WithContext(ctx).Create(&items).Error; err != nil {
		return fmt.Errorf("failed to create order items: %w", err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id uint) (*domain.Order, error) {
	var o domain.Order
	err := s.db.WithContext(ctx).Preload("Items").First(&o, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &o, nil
}

// GetOrderForUpdate locks the order row for a status transition. Must run
// inside Transaction.
func (s *Store) GetOrderForUpdate(ctx context.Context, id uint) (*domain.Order, error) {
	var o domain.Order
	err := s.db.WithContext(ctx).
		Clauses(lockForUpdate()).
		First(&o, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	return &o, nil
}

func (s *Store) SetOrderStatus(ctx context.Context, id uint, status domain.OrderStatus) error {
	err := s.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}

func (s *Store) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	q := s.db.WithContext(ctx).Preload("Items").Order("orders.created_at DESC")
	if filter.CustomerNameSearch != "" {
		q = q.Where("customer_name LIKE ?", "%"+filter.CustomerNameSearch+"%")
	}
	if filter.IDSearch != 0 {
		q = q.Where("orders.id = ?", filter.IDSearch)
	}
	if filter.ProductNameSearch != "" {
		// Distinct because an order matches once per matching item.
		q = q.Distinct("orders.*").
			Joins("JOIN order_items ON order_items.order_id = orders.id").
			Joins("JOIN products ON products.id = order_items.product_id").
			Where("products.name LIKE ?", "%"+filter.ProductNameSearch+"%")
	}
	var orders []domain.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// DeleteOrder removes the items first, then the order, in one transaction
// so no dangling items survive a partial failure.
func (s *Store) DeleteOrder(ctx context.Context, id uint) error {
	return s.Transaction(ctx, func(tx *Store) error {
		if _, err := tx.GetOrder(ctx, id); err != nil {
			return err
		}
		if err := tx.db.WithContext(ctx).Where("order_id = ?", id).Delete(&domain.OrderItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}
		if err := tx.db.WithContext(ctx).Delete(&domain.Order{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}
		return nil
	})
}

// DuePendingOrders returns orders still Pending whose auto-send time has
// passed. Used by the background shipper; the transition itself happens in
// its own short transaction per order.
func (s *Store) DuePendingOrders(ctx context.Context, now time.Time, limit int) ([]domain.Order, error) {
	var orders []domain.Order
	err := s.db.WithContext(ctx).
		Where("status = ? AND auto_send_at <= ?", domain.StatusPending, now).
		Order("auto_send_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due orders: %w", err)
	}
	return orders, nil
}

func (s *Store) SalesSummary(ctx context.Context) (*domain.SalesSummary, error) {
	var summary domain.SalesSummary
	err := s.db.WithContext(ctx).
		Model(&domain.Order{}).
		Select("COUNT(*) AS total_orders, COALESCE(SUM(total_amount), 0) AS total_revenue").
		Scan(&summary).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute sales summary: %w", err)
	}
	return &summary, nil
}
