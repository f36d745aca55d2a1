package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RezaAbdollahigit/StoreTrack/internal/domain"
	"github.com/RezaAbdollahigit/StoreTrack/internal/events"
	"github.com/RezaAbdollahigit/StoreTrack/internal/repository"
)

// OrderConfig tunes the order engine. Values come from the process config,
// never from constants baked into the logic.
type OrderConfig struct {
	LowStockThreshold int
	AutoSendDelay     time.Duration
}

// OrderService is the order placement and stock-adjustment engine. It owns
// the creation of Order/OrderItem/StockMovement triples and the order
// lifecycle; product rows are only touched through the store's stock
// adjustment so the ledger stays complete.
type OrderService struct {
	store     *repository.Store
	publisher events.Publisher
	cache     ProductCache
	logger    *zap.Logger
	cfg       OrderConfig
}

// NewOrderService builds the engine. cache may be nil; when set, committed
// stock decrements drop the affected product keys so reads never serve a
// pre-sale quantity.
func NewOrderService(store *repository.Store, publisher events.Publisher, cache ProductCache, logger *zap.Logger, cfg OrderConfig) *OrderService {
	return &OrderService{
		store:     store,
		publisher: publisher,
		cache:     cache,
		logger:    logger,
		cfg:       cfg,
	}
}

// PlaceOrder validates the basket against current stock, creates the order
// with its items, decrements stock and writes the ledger entries, all in
// one transaction. Product rows are locked for the duration of the
// transaction so two orders racing for the same last units cannot both
// succeed. Locks are taken in ascending product ID order to avoid
// deadlocks between concurrent baskets.
func (s *OrderService) PlaceOrder(ctx context.Context, customerName string, items []domain.BasketLine) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyBasket
	}
	for _, line := range items {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be positive for product %d", line.ProductID)
		}
	}

	var (
		placed   *domain.Order
		lowStock []domain.Product
		ids      []uint
	)

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		lowStock = lowStock[:0]

		// Lock every product up front, smallest ID first.
		ids = ids[:0]
		seen := make(map[uint]bool, len(items))
		for _, line := range items {
			if !seen[line.ProductID] {
				seen[line.ProductID] = true
				ids = append(ids, line.ProductID)
			}
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		products := make(map[uint]*domain.Product, len(ids))
		for _, id := range ids {
			p, err := tx.GetProductForUpdate(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrProductNotFound) {
					return &ProductNotFoundError{ProductID: id}
				}
				return err
			}
			products[id] = p
		}

		// Availability check against the locked snapshot, cumulative per
		// product in case the basket repeats one.
		remaining := make(map[uint]int, len(ids))
		for id, p := range products {
			remaining[id] = p.StockQuantity
		}
		var total float64
		for _, line := range items {
			p := products[line.ProductID]
			if remaining[line.ProductID] < line.Quantity {
				return &InsufficientStockError{
					ProductID: p.ID,
					Available: p.StockQuantity,
					Requested: line.Quantity,
				}
			}
			remaining[line.ProductID] -= line.Quantity
			total += p.Price * float64(line.Quantity)
		}

		order := &domain.Order{
			CustomerName: customerName,
			TotalAmount:  total,
			Status:       domain.StatusPending,
			AutoSendAt:   time.Now().Add(s.cfg.AutoSendDelay),
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		orderItems := make([]domain.OrderItem, 0, len(items))
		for _, line := range items {
			orderItems = append(orderItems, domain.OrderItem{
				OrderID:   order.ID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     products[line.ProductID].Price,
			})
		}
		if err := tx.CreateOrderItems(ctx, orderItems); err != nil {
			return err
		}

		reason := fmt.Sprintf("Sale in order #%d", order.ID)
		final := make(map[uint]*domain.Product, len(ids))
		for _, line := range items {
			updated, err := tx.AdjustStock(ctx, line.ProductID, -line.Quantity, reason)
			if err != nil {
				return err
			}
			final[line.ProductID] = updated
		}
		// One advisory per product, judged on its post-order quantity, even
		// when a basket repeats the product across lines.
		for _, id := range ids {
			p := final[id]
			if p.StockQuantity > 0 && p.StockQuantity <= s.cfg.LowStockThreshold {
				lowStock = append(lowStock, *p)
			}
		}

		order.Items = orderItems
		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order placed",
		zap.Uint("order_id", placed.ID),
		zap.String("customer", placed.CustomerName),
		zap.Float64("total_amount", placed.TotalAmount),
		zap.Int("lines", len(placed.Items)))

	// The committed decrements make any cached copy of these products
	// stale; drop them before anyone can read a pre-sale quantity.
	if s.cache != nil {
		for _, id := range ids {
			s.cache.Drop(ctx, id)
		}
	}

	// Advisories go out only after the durable commit, off the request
	// path. A publish failure is logged and otherwise ignored.
	s.emitAdvisories(placed, lowStock)

	return placed, nil
}

func (s *OrderService) emitAdvisories(order *domain.Order, lowStock []domain.Product) {
	lines := make([]events.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, events.OrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	created := events.OrderCreatedEvent{
		EventID:      uuid.NewString(),
		OrderID:      order.ID,
		CustomerName: order.CustomerName,
		TotalAmount:  order.TotalAmount,
		Items:        lines,
		Status:       string(order.Status),
		Timestamp:    time.Now(),
	}
	warnings := make([]events.LowStockEvent, 0, len(lowStock))
	for _, p := range lowStock {
		warnings = append(warnings, events.LowStockEvent{
			EventID:       uuid.NewString(),
			ProductID:     p.ID,
			ProductName:   p.Name,
			StockQuantity: p.StockQuantity,
			Threshold:     s.cfg.LowStockThreshold,
			Timestamp:     time.Now(),
		})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.publisher.PublishOrderCreated(ctx, created); err != nil {
			s.logger.Error("Failed to publish order created event",
				zap.Uint("order_id", created.OrderID), zap.Error(err))
		}
		for _, w := range warnings {
			if err := s.publisher.PublishLowStock(ctx, w); err != nil {
				s.logger.Error("Failed to publish low stock event",
					zap.Uint("product_id", w.ProductID), zap.Error(err))
			}
		}
	}()
}

// UpdateOrderStatus applies an explicit state transition. The order row is
// locked so a racing auto-send cannot interleave between the state check
// and the write.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uint, status string) (*domain.Order, error) {
	next, ok := domain.ParseOrderStatus(status)
	if !ok {
		return nil, ErrInvalidStatus
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrOrderNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if !order.Status.CanTransitionTo(next) {
			return &InvalidTransitionError{From: order.Status, To: next}
		}
		return tx.SetOrderStatus(ctx, id, next)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order status updated",
		zap.Uint("order_id", id),
		zap.String("status", status))
	return s.GetOrder(ctx, id)
}

// AutoSend flips a still-Pending order to Sent. It is idempotent by
// construction: a cancellation or manual send that happened in the interim
// makes this a no-op, never an error.
func (s *OrderService) AutoSend(ctx context.Context, id uint) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrOrderNotFound) {
				return nil
			}
			return err
		}
		if order.Status != domain.StatusPending {
			return nil
		}
		return tx.SetOrderStatus(ctx, id, domain.StatusSent)
	})
}

func (s *OrderService) GetOrder(ctx context.Context, id uint) (*domain.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	return s.store.ListOrders(ctx, filter)
}

// DeleteOrder removes an order and its items as one unit.
func (s *OrderService) DeleteOrder(ctx context.Context, id uint) error {
	err := s.store.DeleteOrder(ctx, id)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return ErrOrderNotFound
	}
	return err
}

func (s *OrderService) SalesSummary(ctx context.Context) (*domain.SalesSummary, error) {
	return s.store.SalesSummary(ctx)
}
