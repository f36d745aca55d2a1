// Package shipper runs the deferred Pending -> Sent transition. Instead of
// an in-memory timer per order, the due time is persisted on the order row
// and a background loop polls for rows past it, so pending transitions
// survive a process restart.
package shipper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/RezaAbdollahigit/StoreTrack/internal/repository"
	"github.com/RezaAbdollahigit/StoreTrack/internal/service"
)

const batchSize = 100

type Shipper struct {
	store    *repository.Store
	orders   *service.OrderService
	interval time.Duration
	logger   *zap.Logger
}

func New(store *repository.Store, orders *service.OrderService, interval time.Duration, logger *zap.Logger) *Shipper {
	return &Shipper{
		store:    store,
		orders:   orders,
		interval: interval,
		logger:   logger,
	}
}

// Run polls until ctx is cancelled. Each due order is transitioned in its
// own short transaction; no transaction is held open between ticks. A
// failure on one order is logged and never escalates, so the loop can
// never take order placement down with it.
func (s *Shipper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Shipper started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Shipper stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Shipper) tick(ctx context.Context) {
	due, err := s.store.DuePendingOrders(ctx, time.Now(), batchSize)
	if err != nil {
		s.logger.Error("Failed to list due orders", zap.Error(err))
		return
	}
	for _, order := range due {
		if err := s.orders.AutoSend(ctx, order.ID); err != nil {
			s.logger.Error("Failed to auto-send order",
				zap.Uint("order_id", order.ID),
				zap.Error(err))
			continue
		}
		s.logger.Info("Order auto-sent", zap.Uint("order_id", order.ID))
	}
}
