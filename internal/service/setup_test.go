package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/RezaAbdollahigit/StoreTrack/internal/domain"
	"github.com/RezaAbdollahigit/StoreTrack/internal/events"
	"github.com/RezaAbdollahigit/StoreTrack/internal/repository"
)

// newTestStore opens an isolated in-memory database per test.
func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	return repository.NewStore(db)
}

// capturingPublisher records events for assertions instead of sending them
// anywhere.
type capturingPublisher struct {
	mu       sync.Mutex
	orders   []events.OrderCreatedEvent
	lowStock []events.LowStockEvent
}

func (p *capturingPublisher) PublishOrderCreated(_ context.Context, e events.OrderCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders = append(p.orders, e)
	return nil
}

func (p *capturingPublisher) PublishLowStock(_ context.Context, e events.LowStockEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lowStock = append(p.lowStock, e)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func (p *capturingPublisher) lowStockCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.lowStock)
}

func (p *capturingPublisher) orderCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.orders)
}

func newOrderService(store *repository.Store, pub events.Publisher) *OrderService {
	return newOrderServiceWithCache(store, pub, nil)
}

func newOrderServiceWithCache(store *repository.Store, pub events.Publisher, cache ProductCache) *OrderService {
	return NewOrderService(store, pub, cache, zap.NewNop(), OrderConfig{
		LowStockThreshold: 10,
		AutoSendDelay:     time.Minute,
	})
}

// memProductCache is an in-process ProductCache for tests.
type memProductCache struct {
	mu       sync.Mutex
	products map[uint]domain.Product
}

func newMemProductCache() *memProductCache {
	return &memProductCache{products: map[uint]domain.Product{}}
}

func (c *memProductCache) Get(_ context.Context, id uint) (*domain.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return nil, false
	}
	return &p, true
}

func (c *memProductCache) Set(_ context.Context, product *domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[product.ID] = *product
}

func (c *memProductCache) Drop(_ context.Context, id uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.products, id)
}

func seedProduct(t *testing.T, store *repository.Store, name string, price float64, stock int) *domain.Product {
	t.Helper()
	p := &domain.Product{Name: name, Price: price, StockQuantity: stock}
	require.NoError(t, store.CreateProduct(context.Background(), p))
	return p
}
