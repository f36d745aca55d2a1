package events

import (
	"time"
)

// LowStockEvent is the advisory emitted after a committed order leaves a
// product at or below the configured threshold. Best-effort: consumers must
// not rely on delivery.
type LowStockEvent struct {
	EventID       string    `json:"event_id"`
	ProductID     uint      `json:"product_id"`
	ProductName   string    `json:"product_name"`
	StockQuantity int       `json:"stock_quantity"`
	Threshold     int       `json:"threshold"`
	Timestamp     time.Time `json:"timestamp"`
}

type OrderCreatedEvent struct {
	EventID      string      `json:"event_id"`
	OrderID      uint        `json:"order_id"`
	CustomerName string      `json:"customer_name"`
	TotalAmount  float64     `json:"total_amount"`
	Items        []OrderLine `json:"items"`
	Status       string      `json:"status"`
	Timestamp    time.Time   `json:"timestamp"`
}

type OrderLine struct {
	ProductID uint    `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}
