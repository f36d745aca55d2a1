package domain

import (
	"time"
)

// Category groups products. Deleting a category does not delete its
// products; their CategoryID is set to NULL (see repository.DeleteCategory).
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product is the catalog row. StockQuantity is never written directly:
// every change goes through the store's stock adjustment, which records
// a matching StockMovement in the same transaction.
type Product struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Description   string    `json:"description"`
	Price         float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	StockQuantity int       `gorm:"not null;default:0" json:"stock_quantity"`
	CategoryID    *uint     `gorm:"index" json:"category_id"`
	Category      *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	ImageURL      string    `gorm:"size:255" json:"image_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Order is created atomically with its items. TotalAmount is frozen at
// placement time and stays valid even if catalog prices change later.
type Order struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	CustomerName string      `gorm:"size:255" json:"customer_name"`
	TotalAmount  float64     `gorm:"type:decimal(10,2)" json:"total_amount"`
	Status       OrderStatus `gorm:"size:32;not null" json:"status"`
	// AutoSendAt is when the background shipper may flip a still-Pending
	// order to Sent. Persisted so the deferred transition survives restarts.
	AutoSendAt time.Time   `gorm:"index" json:"auto_send_at"`
	Items      []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// OrderItem is an immutable snapshot of one basket line. Price is the
// unit price at purchase time, not a reference into the catalog.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	OrderID   uint    `gorm:"index;not null" json:"order_id"`
	ProductID uint    `gorm:"index;not null" json:"product_id"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	Price     float64 `gorm:"type:decimal(10,2);not null" json:"price"`
}

// StockMovement is one append-only ledger entry. QuantityChange is signed:
// negative for sales, positive for restocks.
type StockMovement struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ProductID      uint      `gorm:"index;not null" json:"product_id"`
	Product        *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	QuantityChange int       `gorm:"not null" json:"quantity_change"`
	Reason         string    `gorm:"size:255" json:"reason"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
