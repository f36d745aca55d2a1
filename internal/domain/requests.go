package domain

// BasketLine is one requested order line.
type BasketLine struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

type PlaceOrderRequest struct {
	CustomerName string       `json:"customer_name" binding:"required"`
	Items        []BasketLine `json:"items"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type CreateProductRequest struct {
	Name          string  `json:"name" binding:"required"`
	Description   string  `json:"description"`
	Price         float64 `json:"price" binding:"required,min=0"`
	StockQuantity int     `json:"stock_quantity" binding:"min=0"`
	CategoryID    *uint   `json:"category_id"`
	ImageURL      string  `json:"image_url"`
}

// UpdateProductRequest carries the fields a product edit may touch.
// StockQuantity is deliberately absent: stock changes only through
// the adjustment endpoint so the ledger stays complete.
type UpdateProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	CategoryID  *uint    `json:"category_id"`
	ImageURL    *string  `json:"image_url"`
}

type AdjustStockRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

type OrderFilter struct {
	CustomerNameSearch string
	IDSearch           uint
	// ProductNameSearch keeps only orders containing at least one item
	// whose product name matches.
	ProductNameSearch string
}

type ProductFilter struct {
	CategoryID uint
	Search     string
}

type SalesSummary struct {
	TotalOrders  int64   `json:"total_orders"`
	TotalRevenue float64 `json:"total_revenue"`
}

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type SigninRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
