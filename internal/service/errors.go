package service

import (
	"errors"
	"fmt"

	"github.com/RezaAbdollahigit/StoreTrack/internal/domain"
)

var (
	ErrEmptyBasket        = errors.New("shopping cart cannot be empty")
	ErrInvalidStatus      = errors.New("unrecognized order status")
	ErrOrderNotFound      = errors.New("order not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrEmailTaken         = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ProductNotFoundError reports which basket line referenced a missing
// product.
type ProductNotFoundError struct {
	ProductID uint
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product with ID %d not found", e.ProductID)
}

// InsufficientStockError carries enough detail for the caller to correct
// and resubmit the request.
type InsufficientStockError struct {
	ProductID uint
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

// InvalidTransitionError reports a state-machine violation, e.g. cancelling
// an order that was already sent.
type InvalidTransitionError struct {
	From domain.OrderStatus
	To   domain.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}
