package domain

// OrderStatus is the order lifecycle state. Pending is the only non-terminal
// state; Sent and Cancelled are terminal.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusSent      OrderStatus = "Sent"
	StatusCancelled OrderStatus = "Cancelled"
)

// ParseOrderStatus maps a wire status string to a known status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case StatusPending, StatusSent, StatusCancelled:
		return OrderStatus(s), true
	}
	return "", false
}

// CanTransitionTo reports whether the state machine allows moving from the
// current status to next. Only Pending -> Sent and Pending -> Cancelled are
// legal; terminal states never transition again.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s != StatusPending {
		return false
	}
	return next == StatusSent || next == StatusCancelled
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == StatusSent || s == StatusCancelled
}
