package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrderStatus(t *testing.T) {
	for _, valid := range []string{"Pending", "Sent", "Cancelled"} {
		status, ok := ParseOrderStatus(valid)
		assert.True(t, ok, valid)
		assert.Equal(t, OrderStatus(valid), status)
	}
	for _, invalid := range []string{"", "pending", "Shipped", "Done"} {
		_, ok := ParseOrderStatus(invalid)
		assert.False(t, ok, invalid)
	}
}

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{StatusPending, StatusSent, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusPending, false},
		{StatusSent, StatusCancelled, false},
		{StatusSent, StatusPending, false},
		{StatusCancelled, StatusSent, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusSent.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}
