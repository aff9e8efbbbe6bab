package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	allowed := []struct{ from, to string }{
		{OrderStatusPending, OrderStatusConfirmed},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusConfirmed, OrderStatusShipped},
		{OrderStatusConfirmed, OrderStatusCancelled},
		{OrderStatusShipped, OrderStatusDelivered},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransitionTo(tr.from, tr.to), "%s -> %s should be allowed", tr.from, tr.to)
	}

	denied := []struct{ from, to string }{
		{OrderStatusShipped, OrderStatusCancelled},
		{OrderStatusDelivered, OrderStatusCancelled},
		{OrderStatusCancelled, OrderStatusConfirmed},
		{OrderStatusCancelled, OrderStatusPending},
		{OrderStatusDelivered, OrderStatusShipped},
		{OrderStatusPending, OrderStatusShipped},
		{OrderStatusPending, OrderStatusDelivered},
	}
	for _, tr := range denied {
		assert.False(t, CanTransitionTo(tr.from, tr.to), "%s -> %s should be denied", tr.from, tr.to)
	}
}

func TestTerminalStatesHaveNoTransitions(t *testing.T) {
	all := []string{OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled}

	for _, target := range all {
		assert.False(t, CanTransitionTo(OrderStatusCancelled, target))
		assert.False(t, CanTransitionTo(OrderStatusDelivered, target))
	}
}
