package orders

import (
	"github.com/andresouza-dev/pratoexpress-backend/pkg/enums"
)

// allowedTransitions is the single source of truth for the order lifecycle.
// Cancellation is reachable from every non-terminal state; delivered and
// cancelled are terminal.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusCreated:          {enums.OrderStatusPaid, enums.OrderStatusCancelled},
	enums.OrderStatusPaid:             {enums.OrderStatusPreparing, enums.OrderStatusCancelled},
	enums.OrderStatusPreparing:        {enums.OrderStatusReadyForDelivery, enums.OrderStatusCancelled},
	enums.OrderStatusReadyForDelivery: {enums.OrderStatusInTransit, enums.OrderStatusCancelled},
	enums.OrderStatusInTransit:        {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
}

// CanTransition reports whether moving an order from one status to another is
// allowed. Everything not listed is rejected; handlers surface a state
// conflict rather than silently ignoring the write.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
