package deliveries

import "github.com/angelmondragon/thriftdrop-backend/pkg/enums"

// transitions is the back-office delivery table. delivered is terminal.
var transitions = map[enums.DeliveryStatus][]enums.DeliveryStatus{
	enums.DeliveryStatusPending: {
		enums.DeliveryStatusScheduled,
		enums.DeliveryStatusInTransit,
		enums.DeliveryStatusDelivered,
		enums.DeliveryStatusFailed,
	},
	enums.DeliveryStatusScheduled: {
		enums.DeliveryStatusInTransit,
		enums.DeliveryStatusDelivered,
		enums.DeliveryStatusFailed,
		enums.DeliveryStatusPending,
	},
	enums.DeliveryStatusInTransit: {
		enums.DeliveryStatusDelivered,
		enums.DeliveryStatusFailed,
	},
	enums.DeliveryStatusFailed: {
		enums.DeliveryStatusPending,
		enums.DeliveryStatusScheduled,
	},
}

func CanTransition(from, to enums.DeliveryStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func AllowedTransitions(from enums.DeliveryStatus) []enums.DeliveryStatus {
	next := transitions[from]
	out := make([]enums.DeliveryStatus, len(next))
	copy(out, next)
	return out
}
