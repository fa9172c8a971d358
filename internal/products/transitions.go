package products

import "github.com/angelmondragon/thriftdrop-backend/pkg/enums"

var transitions = map[enums.ProductStatus][]enums.ProductStatus{
	enums.ProductStatusAvailable: {enums.ProductStatusReserved, enums.ProductStatusSold},
	enums.ProductStatusReserved:  {enums.ProductStatusAvailable, enums.ProductStatusSold},
	enums.ProductStatusSold:      {enums.ProductStatusAvailable},
}

// CanTransition reports whether a product may move between statuses through the back office.
func CanTransition(from, to enums.ProductStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func AllowedTransitions(from enums.ProductStatus) []enums.ProductStatus {
	next := transitions[from]
	out := make([]enums.ProductStatus, len(next))
	copy(out, next)
	return out
}
