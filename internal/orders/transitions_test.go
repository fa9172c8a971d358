package orders

import (
	"testing"

	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to enums.OrderStatus
		want     bool
	}{
		{enums.OrderStatusPending, enums.OrderStatusPaid, true},
		{enums.OrderStatusPending, enums.OrderStatusCancelled, true},
		{enums.OrderStatusPaid, enums.OrderStatusRefunded, true},
		{enums.OrderStatusPending, enums.OrderStatusRefunded, false},
		{enums.OrderStatusPaid, enums.OrderStatusPending, false},
		{enums.OrderStatusPaid, enums.OrderStatusCancelled, false},
		{enums.OrderStatusCancelled, enums.OrderStatusPending, false},
		{enums.OrderStatusRefunded, enums.OrderStatusPaid, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestAllowedTransitionsReturnsCopy(t *testing.T) {
	allowed := AllowedTransitions(enums.OrderStatusPending)
	allowed[0] = enums.OrderStatusRefunded
	if !CanTransition(enums.OrderStatusPending, enums.OrderStatusPaid) {
		t.Fatal("mutating the returned slice must not change the table")
	}
	if len(AllowedTransitions(enums.OrderStatusRefunded)) != 0 {
		t.Fatal("refunded must be terminal")
	}
}
