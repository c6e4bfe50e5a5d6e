package domain

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// CanEdit reports whether header and lines of an order may still change.
// pending is a legacy initial state and behaves like draft.
func (s OrderStatus) CanEdit() bool {
	return s == OrderDraft || s == OrderPending
}

// CanReceive reports whether goods may be booked in against the order.
func (s OrderStatus) CanReceive() bool {
	return s == OrderOrdered || s == OrderPartiallyReceived
}

// CanCancel reports whether the order may move to cancelled. Once receiving
// has started cancellation is no longer offered.
func (s OrderStatus) CanCancel() bool {
	return s == OrderDraft || s == OrderPending || s == OrderOrdered
}

// IsActive reports whether the order is still awaiting goods.
func (s OrderStatus) IsActive() bool {
	return s == OrderPending || s == OrderOrdered || s == OrderPartiallyReceived
}

// ActiveOrderStatuses are the statuses counted as pending orders.
var ActiveOrderStatuses = []OrderStatus{OrderPending, OrderOrdered, OrderPartiallyReceived}

// CanTransition reports whether from → to is an allowed lifecycle step.
// Statuses only advance; cancelled is the single escape hatch.
func CanTransition(from, to OrderStatus) bool {
	switch to {
	case OrderOrdered:
		return from.CanEdit()
	case OrderCancelled:
		return from.CanCancel()
	case OrderPartiallyReceived, OrderReceived:
		return from.CanReceive()
	case OrderDraft, OrderPending:
		return from == to
	}
	return false
}

// ValidCreationStatus reports whether an order may be created in s.
func ValidCreationStatus(s OrderStatus) bool {
	return s == OrderDraft || s == OrderOrdered
}

// OrderedDateFor returns the ordered_date to stamp on creation: now for an
// ordered order, nil for a draft.
func OrderedDateFor(s OrderStatus, now time.Time) *time.Time {
	if s != OrderOrdered {
		return nil
	}
	return &now
}

// Completion returns round(received/total*100). ok is false when total is
// zero, in which case there is no meaningful percentage to show.
func Completion(received, total int) (pct int, ok bool) {
	if total <= 0 {
		return 0, false
	}
	return int(math.Round(float64(received) / float64(total) * 100)), true
}

// LineProgress is the ordered and received quantity of one order line.
type LineProgress struct {
	Quantity         int
	ReceivedQuantity int
}

// Complete reports whether the line has been fully received.
func (l LineProgress) Complete() bool { return l.ReceivedQuantity >= l.Quantity }

// Outstanding is the quantity still expected.
func (l LineProgress) Outstanding() int {
	if l.ReceivedQuantity >= l.Quantity {
		return 0
	}
	return l.Quantity - l.ReceivedQuantity
}

// CapReceipt limits an incoming quantity so received never exceeds ordered.
func (l LineProgress) CapReceipt(incoming int) int {
	if incoming <= 0 {
		return 0
	}
	if out := l.Outstanding(); incoming > out {
		return out
	}
	return incoming
}

// StatusAfterReception derives the order status once the lines have been
// updated by a reception: received when every line is complete,
// partially_received when anything has arrived, current otherwise.
func StatusAfterReception(current OrderStatus, lines []LineProgress) OrderStatus {
	if len(lines) == 0 {
		return current
	}
	all, started := true, false
	for _, l := range lines {
		if !l.Complete() {
			all = false
		}
		if l.ReceivedQuantity > 0 {
			started = true
		}
	}
	switch {
	case all:
		return OrderReceived
	case started:
		return OrderPartiallyReceived
	default:
		return current
	}
}

// ReferenceGenerator produces order reference numbers.
type ReferenceGenerator struct {
	Now  func() time.Time
	Intn func(n int) int
}

// DefaultReferences uses wall clock and math/rand.
var DefaultReferences = ReferenceGenerator{Now: time.Now, Intn: rand.Intn}

// Next returns CMD-<yyyymmdd>-<NNN> with a zero-padded random suffix.
func (g ReferenceGenerator) Next() string {
	return FormatReference(g.Now(), g.Intn(1000))
}

// FormatReference builds a reference for the given date and suffix.
func FormatReference(t time.Time, n int) string {
	return fmt.Sprintf("CMD-%s-%03d", t.Format("20060102"), n%1000)
}
