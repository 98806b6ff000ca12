// Package queue defines message payloads exchanged over the message broker.
package queue

// EventKind discriminates the notification payloads published to the
// reservation.notifications queue.
type EventKind string

const (
	KindReservationBooked EventKind = "reservation.booked"
	KindStatusChanged     EventKind = "reservation.status_changed"
	KindCabinSoldOut      EventKind = "cabin.sold_out"
)

// NotificationEvent is published for every reservation lifecycle change and
// for cabins selling out. It carries enough information for downstream
// consumers to log, notify, or trigger analytics without querying the
// primary database. Fields not relevant to a kind are left zero.
type NotificationEvent struct {
	Kind             EventKind `json:"kind"`
	ReservationID    uint64    `json:"reservation_id,omitempty"`
	UserID           uint64    `json:"user_id,omitempty"`
	FlightID         uint64    `json:"flight_id,omitempty"`
	Status           string    `json:"status,omitempty"`
	PreviousStatus   string    `json:"previous_status,omitempty"`
	FareClass        string    `json:"fare_class,omitempty"`
	TicketCount      uint32    `json:"ticket_count,omitempty"`
	TotalAmountCents uint32    `json:"total_amount_cents,omitempty"`
	PaymentRef       string    `json:"payment_ref,omitempty"`
	OccurredAt       string    `json:"occurred_at"`
}
