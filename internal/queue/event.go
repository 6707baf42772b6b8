// Package queue defines the booking event payloads exchanged over the
// message broker and the background consumer that handles them.
package queue

// Queue the booking lifecycle events travel on.
const BookingQueueName = "booking.events"

// Booking event actions.
const (
	ActionCreated   = "created"
	ActionCancelled = "cancelled"
)

// BookingEvent is published after a booking is created or deleted.  It
// carries enough context for downstream consumers to notify the
// customer without querying the primary database.
type BookingEvent struct {
	Action         string `json:"action"`
	BookingID      string `json:"booking_id"`
	TrainingDateID string `json:"training_date_id"`
	TrainingName   string `json:"training_name"`
	Location       string `json:"location"`
	StartDate      string `json:"start_date"`
	CustomerName   string `json:"customer_name"`
	CustomerEmail  string `json:"customer_email"`
	OccurredAt     string `json:"occurred_at"`
}
