package model

import "time"

// Booking statuses.  A booking starts out confirmed; cancelled and
// completed are reachable through updates only.
const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingCompleted = "completed"
)

// Booking records a customer's reservation on a TrainingDate.  At most
// one booking may exist per (training_date_id, customer_email) pair.
// CreatedBy is the authenticated user that created the record; for
// non-admin callers authorization is keyed on CustomerEmail, not on
// CreatedBy.
type Booking struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	TrainingDateID string    `bson:"training_date_id" json:"training_date_id"`
	CustomerName   string    `bson:"customer_name" json:"customer_name"`
	CustomerEmail  string    `bson:"customer_email" json:"customer_email"`
	CustomerPhone  string    `bson:"customer_phone,omitempty" json:"customer_phone,omitempty"`
	Notes          string    `bson:"notes,omitempty" json:"notes,omitempty"`
	Status         string    `bson:"status" json:"status"`
	CreatedBy      string    `bson:"created_by" json:"created_by"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}

// ValidBookingStatus reports whether s is one of the known statuses.
func ValidBookingStatus(s string) bool {
	switch s {
	case BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}
