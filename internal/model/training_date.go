package model

import "time"

// TrainingDate is a scheduled session of a Training.  AvailableSlots is
// the capacity counter: it is decremented when a booking is created and
// incremented when one is deleted or moved away.  The invariant
// 0 <= AvailableSlots <= parent.MaxParticipants is enforced by the
// lifecycle handlers and the booking workflow.
type TrainingDate struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	TrainingID     string    `bson:"training_id" json:"training_id"`
	StartDate      time.Time `bson:"start_date" json:"start_date"`
	EndDate        time.Time `bson:"end_date" json:"end_date"`
	Location       string    `bson:"location" json:"location"`
	AvailableSlots int       `bson:"available_slots" json:"available_slots"`
	CreatedBy      string    `bson:"created_by" json:"created_by"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}
