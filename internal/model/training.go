package model

import "time"

// Training represents a course offered by the provider.  Name is unique
// across the collection.  MaxParticipants caps the available_slots of
// every TrainingDate scheduled for this training.
//
// Fields:
//  ID              – document identifier (hex).
//  Name            – unique course name.
//  Description     – free-form description.
//  Price           – course price.
//  Instructor      – instructor name.
//  DurationHours   – course length in hours (> 0).
//  MaxParticipants – capacity ceiling for scheduled dates (>= 1).
//  CreatedBy       – id of the user who created the course.
//  CreatedAt       – creation timestamp.
type Training struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	Name            string    `bson:"name" json:"name"`
	Description     string    `bson:"description" json:"description"`
	Price           float64   `bson:"price" json:"price"`
	Instructor      string    `bson:"instructor" json:"instructor"`
	DurationHours   float64   `bson:"duration_hours" json:"duration_hours"`
	MaxParticipants int       `bson:"max_participants" json:"max_participants"`
	CreatedBy       string    `bson:"created_by" json:"created_by"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}
