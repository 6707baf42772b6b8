// Package service holds workflow logic that spans multiple
// collections, plus outbound integrations (queue publishing, email).
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/stefanh/training-provider-api/internal/model"
	"github.com/stefanh/training-provider-api/internal/repository"
)

// Actor identifies the caller of a workflow operation.  Admin is
// resolved by the rbac layer before the workflow runs.  For bookings
// the authorization key of a non-admin actor is their email, not
// their user id.
type Actor struct {
	ID    string
	Email string
	Admin bool
}

// BookingStore is the slice of the booking repository the workflow
// needs.  *repository.BookingRepo satisfies it.
type BookingStore interface {
	GetByID(ctx context.Context, id string) (model.Booking, error)
	ExistsForDate(ctx context.Context, trainingDateID, customerEmail, excludeID string) (bool, error)
	Insert(ctx context.Context, b model.Booking) (string, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

// CapacityStore exposes the training-date capacity counter.
// *repository.TrainingDateRepo satisfies it.  ReserveSlot must be a
// conditional decrement that fails with repository.ErrNoCapacity when
// no slot is free.
type CapacityStore interface {
	GetByID(ctx context.Context, id string) (model.TrainingDate, error)
	ReserveSlot(ctx context.Context, id string) error
	ReleaseSlot(ctx context.Context, id string) error
}

// BookingWorkflow orchestrates create, update and delete of bookings
// while keeping the capacity counters of the touched training dates
// consistent.  The store offers no multi-document transactions, so
// each mutation is a sequence of single-document steps ordered to fail
// closed, with compensating reversals when a later step fails.
type BookingWorkflow struct {
	Bookings BookingStore
	Dates    CapacityStore
}

func NewBookingWorkflow(bookings BookingStore, dates CapacityStore) *BookingWorkflow {
	if bookings == nil || dates == nil {
		panic("nil store passed to NewBookingWorkflow")
	}
	return &BookingWorkflow{Bookings: bookings, Dates: dates}
}

// CreateBookingInput carries the caller-supplied fields for Create.
type CreateBookingInput struct {
	TrainingDateID string
	CustomerName   string
	CustomerEmail  string
	CustomerPhone  string
	Notes          string
}

// Create books one slot on a training date.  Sequence: existence
// check, capacity check, duplicate check, conditional slot reserve,
// booking insert.  The reserve is the commit point; if the insert
// fails afterwards the slot is released again.  The duplicate check
// is check-then-act and keeps a small race window between two
// concurrent creates for the same customer; the capacity counter
// itself cannot be oversold because the reserve is a single
// conditional write.
func (w *BookingWorkflow) Create(ctx context.Context, actor Actor, in CreateBookingInput) (string, error) {
	date, err := w.Dates.GetByID(ctx, in.TrainingDateID)
	if err != nil {
		return "", err
	}
	if date.AvailableSlots <= 0 {
		return "", repository.ErrNoCapacity
	}
	dup, err := w.Bookings.ExistsForDate(ctx, in.TrainingDateID, in.CustomerEmail, "")
	if err != nil {
		return "", err
	}
	if dup {
		return "", repository.ErrDuplicateBooking
	}
	if err := w.Dates.ReserveSlot(ctx, in.TrainingDateID); err != nil {
		return "", err
	}
	id, err := w.Bookings.Insert(ctx, model.Booking{
		TrainingDateID: in.TrainingDateID,
		CustomerName:   in.CustomerName,
		CustomerEmail:  in.CustomerEmail,
		CustomerPhone:  in.CustomerPhone,
		Notes:          in.Notes,
		Status:         model.BookingConfirmed,
		CreatedBy:      actor.ID,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		if relErr := w.Dates.ReleaseSlot(ctx, in.TrainingDateID); relErr != nil {
			log.Printf("booking: slot release after failed insert on date %s: %v", in.TrainingDateID, relErr)
		}
		return "", fmt.Errorf("insert booking: %w", err)
	}
	return id, nil
}

// UpdateBookingInput carries the mutable booking fields.  Nil pointers
// leave the stored value untouched.
type UpdateBookingInput struct {
	ID             string
	TrainingDateID *string
	CustomerName   *string
	CustomerEmail  *string
	CustomerPhone  *string
	Notes          *string
	Status         *string
}

// Update edits a booking.  Moving it to another training date is,
// for slot accounting, a delete-then-create pair: the new date is
// reserved first, then the old date is released, then the document is
// rewritten.  Any failure after the reserve rolls the counters back.
func (w *BookingWorkflow) Update(ctx context.Context, actor Actor, in UpdateBookingInput) error {
	existing, err := w.Bookings.GetByID(ctx, in.ID)
	if err != nil {
		return err
	}
	if !actor.Admin && existing.CustomerEmail != actor.Email {
		return repository.ErrForbidden
	}

	email := existing.CustomerEmail
	if in.CustomerEmail != nil {
		email = *in.CustomerEmail
	}

	fields := map[string]any{}
	if in.CustomerName != nil {
		fields["customer_name"] = *in.CustomerName
	}
	if in.CustomerEmail != nil {
		fields["customer_email"] = *in.CustomerEmail
	}
	if in.CustomerPhone != nil {
		fields["customer_phone"] = *in.CustomerPhone
	}
	if in.Notes != nil {
		fields["notes"] = *in.Notes
	}
	if in.Status != nil {
		if !model.ValidBookingStatus(*in.Status) {
			return fmt.Errorf("%w: unknown status %q", repository.ErrConflict, *in.Status)
		}
		fields["status"] = *in.Status
	}

	moving := in.TrainingDateID != nil && *in.TrainingDateID != existing.TrainingDateID
	if moving {
		newID := *in.TrainingDateID
		newDate, err := w.Dates.GetByID(ctx, newID)
		if err != nil {
			return err
		}
		if newDate.AvailableSlots <= 0 {
			return repository.ErrNoCapacity
		}
		dup, err := w.Bookings.ExistsForDate(ctx, newID, email, existing.ID)
		if err != nil {
			return err
		}
		if dup {
			return repository.ErrDuplicateBooking
		}
		if err := w.Dates.ReserveSlot(ctx, newID); err != nil {
			return err
		}
		if err := w.Dates.ReleaseSlot(ctx, existing.TrainingDateID); err != nil {
			if relErr := w.Dates.ReleaseSlot(ctx, newID); relErr != nil {
				log.Printf("booking: reversal on date %s failed: %v", newID, relErr)
			}
			return fmt.Errorf("release old date: %w", err)
		}
		fields["training_date_id"] = newID
	}

	if len(fields) == 0 {
		return repository.ErrNotFound
	}
	if err := w.Bookings.Update(ctx, existing.ID, fields); err != nil {
		if moving {
			// Undo the counter swap so the ledger matches the
			// document that never changed.
			if relErr := w.Dates.ReleaseSlot(ctx, *in.TrainingDateID); relErr != nil {
				log.Printf("booking: reversal on date %s failed: %v", *in.TrainingDateID, relErr)
			}
			if resErr := w.Dates.ReserveSlot(ctx, existing.TrainingDateID); resErr != nil {
				log.Printf("booking: reversal on date %s failed: %v", existing.TrainingDateID, resErr)
			}
		}
		return err
	}
	return nil
}

// Delete removes a booking and returns one slot to its training date.
// The deleted booking is returned so callers can publish events.  A
// failed slot release after a committed delete is surfaced to the
// caller and logged; the delete itself is not undone.
func (w *BookingWorkflow) Delete(ctx context.Context, actor Actor, id string) (model.Booking, error) {
	existing, err := w.Bookings.GetByID(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}
	if !actor.Admin && existing.CustomerEmail != actor.Email {
		return model.Booking{}, repository.ErrForbidden
	}
	if err := w.Bookings.Delete(ctx, id); err != nil {
		return model.Booking{}, err
	}
	if err := w.Dates.ReleaseSlot(ctx, existing.TrainingDateID); err != nil {
		log.Printf("booking: slot release on date %s after delete of %s failed: %v", existing.TrainingDateID, id, err)
		return model.Booking{}, fmt.Errorf("release slot: %w", err)
	}
	return existing, nil
}

// CanView reports whether the actor may see the given booking.
func CanView(actor Actor, b model.Booking) bool {
	return actor.Admin || b.CustomerEmail == actor.Email
}
