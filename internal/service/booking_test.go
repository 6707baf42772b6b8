package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanh/training-provider-api/internal/model"
	"github.com/stefanh/training-provider-api/internal/repository"
)

// fakeDates is an in-memory CapacityStore with the same conditional
// reserve semantics as the Mongo implementation.
type fakeDates struct {
	slots      map[string]int
	reserveErr map[string]error
	releaseErr map[string]error
}

func newFakeDates() *fakeDates {
	return &fakeDates{
		slots:      map[string]int{},
		reserveErr: map[string]error{},
		releaseErr: map[string]error{},
	}
}

func (f *fakeDates) GetByID(_ context.Context, id string) (model.TrainingDate, error) {
	n, ok := f.slots[id]
	if !ok {
		return model.TrainingDate{}, repository.ErrNotFound
	}
	return model.TrainingDate{ID: id, AvailableSlots: n}, nil
}

func (f *fakeDates) ReserveSlot(_ context.Context, id string) error {
	if err := f.reserveErr[id]; err != nil {
		return err
	}
	n, ok := f.slots[id]
	if !ok {
		return repository.ErrNotFound
	}
	if n <= 0 {
		return repository.ErrNoCapacity
	}
	f.slots[id] = n - 1
	return nil
}

func (f *fakeDates) ReleaseSlot(_ context.Context, id string) error {
	if err := f.releaseErr[id]; err != nil {
		return err
	}
	if _, ok := f.slots[id]; !ok {
		return repository.ErrNotFound
	}
	f.slots[id]++
	return nil
}

// fakeBookings is an in-memory BookingStore.
type fakeBookings struct {
	byID      map[string]model.Booking
	nextID    int
	insertErr error
	updateErr error
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{byID: map[string]model.Booking{}}
}

func (f *fakeBookings) GetByID(_ context.Context, id string) (model.Booking, error) {
	b, ok := f.byID[id]
	if !ok {
		return model.Booking{}, repository.ErrNotFound
	}
	return b, nil
}

func (f *fakeBookings) ExistsForDate(_ context.Context, dateID, email, excludeID string) (bool, error) {
	for id, b := range f.byID {
		if id == excludeID {
			continue
		}
		if b.TrainingDateID == dateID && b.CustomerEmail == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBookings) Insert(_ context.Context, b model.Booking) (string, error) {
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.nextID++
	id := fmt.Sprintf("bk-%d", f.nextID)
	b.ID = id
	f.byID[id] = b
	return id, nil
}

func (f *fakeBookings) Update(_ context.Context, id string, fields map[string]any) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	b, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "training_date_id":
			b.TrainingDateID = v.(string)
		case "customer_name":
			b.CustomerName = v.(string)
		case "customer_email":
			b.CustomerEmail = v.(string)
		case "customer_phone":
			b.CustomerPhone = v.(string)
		case "notes":
			b.Notes = v.(string)
		case "status":
			b.Status = v.(string)
		}
	}
	f.byID[id] = b
	return nil
}

func (f *fakeBookings) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func strptr(s string) *string { return &s }

var (
	alice = Actor{ID: "u1", Email: "alice@example.com"}
	admin = Actor{ID: "u9", Email: "root@example.com", Admin: true}
)

func TestCreateBooksSlot(t *testing.T) {
	dates := newFakeDates()
	dates.slots["d1"] = 2
	bookings := newFakeBookings()
	wf := NewBookingWorkflow(bookings, dates)

	id, err := wf.Create(context.Background(), alice, CreateBookingInput{
		TrainingDateID: "d1",
		CustomerName:   "Alice",
		CustomerEmail:  alice.Email,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, dates.slots["d1"])

	b := bookings.byID[id]
	assert.Equal(t, model.BookingConfirmed, b.Status)
	assert.Equal(t, alice.ID, b.CreatedBy)
}

func TestCreateRejectsUnknownDate(t *testing.T) {
	wf := NewBookingWorkflow(newFakeBookings(), newFakeDates())

	_, err := wf.Create(context.Background(), alice, CreateBookingInput{TrainingDateID: "nope", CustomerEmail: alice.Email})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateRejectsFullDate(t *testing.T) {
	dates := newFakeDates()
	dates.slots["d1"] = 0
	bookings := newFakeBookings()
	wf := NewBookingWorkflow(bookings, dates)

	_, err := wf.Create(context.Background(), alice, CreateBookingInput{TrainingDateID: "d1", CustomerEmail: alice.Email})
	assert.ErrorIs(t, err, repository.ErrNoCapacity)
	assert.Empty(t, bookings.byID)
}

func TestCreateLosingReserveRaceStaysConsistent(t *testing.T) {
	// The precheck sees a free slot but the conditional reserve loses
	// the race.  The workflow must surface no-capacity and write nothing.
	dates := newFakeDates()
	dates.slots["d1"] = 1
	dates.reserveErr["d1"] = repository.ErrNoCapacity
	bookings := newFakeBookings()
	wf := NewBookingWorkflow(bookings, dates)

	_, err := wf.Create(context.Background(), alice, CreateBookingInput{TrainingDateID: "d1", CustomerEmail: alice.Email})
	assert.ErrorIs(t, err, repository.ErrNoCapacity)
	assert.Empty(t, bookings.byID)
	assert.Equal(t, 1, dates.slots["d1"])
}

func TestCreateRejectsDuplicateForSameDate(t *testing.T) {
	dates := newFakeDates()
	dates.slots["d1"] = 5
	bookings := newFakeBookings()
	wf := NewBookingWorkflow(bookings, dates)

	_, err := wf.Create(context.Background(), alice, CreateBookingInput{TrainingDateID: "d1", CustomerEmail: alice.Email})
	require.NoError(t, err)

	_, err = wf.Create(context.Background(), alice, CreateBookingInput{TrainingDateID: "d1", CustomerEmail: alice.Email})
	assert.ErrorIs(t, err, repository.ErrDuplicateBooking)
	assert.Equal(t, 4, dates.slots["d1"], "failed duplicate must not consume a slot")
}

func TestCreateReleasesSlotWhenInsertFails(t *testing.T) {
	dates := newFakeDates()
	dates.slots["d1"] = 3
	bookings := newFakeBookings()
	bookings.insertErr = errors.New("write concern error")
	wf := NewBookingWorkflow(bookings, dates)

	_, err := wf.Create(context.Background(), alice, CreateBookingInput{TrainingDateID: "d1", CustomerEmail: alice.Email})
	require.Error(t, err)
	assert.Equal(t, 3, dates.slots["d1"], "compensation must return the reserved slot")
}

func TestUpdateForbiddenForOtherCustomer(t *testing.T) {
	dates := newFakeDates()
	dates.slots["d1"] = 5
	bookings := newFakeBookings()
	bookings.byID["bk-1"] = model.Booking{ID: "bk-1", TrainingDateID: "d1", CustomerEmail: "bob@example.com"}
	wf := NewBookingWorkflow(bookings, dates)

	err := wf.Update(context.Background(), alice, UpdateBookingInput{ID: "bk-1", Notes: strptr("x")})
	assert.ErrorIs(t, err, repository.ErrForbidden)
}

func TestUpdateAdminBypassesOwnership(t *testing.T) {
	dates := newFakeDates()
	dates.slots["d1"] = 5
	bookings := newFakeBookings()
	bookings.byID["bk-1"] = model.Booking{ID: "bk-1", TrainingDateID: "d1", CustomerEmail: "bob@example.com"}
	wf := NewBookingWorkflow(bookings, dates)

	err := wf.Update(context.Background(), admin, UpdateBookingInput{ID: "bk-1", Status: strptr(model.BookingCancelled)})
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, bookings.byID["bk-1"].Status)
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	dates := newFakeDates()
	dates.slots["d1"] = 5
	bookings := newFakeBookings()
	bookings.byID["bk-1"] = model.Booking{ID: "bk-1", TrainingDateID: "d1", CustomerEmail: alice.Email}
	wf := NewBookingWorkflow(bookings, dates)

	err := wf.Update(context.Background(), alice, UpdateBookingInput{ID: "bk-1", Status: strptr("maybe")})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestUpdateWithNoFields(t *testing.T) {
	dates := newFakeDates()
	dates.slots["d1"] = 5
	bookings := newFakeBookings()
	bookings.byID["bk-1"] = model.Booking{ID: "bk-1", TrainingDateID: "d1", CustomerEmail: alice.Email}
	wf := NewBookingWorkflow(bookings, dates)

	err := wf.Update(context.Background(), alice, UpdateBookingInput{ID: "bk-1"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateMovesBookingBetweenDates(t *testing.T) {
	dates := newFakeDates()
	dates.slots["d1"] = 0 // fully booked by bk-1
	dates.slots["d2"] = 2
	bookings := newFakeBookings()
	bookings.byID["bk-1"] = model.Booking{ID: "bk-1", TrainingDateID: "d1", CustomerEmail: alice.Email}
	wf := NewBookingWorkflow(bookings, dates)

	err := wf.Update(context.Background(), alice, UpdateBookingInput{ID: "bk-1", TrainingDateID: strptr("d2")})
	require.NoError(t, err)
	assert.Equal(t, "d2", bookings.byID["bk-1"].TrainingDateID)
	assert.Equal(t, 1, dates.slots["d1"], "old date gets its slot back")
	assert.Equal(t, 1, dates.slots["d2"], "new date loses one slot")
}

func TestUpdateMoveRejectsFullTarget(t *testing.T) {
	dates := newFakeDates()
	dates.slots["d1"] = 0
	dates.slots["d2"] = 0
	bookings := newFakeBookings()
	bookings.byID["bk-1"] = model.Booking{ID: "bk-1", TrainingDateID: "d1", CustomerEmail: alice.Email}
	wf := NewBookingWorkflow(bookings, dates)

	err := wf.Update(context.Background(), alice, UpdateBookingInput{ID: "bk-1", TrainingDateID: strptr("d2")})
	assert.ErrorIs(t, err, repository.ErrNoCapacity)
	assert.Equal(t, "d1", bookings.byID["bk-1"].TrainingDateID)
}

func TestUpdateMoveRejectsDuplicateOnTarget(t *testing.T) {
	dates := newFakeDates()
	dates.slots["d1"] = 0
	dates.slots["d2"] = 3
	bookings := newFakeBookings()
	bookings.byID["bk-1"] = model.Booking{ID: "bk-1", TrainingDateID: "d1", CustomerEmail: alice.Email}
	bookings.byID["bk-2"] = model.Booking{ID: "bk-2", TrainingDateID: "d2", CustomerEmail: alice.Email}
	wf := NewBookingWorkflow(bookings, dates)

	err := wf.Update(context.Background(), alice, UpdateBookingInput{ID: "bk-1", TrainingDateID: strptr("d2")})
	assert.ErrorIs(t, err, repository.ErrDuplicateBooking)
	assert.Equal(t, 3, dates.slots["d2"])
}

func TestUpdateMoveRollsBackWhenReleaseFails(t *testing.T) {
	dates := newFakeDates()
	dates.slots["d1"] = 0
	dates.slots["d2"] = 2
	dates.releaseErr["d1"] = errors.New("network timeout")
	bookings := newFakeBookings()
	bookings.byID["bk-1"] = model.Booking{ID: "bk-1", TrainingDateID: "d1", CustomerEmail: alice.Email}
	wf := NewBookingWorkflow(bookings, dates)

	err := wf.Update(context.Background(), alice, UpdateBookingInput{ID: "bk-1", TrainingDateID: strptr("d2")})
	require.Error(t, err)
	assert.Equal(t, 2, dates.slots["d2"], "reserved target slot must be reversed")
	assert.Equal(t, "d1", bookings.byID["bk-1"].TrainingDateID)
}

func TestUpdateMoveRollsBackWhenDocumentWriteFails(t *testing.T) {
	dates := newFakeDates()
	dates.slots["d1"] = 0
	dates.slots["d2"] = 2
	bookings := newFakeBookings()
	bookings.byID["bk-1"] = model.Booking{ID: "bk-1", TrainingDateID: "d1", CustomerEmail: alice.Email}
	wf := NewBookingWorkflow(bookings, dates)

	bookings.updateErr = errors.New("write concern error")
	err := wf.Update(context.Background(), alice, UpdateBookingInput{ID: "bk-1", TrainingDateID: strptr("d2")})
	require.Error(t, err)
	// Both counters must match the unchanged document.
	assert.Equal(t, 0, dates.slots["d1"])
	assert.Equal(t, 2, dates.slots["d2"])
}

func TestDeleteReleasesSlot(t *testing.T) {
	dates := newFakeDates()
	dates.slots["d1"] = 0
	bookings := newFakeBookings()
	bookings.byID["bk-1"] = model.Booking{ID: "bk-1", TrainingDateID: "d1", CustomerEmail: alice.Email}
	wf := NewBookingWorkflow(bookings, dates)

	deleted, err := wf.Delete(context.Background(), alice, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, "bk-1", deleted.ID)
	assert.Empty(t, bookings.byID)
	assert.Equal(t, 1, dates.slots["d1"])
}

func TestDeleteForbiddenForOtherCustomer(t *testing.T) {
	dates := newFakeDates()
	dates.slots["d1"] = 0
	bookings := newFakeBookings()
	bookings.byID["bk-1"] = model.Booking{ID: "bk-1", TrainingDateID: "d1", CustomerEmail: "bob@example.com"}
	wf := NewBookingWorkflow(bookings, dates)

	_, err := wf.Delete(context.Background(), alice, "bk-1")
	assert.ErrorIs(t, err, repository.ErrForbidden)
	assert.Len(t, bookings.byID, 1)
}

func TestCanView(t *testing.T) {
	b := model.Booking{CustomerEmail: alice.Email}
	assert.True(t, CanView(alice, b))
	assert.True(t, CanView(admin, b))
	assert.False(t, CanView(Actor{Email: "bob@example.com"}, b))
}
