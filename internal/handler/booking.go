package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stefanh/training-provider-api/internal/config"
	"github.com/stefanh/training-provider-api/internal/middleware"
	"github.com/stefanh/training-provider-api/internal/model"
	"github.com/stefanh/training-provider-api/internal/queue"
	"github.com/stefanh/training-provider-api/internal/rbac"
	"github.com/stefanh/training-provider-api/internal/repository"
	"github.com/stefanh/training-provider-api/internal/service"
)

// BookingHandler serves the booking endpoints.  The slot accounting
// itself lives in service.BookingWorkflow; this layer binds requests,
// builds the acting identity and maps workflow errors to HTTP codes.
type BookingHandler struct {
	Cfg       config.Config
	Workflow  *service.BookingWorkflow
	Bookings  *repository.BookingRepo
	Dates     *repository.TrainingDateRepo
	Trainings *repository.TrainingRepo
	Resolver  *rbac.Resolver
	AMQPURL   string
}

func NewBookingHandler(cfg config.Config, wf *service.BookingWorkflow, b *repository.BookingRepo, d *repository.TrainingDateRepo, t *repository.TrainingRepo, res *rbac.Resolver, amqpURL string) *BookingHandler {
	if wf == nil || b == nil || d == nil || t == nil || res == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Cfg: cfg, Workflow: wf, Bookings: b, Dates: d, Trainings: t, Resolver: res, AMQPURL: amqpURL}
}

type bookingReq struct {
	TrainingDateID string `json:"training_date_id"`
	CustomerName   string `json:"customer_name"`
	CustomerEmail  string `json:"customer_email"`
	CustomerPhone  string `json:"customer_phone"`
	Notes          string `json:"notes"`
}

type bookingUpdateReq struct {
	ID             string  `json:"id"`
	TrainingDateID *string `json:"training_date_id"`
	CustomerName   *string `json:"customer_name"`
	CustomerEmail  *string `json:"customer_email"`
	CustomerPhone  *string `json:"customer_phone"`
	Notes          *string `json:"notes"`
	Status         *string `json:"status"`
}

func (h *BookingHandler) actor(c echo.Context) (service.Actor, bool) {
	p, ok := middleware.Principal(c)
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{ID: p.ID, Email: p.Email, Admin: h.Resolver.IsAdmin(p)}, true
}

// List handles GET /v1/bookings with optional ?id, ?training_date_id
// and ?customer_email.  Non-admin callers only ever see their own
// bookings: the email filter is forced to their identity.
func (h *BookingHandler) List(c echo.Context) error {
	actor, ok := h.actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	filter := repository.BookingFilter{
		ID:             c.QueryParam("id"),
		TrainingDateID: c.QueryParam("training_date_id"),
		CustomerEmail:  c.QueryParam("customer_email"),
	}
	if !actor.Admin {
		filter.CustomerEmail = actor.Email
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	items, err := h.Bookings.Find(ctx, filter, limitParam(c, h.Cfg))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusOK, echo.Map{"status": true, "data": []model.Booking{}})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "data": items})
}

// Create handles POST /v1/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
	actor, ok := h.actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.TrainingDateID == "" || req.CustomerName == "" || req.CustomerEmail == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "training_date_id, customer_name and customer_email are required"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	id, err := h.Workflow.Create(ctx, actor, service.CreateBookingInput{
		TrainingDateID: req.TrainingDateID,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		CustomerPhone:  req.CustomerPhone,
		Notes:          req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "training date not found"})
		case errors.Is(err, repository.ErrNoCapacity):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "no available slots for this training date"})
		case errors.Is(err, repository.ErrDuplicateBooking):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "you already have a booking for this training date"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create booking failed"})
	}

	h.publish(queue.ActionCreated, model.Booking{
		ID:             id,
		TrainingDateID: req.TrainingDateID,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
	})
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "booking created successfully", "id": id})
}

// Update handles PUT /v1/bookings.
func (h *BookingHandler) Update(c echo.Context) error {
	actor, ok := h.actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req bookingUpdateReq
	if err := c.Bind(&req); err != nil || req.ID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id is required"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	err := h.Workflow.Update(ctx, actor, service.UpdateBookingInput{
		ID:             req.ID,
		TrainingDateID: req.TrainingDateID,
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		CustomerPhone:  req.CustomerPhone,
		Notes:          req.Notes,
		Status:         req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not allowed to update this booking"})
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found or no change detected"})
		case errors.Is(err, repository.ErrNoCapacity):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "no available slots for this training date"})
		case errors.Is(err, repository.ErrDuplicateBooking):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "you already have a booking for this training date"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking status"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update booking failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "booking updated successfully", "id": req.ID})
}

// Delete handles DELETE /v1/bookings/:id.
func (h *BookingHandler) Delete(c echo.Context) error {
	actor, ok := h.actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")

	ctx, cancel := requestContext(c)
	defer cancel()

	deleted, err := h.Workflow.Delete(ctx, actor, id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not allowed to delete this booking"})
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete booking failed"})
	}

	h.publish(queue.ActionCancelled, deleted)
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "booking deleted successfully"})
}

// publish emits a booking lifecycle event in the background.  The
// training context is looked up best-effort; a failed lookup or
// publish never fails the request that triggered it.
func (h *BookingHandler) publish(action string, b model.Booking) {
	if h.AMQPURL == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		ev := queue.BookingEvent{
			Action:         action,
			BookingID:      b.ID,
			TrainingDateID: b.TrainingDateID,
			CustomerName:   b.CustomerName,
			CustomerEmail:  b.CustomerEmail,
			OccurredAt:     time.Now().UTC().Format(time.RFC3339),
		}
		if date, err := h.Dates.GetByID(ctx, b.TrainingDateID); err == nil {
			ev.Location = date.Location
			ev.StartDate = date.StartDate.Format(time.RFC3339)
			if training, err := h.Trainings.GetByID(ctx, date.TrainingID); err == nil {
				ev.TrainingName = training.Name
			}
		}
		if err := service.PublishBookingEvent(ctx, h.AMQPURL, ev); err != nil {
			log.Printf("booking: event publish for %s failed: %v", b.ID, err)
		}
	}()
}
