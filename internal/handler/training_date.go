package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stefanh/training-provider-api/internal/config"
	"github.com/stefanh/training-provider-api/internal/middleware"
	"github.com/stefanh/training-provider-api/internal/model"
	"github.com/stefanh/training-provider-api/internal/repository"
)

// TrainingDateHandler serves the scheduled-session endpoints.  It
// enforces the structural invariants the booking workflow relies on:
// start before end, and 0 <= available_slots <= parent max_participants.
type TrainingDateHandler struct {
	Cfg       config.Config
	Dates     *repository.TrainingDateRepo
	Trainings *repository.TrainingRepo
	Bookings  *repository.BookingRepo
}

func NewTrainingDateHandler(cfg config.Config, d *repository.TrainingDateRepo, t *repository.TrainingRepo, b *repository.BookingRepo) *TrainingDateHandler {
	if d == nil || t == nil || b == nil {
		panic("nil repository passed to NewTrainingDateHandler")
	}
	return &TrainingDateHandler{Cfg: cfg, Dates: d, Trainings: t, Bookings: b}
}

type trainingDateReq struct {
	TrainingID     string    `json:"training_id"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	Location       string    `json:"location"`
	AvailableSlots *int      `json:"available_slots"`
}

type trainingDateUpdateReq struct {
	ID             string     `json:"id"`
	TrainingID     string     `json:"training_id"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	Location       string     `json:"location"`
	AvailableSlots *int       `json:"available_slots"`
}

// List handles GET /v1/training-dates with optional ?id and ?training_id.
func (h *TrainingDateHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	items, err := h.Dates.Find(ctx, c.QueryParam("id"), c.QueryParam("training_id"), limitParam(c, h.Cfg))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusOK, echo.Map{"status": true, "data": []model.TrainingDate{}})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "data": items})
}

// Create handles POST /v1/training-dates.
func (h *TrainingDateHandler) Create(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req trainingDateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.TrainingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "training_id is required"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	training, err := h.Trainings.GetByID(ctx, req.TrainingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "training not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if !req.StartDate.Before(req.EndDate) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start date must be before end date"})
	}
	slots := 10
	if req.AvailableSlots != nil {
		slots = *req.AvailableSlots
	}
	if slots < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "available slots cannot be negative"})
	}
	if slots > training.MaxParticipants {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": fmt.Sprintf("available slots cannot exceed maximum participants (%d)", training.MaxParticipants),
		})
	}

	id, err := h.Dates.Insert(ctx, model.TrainingDate{
		TrainingID:     req.TrainingID,
		StartDate:      req.StartDate.UTC(),
		EndDate:        req.EndDate.UTC(),
		Location:       req.Location,
		AvailableSlots: slots,
		CreatedBy:      p.ID,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create training date failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "training date created successfully", "id": id})
}

// Update handles PUT /v1/training-dates.  Slot changes re-validate the
// parent bound and refuse to drop capacity below the number of
// bookings already taken.
func (h *TrainingDateHandler) Update(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req trainingDateUpdateReq
	if err := c.Bind(&req); err != nil || req.ID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id is required"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	existing, err := h.Dates.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "training date not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if existing.CreatedBy != p.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not allowed to update this training date"})
	}

	fields := map[string]any{}

	if req.TrainingID != "" && req.TrainingID != existing.TrainingID {
		if _, err := h.Trainings.GetByID(ctx, req.TrainingID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "training not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		fields["training_id"] = req.TrainingID
	}

	start, end := existing.StartDate, existing.EndDate
	if req.StartDate != nil {
		start = req.StartDate.UTC()
		fields["start_date"] = start
	}
	if req.EndDate != nil {
		end = req.EndDate.UTC()
		fields["end_date"] = end
	}
	if !start.Before(end) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start date must be before end date"})
	}
	if req.Location != "" {
		fields["location"] = req.Location
	}

	if req.AvailableSlots != nil {
		slots := *req.AvailableSlots
		if slots < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "available slots cannot be negative"})
		}
		trainingID := existing.TrainingID
		if req.TrainingID != "" {
			trainingID = req.TrainingID
		}
		training, err := h.Trainings.GetByID(ctx, trainingID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "training not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		if slots > training.MaxParticipants {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": fmt.Sprintf("available slots cannot exceed maximum participants (%d)", training.MaxParticipants),
			})
		}
		booked, err := h.Bookings.CountByDate(ctx, req.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		if booked > int64(slots) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error": fmt.Sprintf("cannot reduce available slots below current bookings count (%d)", booked),
			})
		}
		fields["available_slots"] = slots
	}

	if len(fields) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields to update"})
	}
	if err := h.Dates.Update(ctx, req.ID, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "training date not found or no change detected"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update training date failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "training date updated successfully", "id": req.ID})
}

// Delete handles DELETE /v1/training-dates/:id.  A date with bookings
// cannot be removed.
func (h *TrainingDateHandler) Delete(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")

	ctx, cancel := requestContext(c)
	defer cancel()

	existing, err := h.Dates.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "training date not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if existing.CreatedBy != p.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not allowed to delete this training date"})
	}

	booked, err := h.Bookings.CountByDate(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if booked > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cannot delete training date with associated bookings"})
	}

	if err := h.Dates.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "training date not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete training date failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "training date deleted successfully"})
}
