package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stefanh/training-provider-api/internal/config"
	"github.com/stefanh/training-provider-api/internal/middleware"
	"github.com/stefanh/training-provider-api/internal/model"
	"github.com/stefanh/training-provider-api/internal/repository"
)

// TrainingHandler serves the training catalog endpoints.
type TrainingHandler struct {
	Cfg       config.Config
	Trainings *repository.TrainingRepo
	Dates     *repository.TrainingDateRepo
	Search    *repository.TrainingSearch
}

func NewTrainingHandler(cfg config.Config, t *repository.TrainingRepo, d *repository.TrainingDateRepo, s *repository.TrainingSearch) *TrainingHandler {
	if t == nil || d == nil || s == nil {
		panic("nil repository passed to NewTrainingHandler")
	}
	return &TrainingHandler{Cfg: cfg, Trainings: t, Dates: d, Search: s}
}

type trainingReq struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Price           float64 `json:"price"`
	Instructor      string  `json:"instructor"`
	DurationHours   float64 `json:"duration_hours"`
	MaxParticipants int     `json:"max_participants"`
}

type trainingUpdateReq struct {
	ID string `json:"id"`
	trainingReq
}

// List handles GET /v1/trainings, optionally filtered by ?id.
func (h *TrainingHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	items, err := h.Trainings.Find(ctx, c.QueryParam("id"), limitParam(c, h.Cfg))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusOK, echo.Map{"status": true, "data": []model.Training{}})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "data": items})
}

// ByTimePeriod handles GET /v1/trainings/time-period.  It returns
// trainings with at least one scheduled date inside the window, each
// training listed once.
func (h *TrainingHandler) ByTimePeriod(c echo.Context) error {
	start, err := time.Parse(time.RFC3339, c.QueryParam("start_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date"})
	}
	end, err := time.Parse(time.RFC3339, c.QueryParam("end_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	items, err := h.Search.ByTimePeriod(ctx, start, end, limitParam(c, h.Cfg))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "data": items})
}

// Create handles POST /v1/trainings.
func (h *TrainingHandler) Create(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req trainingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if req.DurationHours <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "duration_hours must be positive"})
	}
	if req.MaxParticipants < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_participants must be at least 1"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	id, err := h.Trainings.Insert(ctx, model.Training{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		Instructor:      req.Instructor,
		DurationHours:   req.DurationHours,
		MaxParticipants: req.MaxParticipants,
		CreatedBy:       p.ID,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrNameExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "training with this name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create training failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "training created successfully", "id": id})
}

// Update handles PUT /v1/trainings.  Only the creator may update a
// training; the admin exemption applies to bookings, not here.
func (h *TrainingHandler) Update(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req trainingUpdateReq
	if err := c.Bind(&req); err != nil || req.ID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id is required"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	existing, err := h.Trainings.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "training not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if existing.CreatedBy != p.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not allowed to update this training"})
	}

	fields := map[string]any{}
	if name := strings.TrimSpace(req.Name); name != "" {
		fields["name"] = name
	}
	if req.Description != "" {
		fields["description"] = req.Description
	}
	if req.Price != 0 {
		fields["price"] = req.Price
	}
	if req.Instructor != "" {
		fields["instructor"] = req.Instructor
	}
	if req.DurationHours > 0 {
		fields["duration_hours"] = req.DurationHours
	}
	if req.MaxParticipants >= 1 {
		fields["max_participants"] = req.MaxParticipants
	}
	if len(fields) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields to update"})
	}

	if err := h.Trainings.Update(ctx, req.ID, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "training not found or no change detected"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update training failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "training updated successfully", "id": req.ID})
}

// Delete handles DELETE /v1/trainings/:id.  A training with scheduled
// dates cannot be removed.
func (h *TrainingHandler) Delete(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")

	ctx, cancel := requestContext(c)
	defer cancel()

	existing, err := h.Trainings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "training not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if existing.CreatedBy != p.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not allowed to delete this training"})
	}

	n, err := h.Dates.CountByTraining(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if n > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cannot delete training with associated dates"})
	}

	if err := h.Trainings.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "training not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete training failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": true, "message": "training deleted successfully"})
}
