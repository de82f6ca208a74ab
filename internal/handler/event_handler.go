package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	apperrors "eventhub/internal/errors"
	"eventhub/internal/model"
	"eventhub/internal/service"
)

// EventHandler handles event management endpoints.
type EventHandler struct {
	events   service.EventService
	feedback service.FeedbackService
}

// NewEventHandler creates a new event handler.
func NewEventHandler(events service.EventService, feedback service.FeedbackService) *EventHandler {
	return &EventHandler{events: events, feedback: feedback}
}

// EventRequest represents an event create/update payload.
type EventRequest struct {
	Title           string     `json:"title" validate:"required"`
	Description     string     `json:"description"`
	Location        string     `json:"location"`
	StartTime       time.Time  `json:"start_time" validate:"required"`
	EndTime         *time.Time `json:"end_time"`
	MaxParticipants *int       `json:"max_participants" validate:"omitempty,min=0"`
	Status          string     `json:"status"`
	Cost            string     `json:"cost"`
}

// FeedbackRequest represents a feedback submission.
type FeedbackRequest struct {
	Rating  *int   `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment string `json:"comment"`
}

func (r *EventRequest) toModel() (*model.Event, error) {
	cost := decimal.Zero
	if r.Cost != "" {
		parsed, err := decimal.NewFromString(r.Cost)
		if err != nil {
			return nil, err
		}
		cost = parsed
	}
	return &model.Event{
		Title:           r.Title,
		Description:     r.Description,
		Location:        r.Location,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		MaxParticipants: r.MaxParticipants,
		Status:          r.Status,
		Cost:            cost,
	}, nil
}

func parseIDParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

// ListEvents godoc
// @Summary List events
// @Tags events
// @Produce json
// @Success 200 {array} model.Event
// @Security BearerAuth
// @Router /events [get]
func (h *EventHandler) ListEvents(c echo.Context) error {
	events, err := h.events.ListEvents(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list events")
	}
	return c.JSON(http.StatusOK, events)
}

// GetEvent godoc
// @Summary Get event by id
// @Tags events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} model.Event
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /events/{id} [get]
func (h *EventHandler) GetEvent(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	event, err := h.events.GetEvent(c.Request().Context(), id)
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, event)
}

// CreateEvent godoc
// @Summary Create event
// @Tags events
// @Accept json
// @Produce json
// @Param request body EventRequest true "Event payload"
// @Success 201 {object} model.Event
// @Failure 400 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /events [post]
func (h *EventHandler) CreateEvent(c echo.Context) error {
	claims, err := requireAdmin(c)
	if err != nil {
		return err
	}

	var req EventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	event, err := req.toModel()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid cost")
	}
	event.CreatedBy = claims.UserID

	created, err := h.events.CreateEvent(c.Request().Context(), event)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create event")
	}
	return c.JSON(http.StatusCreated, created)
}

// UpdateEvent godoc
// @Summary Update event
// @Tags events
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param request body EventRequest true "Event payload"
// @Success 200 {object} model.Event
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /events/{id} [put]
func (h *EventHandler) UpdateEvent(c echo.Context) error {
	if _, err := requireAdmin(c); err != nil {
		return err
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req EventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	event, err := req.toModel()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid cost")
	}
	event.ID = id

	updated, err := h.events.UpdateEvent(c.Request().Context(), event)
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteEvent godoc
// @Summary Delete event
// @Description Deletion is refused while the event has participants unless force=true.
// @Tags events
// @Produce json
// @Param id path int true "Event ID"
// @Param force query bool false "Force delete, removing participants first"
// @Success 200 {object} map[string]string
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /events/{id} [delete]
func (h *EventHandler) DeleteEvent(c echo.Context) error {
	if _, err := requireAdmin(c); err != nil {
		return err
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	force := c.QueryParam("force") == "true"

	if err := h.events.DeleteEvent(c.Request().Context(), id, force); err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "event deleted"})
}

// SubmitFeedback godoc
// @Summary Submit feedback for an event
// @Tags events
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param request body FeedbackRequest true "Feedback"
// @Success 201 {object} model.Feedback
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /events/{id}/feedback [post]
func (h *EventHandler) SubmitFeedback(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	fb, err := h.feedback.Submit(c.Request().Context(), id, claims.UserID, req.Rating, req.Comment)
	if err != nil {
		if errors.Is(err, apperrors.ErrEventNotFound) {
			httpErr := apperrors.MapErrorToHTTP(err)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to submit feedback")
	}
	return c.JSON(http.StatusCreated, fb)
}

// ListFeedback godoc
// @Summary List feedback for an event
// @Tags events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {array} model.Feedback
// @Security BearerAuth
// @Router /events/{id}/feedback [get]
func (h *EventHandler) ListFeedback(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	feedback, err := h.feedback.ListForEvent(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list feedback")
	}
	return c.JSON(http.StatusOK, feedback)
}
