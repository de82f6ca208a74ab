package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "eventhub/internal/errors"
	"eventhub/internal/service"
)

// RegistrationHandler handles event registration endpoints.
type RegistrationHandler struct {
	registrations service.RegistrationService
}

// NewRegistrationHandler creates a new registration handler.
func NewRegistrationHandler(registrations service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

// RegistrationStatus is the caller's registration state for an event.
type RegistrationStatus struct {
	EventID    uint `json:"event_id"`
	Registered bool `json:"registered"`
	Count      int  `json:"count"`
}

// Register godoc
// @Summary Register the current user for an event
// @Description Registration is idempotent; re-registering while active succeeds without a duplicate.
// @Tags registrations
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} RegistrationStatus
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /events/{id}/register [post]
func (h *RegistrationHandler) Register(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}
	eventID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	ok, err := h.registrations.Register(ctx, eventID, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrEventNotFound) || errors.Is(err, apperrors.ErrEventFull) {
			httpErr := apperrors.MapErrorToHTTP(err)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
			Error: "registration failed, please try again",
			Code:  "REGISTRATION_FAILED",
		})
	}
	if !ok {
		httpErr := apperrors.MapErrorToHTTP(apperrors.ErrEventNotFound)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	count, _ := h.registrations.GetRegisteredCount(ctx, eventID)
	return c.JSON(http.StatusOK, RegistrationStatus{EventID: eventID, Registered: true, Count: count})
}

// Unregister godoc
// @Summary Remove the current user's registration
// @Tags registrations
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} RegistrationStatus
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /events/{id}/register [delete]
func (h *RegistrationHandler) Unregister(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}
	eventID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	removed, err := h.registrations.Unregister(ctx, eventID, claims.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "unregistration failed")
	}
	if !removed {
		return echo.NewHTTPError(http.StatusNotFound, apperrors.ErrorResponse{
			Error: "no active registration",
			Code:  "NOT_REGISTERED",
		})
	}

	count, _ := h.registrations.GetRegisteredCount(ctx, eventID)
	return c.JSON(http.StatusOK, RegistrationStatus{EventID: eventID, Registered: false, Count: count})
}

// Status godoc
// @Summary Get the current user's registration state for an event
// @Tags registrations
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} RegistrationStatus
// @Security BearerAuth
// @Router /events/{id}/registration [get]
func (h *RegistrationHandler) Status(c echo.Context) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}
	eventID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	registered, err := h.registrations.IsRegistered(ctx, eventID, claims.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to check registration")
	}
	count, err := h.registrations.GetRegisteredCount(ctx, eventID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count registrations")
	}

	return c.JSON(http.StatusOK, RegistrationStatus{EventID: eventID, Registered: registered, Count: count})
}
