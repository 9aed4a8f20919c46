package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"medremind/internal/application/dto"
	"medremind/internal/application/service"
	appErrors "medremind/internal/pkg/errors"
)

// ReminderHandler serves the reminder CRUD endpoints.
type ReminderHandler struct {
	reminderService service.ReminderService
	log             *zap.Logger
}

// NewReminderHandler creates a new ReminderHandler.
func NewReminderHandler(reminderService service.ReminderService, log *zap.Logger) *ReminderHandler {
	return &ReminderHandler{reminderService: reminderService, log: log}
}

// Create handles POST /api/reminders. Scheduling problems do not fail the
// request; the response's schedule block reports what actually happened.
func (h *ReminderHandler) Create(c echo.Context) error {
	var req dto.CreateReminderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	resp, err := h.reminderService.CreateReminder(c.Request().Context(), &req)
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// List handles GET /api/reminders.
func (h *ReminderHandler) List(c echo.Context) error {
	resp, err := h.reminderService.ListReminders(c.Request().Context())
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Get handles GET /api/reminders/:id.
func (h *ReminderHandler) Get(c echo.Context) error {
	resp, err := h.reminderService.GetReminder(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Update handles PUT /api/reminders/:id.
func (h *ReminderHandler) Update(c echo.Context) error {
	var req dto.UpdateReminderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	resp, err := h.reminderService.UpdateReminder(c.Request().Context(), c.Param("id"), &req)
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Delete handles DELETE /api/reminders/:id. Deletion is idempotent, so an
// unknown id still answers 204.
func (h *ReminderHandler) Delete(c echo.Context) error {
	if err := h.reminderService.DeleteReminder(c.Request().Context(), c.Param("id")); err != nil {
		return h.renderError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SendTest handles POST /api/reminders/:id/test. Unlike the scheduled path
// this delivery is synchronous, so channel failures surface here.
func (h *ReminderHandler) SendTest(c echo.Context) error {
	if err := h.reminderService.SendTestNotification(c.Request().Context(), c.Param("id")); err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "sent"})
}

func (h *ReminderHandler) renderError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, appErrors.ErrInvalidSchedule):
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, appErrors.ErrReminderNotFound), errors.Is(err, appErrors.ErrMedicationNotFound):
		return c.JSON(http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, appErrors.ErrScheduling), errors.Is(err, appErrors.ErrDelivery):
		return c.JSON(http.StatusBadGateway, errorBody(err.Error()))
	default:
		h.log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorBody("internal error"))
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
