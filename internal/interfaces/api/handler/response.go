package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"medremind/internal/application/dto"
	"medremind/internal/application/service"
)

// ResponseHandler ingests notification responses relayed over HTTP, for
// channels whose platform cannot call the process back directly.
type ResponseHandler struct {
	responses service.ResponseRouter
	log       *zap.Logger
}

// NewResponseHandler creates a new ResponseHandler.
func NewResponseHandler(responses service.ResponseRouter, log *zap.Logger) *ResponseHandler {
	return &ResponseHandler{responses: responses, log: log}
}

// Receive handles POST /api/responses. Routing never fails, so the request
// is accepted as soon as it parses.
func (h *ResponseHandler) Receive(c echo.Context) error {
	var evt dto.ResponseEvent
	if err := c.Bind(&evt); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	h.responses.Route(c.Request().Context(), &evt)
	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted"})
}
