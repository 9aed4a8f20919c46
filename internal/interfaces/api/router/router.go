package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"medremind/internal/application/service"
	"medremind/internal/interfaces/api/handler"
)

// Config holds the dependencies for the router.
type Config struct {
	ReminderHandler *handler.ReminderHandler
	ResponseHandler *handler.ResponseHandler
	// LineHandler is nil unless the LINE channel is active; the callback
	// route is only mounted when it is set.
	LineHandler *handler.LineHandler
	Scheduler   service.SchedulerService
	Logger      *zap.Logger
}

// New creates and configures the Echo router.
func New(cfg *Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			cfg.Logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("requestId", v.RequestID),
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, "X-Line-Signature"},
		MaxAge:       300,
	}))

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":         "ok",
			"activeTriggers": cfg.Scheduler.ActiveTriggerCount(),
		})
	})

	api := e.Group("/api")
	api.POST("/reminders", cfg.ReminderHandler.Create)
	api.GET("/reminders", cfg.ReminderHandler.List)
	api.GET("/reminders/:id", cfg.ReminderHandler.Get)
	api.PUT("/reminders/:id", cfg.ReminderHandler.Update)
	api.DELETE("/reminders/:id", cfg.ReminderHandler.Delete)
	api.POST("/reminders/:id/test", cfg.ReminderHandler.SendTest)
	api.POST("/responses", cfg.ResponseHandler.Receive)

	if cfg.LineHandler != nil {
		// LINE platform requires POST for webhooks.
		e.POST("/callback", cfg.LineHandler.HandleCallback)
	}

	cfg.Logger.Info("router initialized")
	return e
}
