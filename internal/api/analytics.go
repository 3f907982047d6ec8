package api

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iyoadidey/mother-julie/internal/service"
)

type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// Report returns the full dashboard aggregation --> GET /api/analytics/
func (h *AnalyticsHandler) Report(c echo.Context) error {
	report, err := h.analyticsService.Report(c.Request().Context())
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, report)
}

// PeriodReport returns one reporting window --> GET /api/reports/:period/
func (h *AnalyticsHandler) PeriodReport(c echo.Context) error {
	period := c.Param("period")

	report, err := h.analyticsService.PeriodReport(c.Request().Context(), period, time.Now().UTC())
	if err != nil {
		if errors.Is(err, service.ErrUnknownPeriod) {
			return c.JSON(400, map[string]string{"error": err.Error()})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, report)
}
