package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rajeet-04/railway/internal/importer"
)

// AdminHandler exposes operator-only endpoints.
type AdminHandler struct {
	Importer *importer.Importer
}

func NewAdminHandler(im *importer.Importer) *AdminHandler {
	return &AdminHandler{Importer: im}
}

type importReq struct {
	StationsPath  string `json:"stations_path"`
	TrainsPath    string `json:"trains_path"`
	SchedulesPath string `json:"schedules_path"`
	DaysAhead     int    `json:"days_ahead"`
	SkipRuns      bool   `json:"skip_runs"`
}

// Import handles POST /v1/admin/import.  It runs the catalog import
// pipeline synchronously and returns the per-step counts.  Paths left
// empty fall back to the conventional data/ locations.
func (h *AdminHandler) Import(c echo.Context) error {
	var req importReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.StationsPath == "" {
		req.StationsPath = "data/stations.json"
	}
	if req.TrainsPath == "" {
		req.TrainsPath = "data/trains.json"
	}
	if req.SchedulesPath == "" {
		req.SchedulesPath = "data/schedules.json"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Minute)
	defer cancel()

	sum, err := h.Importer.Run(ctx, req.StationsPath, req.TrainsPath, req.SchedulesPath, req.DaysAhead, req.SkipRuns)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error(), "imported": sum})
	}
	return c.JSON(http.StatusOK, echo.Map{"imported": sum})
}
