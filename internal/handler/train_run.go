package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rajeet-04/railway/internal/model"
	"github.com/rajeet-04/railway/internal/repository"
)

// TrainRunHandler serves per-run seat availability.
type TrainRunHandler struct {
	Runs  *repository.TrainRunRepo
	Seats *repository.SeatRepo
}

func NewTrainRunHandler(r *repository.TrainRunRepo, s *repository.SeatRepo) *TrainRunHandler {
	return &TrainRunHandler{Runs: r, Seats: s}
}

// classSummary aggregates one seat class of a run.
type classSummary struct {
	SeatClass     string `json:"seat_class"`
	Total         uint32 `json:"total"`
	Available     uint32 `json:"available"`
	MinPriceCents uint32 `json:"min_price_cents"`
}

// Availability handles GET /v1/train-runs/:id/availability?class=SL
// It returns the run, a per-class summary and the full seat map.  The
// counts reflect committed state only; an in-flight hold becomes
// visible the moment its transaction commits.
func (h *TrainRunHandler) Availability(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid run id"})
	}
	seatClass := strings.ToUpper(strings.TrimSpace(c.QueryParam("class")))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	run, err := h.Runs.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "train run not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	seats, err := h.Seats.ListByRun(ctx, id, seatClass)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	byClass := make(map[string]*classSummary)
	order := make([]string, 0)
	for _, s := range seats {
		cs, ok := byClass[s.SeatClass]
		if !ok {
			cs = &classSummary{SeatClass: s.SeatClass, MinPriceCents: s.PriceCents}
			byClass[s.SeatClass] = cs
			order = append(order, s.SeatClass)
		}
		cs.Total++
		if s.Status == model.SeatAvailable {
			cs.Available++
		}
		if s.PriceCents < cs.MinPriceCents {
			cs.MinPriceCents = s.PriceCents
		}
	}
	classes := make([]classSummary, 0, len(order))
	for _, name := range order {
		classes = append(classes, *byClass[name])
	}

	return c.JSON(http.StatusOK, echo.Map{
		"run":     run,
		"classes": classes,
		"seats":   seats,
	})
}
