package handler

import (
	"context"
	"database/sql"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rajeet-04/railway/internal/model"
	"github.com/rajeet-04/railway/internal/repository"
)

// TrainHandler serves train search and train detail endpoints.
type TrainHandler struct {
	Trains *repository.TrainRepo
	Runs   *repository.TrainRunRepo
}

func NewTrainHandler(t *repository.TrainRepo, r *repository.TrainRunRepo) *TrainHandler {
	return &TrainHandler{Trains: t, Runs: r}
}

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// trainResult is one row of a search response: the timetable entry
// plus, when a date was given, the bookable run for that date.
type trainResult struct {
	model.Train
	RunID          *uint64 `json:"run_id,omitempty"`
	RunStatus      *string `json:"run_status,omitempty"`
	AvailableSeats *uint32 `json:"available_seats,omitempty"`
}

// Search handles GET /v1/trains/search?from=NDLS&to=BCT&date=2026-09-01
func (h *TrainHandler) Search(c echo.Context) error {
	from := strings.ToUpper(strings.TrimSpace(c.QueryParam("from")))
	to := strings.ToUpper(strings.TrimSpace(c.QueryParam("to")))
	date := strings.TrimSpace(c.QueryParam("date"))
	if from == "" || to == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from/to required"})
	}
	if from == to {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from and to must differ"})
	}
	if date != "" && !dateRe.MatchString(date) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	trains, err := h.Trains.Search(ctx, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	results := make([]trainResult, 0, len(trains))
	for _, t := range trains {
		res := trainResult{Train: t}
		if date != "" {
			run, err := h.Runs.GetByTrainAndDate(ctx, t.ID, date)
			switch {
			case err == nil:
				res.RunID = &run.ID
				res.RunStatus = &run.Status
				res.AvailableSeats = &run.AvailableSeats
			case err == sql.ErrNoRows:
				// No run generated for this date; the train still
				// shows up so the client can pick another date.
			default:
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
			}
		}
		results = append(results, res)
	}
	return c.JSON(http.StatusOK, echo.Map{"trains": results})
}

// Get handles GET /v1/trains/:number and includes the train's route.
func (h *TrainHandler) Get(c echo.Context) error {
	number := strings.TrimSpace(c.Param("number"))
	if number == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "train number required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	train, err := h.Trains.GetByNumber(ctx, number)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "train not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	stops, err := h.Trains.StopsByTrainID(ctx, train.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"train": train, "stops": stops})
}
