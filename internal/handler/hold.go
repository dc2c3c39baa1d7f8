package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rajeet-04/railway/internal/service"
)

// HoldHandler exposes seat hold creation and release.
type HoldHandler struct {
	Svc *service.ReservationService
}

func NewHoldHandler(svc *service.ReservationService) *HoldHandler {
	return &HoldHandler{Svc: svc}
}

type createHoldReq struct {
	TrainRunID uint64   `json:"train_run_id"`
	SeatIDs    []uint64 `json:"seat_ids"`
	TTLSeconds int      `json:"ttl_seconds"` // 0 selects the server default
}

// Create handles POST /v1/holds.  On success the response carries the
// hold id, token and expiry the client needs to finalize or release.
func (h *HoldHandler) Create(c echo.Context) error {
	uid, ok := c.Get("user_id").(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createHoldReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.TrainRunID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "train_run_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	hold, err := h.Svc.CreateHold(ctx, uid, req.TrainRunID, req.SeatIDs, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoSeats), errors.Is(err, service.ErrDuplicateSeats):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrRunNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrRunNotBookable), errors.Is(err, service.ErrSeatUnavailable):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrStorageConflict):
			c.Response().Header().Set("Retry-After", "1")
			return c.JSON(http.StatusConflict, echo.Map{"error": service.ErrStorageConflict.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create hold failed"})
	}
	return c.JSON(http.StatusCreated, hold)
}

// Release handles DELETE /v1/holds/:id.  Releasing a hold that has
// already been finalized, released or reaped is a no-op success.
func (h *HoldHandler) Release(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hold id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Svc.ReleaseHold(ctx, id); err != nil {
		if errors.Is(err, service.ErrHoldNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		}
		if errors.Is(err, service.ErrStorageConflict) {
			c.Response().Header().Set("Retry-After", "1")
			return c.JSON(http.StatusConflict, echo.Map{"error": service.ErrStorageConflict.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release hold failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
