package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rajeet-04/railway/internal/model"
	"github.com/rajeet-04/railway/internal/repository"
	"github.com/rajeet-04/railway/internal/service"
)

// BookingHandler exposes finalize, listing, detail and cancellation.
type BookingHandler struct {
	Svc      *service.ReservationService
	Bookings *repository.BookingRepo
}

func NewBookingHandler(svc *service.ReservationService, b *repository.BookingRepo) *BookingHandler {
	return &BookingHandler{Svc: svc, Bookings: b}
}

type createBookingReq struct {
	HoldID     uint64            `json:"hold_id"`
	Passengers []model.Passenger `json:"passengers"`
}

// Create handles POST /v1/bookings, finalizing a hold into a booking.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, ok := c.Get("user_id").(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.HoldID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hold_id required"})
	}
	for _, p := range req.Passengers {
		if strings.TrimSpace(p.Name) == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "passenger name required"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	booking, err := h.Svc.FinalizeBooking(ctx, uid, req.HoldID, req.Passengers)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrHoldNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrHoldNotOwned):
			return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrHoldExpired):
			return c.JSON(http.StatusGone, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrHoldNotActive), errors.Is(err, service.ErrSeatNoLongerHeld):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrPassengerCount):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrStorageConflict):
			c.Response().Header().Set("Retry-After", "1")
			return c.JSON(http.StatusConflict, echo.Map{"error": service.ErrStorageConflict.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "finalize failed"})
	}
	return c.JSON(http.StatusCreated, booking)
}

// List handles GET /v1/bookings, returning the caller's bookings
// newest first.
func (h *BookingHandler) List(c echo.Context) error {
	uid, ok := c.Get("user_id").(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	bookings, err := h.Bookings.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// Get handles GET /v1/bookings/:ref.  Only the owner or an admin may
// view a booking.
func (h *BookingHandler) Get(c echo.Context) error {
	uid, ok := c.Get("user_id").(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	isAdmin, _ := c.Get("is_admin").(bool)
	ref := strings.TrimSpace(c.Param("ref"))
	if ref == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking ref required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	booking, err := h.Bookings.GetByRef(ctx, ref)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if booking.UserID != uid && !isAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	passengers, err := h.Bookings.PassengersByBookingID(ctx, booking.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": booking, "passengers": passengers})
}

// Cancel handles DELETE /v1/bookings/:ref.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid, ok := c.Get("user_id").(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	isAdmin, _ := c.Get("is_admin").(bool)
	ref := strings.TrimSpace(c.Param("ref"))
	if ref == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking ref required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Svc.CancelBooking(ctx, uid, isAdmin, ref); err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrAlreadyCancelled):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrStorageConflict):
			c.Response().Header().Set("Retry-After", "1")
			return c.JSON(http.StatusConflict, echo.Map{"error": service.ErrStorageConflict.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "cancelled"})
}
