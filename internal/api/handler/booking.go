package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/20r01a04l8/railway-management-system/internal/api/middleware"
	"github.com/20r01a04l8/railway-management-system/internal/application"
	"github.com/20r01a04l8/railway-management-system/internal/domain/booking"
	"github.com/20r01a04l8/railway-management-system/internal/domain/schedule"
)

type BookingHandler struct {
	service BookingServiceInterface
}

func NewBookingHandler(s BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

type PassengerRequest struct {
	Name       string `json:"name" validate:"required"`
	Age        int    `json:"age" validate:"required,min=1,max=120"`
	Gender     string `json:"gender" validate:"required,oneof=male female other"`
	SeatNumber string `json:"seat_number"`
}

type CreateBookingRequest struct {
	ScheduleID string             `json:"schedule_id" validate:"required"`
	Passengers []PassengerRequest `json:"passengers" validate:"required,min=1,max=6,dive"`
}

type UpdatePassengersRequest struct {
	Passengers []PassengerRequest `json:"passengers" validate:"required,min=1,dive"`
}

type PassengerResponse struct {
	Name       string `json:"name"`
	Age        int    `json:"age"`
	Gender     string `json:"gender"`
	SeatNumber string `json:"seat_number,omitempty"`
}

type BookingResponse struct {
	ID          string              `json:"id"`
	Reference   string              `json:"reference"`
	ScheduleID  string              `json:"schedule_id"`
	SeatCount   int                 `json:"seat_count"`
	TotalAmount int                 `json:"total_amount"`
	Status      string              `json:"status"`
	Passengers  []PassengerResponse `json:"passengers"`
	JourneyFrom time.Time           `json:"journey_from"`
	JourneyTo   time.Time           `json:"journey_to"`
	BookedAt    time.Time           `json:"booked_at"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	passengers := make([]PassengerResponse, len(b.Passengers))
	for i, p := range b.Passengers {
		passengers[i] = PassengerResponse{
			Name: p.Name, Age: p.Age, Gender: string(p.Gender), SeatNumber: p.SeatNumber,
		}
	}
	return BookingResponse{
		ID: b.ID, Reference: b.Reference, ScheduleID: b.ScheduleID,
		SeatCount: b.SeatCount, TotalAmount: b.TotalAmount, Status: string(b.Status),
		Passengers: passengers, JourneyFrom: b.JourneyFrom, JourneyTo: b.JourneyTo,
		BookedAt: b.BookedAt,
	}
}

func toPassengers(reqs []PassengerRequest) []booking.Passenger {
	passengers := make([]booking.Passenger, len(reqs))
	for i, p := range reqs {
		passengers[i] = booking.Passenger{
			Name: p.Name, Age: p.Age, Gender: booking.Gender(p.Gender), SeatNumber: p.SeatNumber,
		}
	}
	return passengers
}

// Create は座席を予約する
// 空席不足は 409 を返し、在庫は一切変更されない
func (h *BookingHandler) Create(c echo.Context) error {
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	b, err := h.service.CreateBooking(c.Request().Context(), application.CreateBookingInput{
		UserID:     middleware.UserID(c),
		ScheduleID: req.ScheduleID,
		Passengers: toPassengers(req.Passengers),
	})
	if err != nil {
		switch {
		case schedule.IsInsufficientSeats(err):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, schedule.ErrScheduleNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, schedule.ErrCapacityInvariantViolated):
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

// Cancel は予約をキャンセルし、座席を在庫に戻す
// 既にキャンセル済みの場合は 409 を返す
func (h *BookingHandler) Cancel(c echo.Context) error {
	b, err := h.service.CancelBooking(c.Request().Context(),
		c.Param("id"), middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, booking.ErrBookingAlreadyCancelled):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, booking.ErrBookingNotOwned):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, schedule.ErrCapacityInvariantViolated):
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// GetByID は予約を取得する
func (h *BookingHandler) GetByID(c echo.Context) error {
	b, err := h.service.GetBooking(c.Request().Context(),
		c.Param("id"), middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		return bookingReadError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// GetByReference は参照コードから予約を取得する
func (h *BookingHandler) GetByReference(c echo.Context) error {
	b, err := h.service.GetBookingByReference(c.Request().Context(),
		c.Param("reference"), middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		return bookingReadError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// List は認証済みユーザーの予約一覧を取得する
func (h *BookingHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	bookings, err := h.service.GetUserBookings(c.Request().Context(), middleware.UserID(c), limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = toBookingResponse(b)
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdatePassengers は乗客情報を更新する（人数は変更不可）
func (h *BookingHandler) UpdatePassengers(c echo.Context) error {
	var req UpdatePassengersRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	b, err := h.service.UpdatePassengers(c.Request().Context(),
		c.Param("id"), middleware.UserID(c), toPassengers(req.Passengers))
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, booking.ErrBookingNotOwned):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

func bookingReadError(err error) error {
	switch {
	case errors.Is(err, booking.ErrBookingNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrBookingNotOwned):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
