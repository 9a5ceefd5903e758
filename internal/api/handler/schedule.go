package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/20r01a04l8/railway-management-system/internal/domain/schedule"
)

type ScheduleHandler struct {
	service ScheduleServiceInterface
}

func NewScheduleHandler(s ScheduleServiceInterface) *ScheduleHandler {
	return &ScheduleHandler{service: s}
}

type ScheduleResponse struct {
	ID             string `json:"id"`
	RouteID        string `json:"route_id"`
	ScheduleDate   string `json:"schedule_date"`
	TotalCapacity  int    `json:"total_capacity"`
	AvailableSeats int    `json:"available_seats"`
	BaseFare       int    `json:"base_fare"`
	Status         string `json:"status"`
}

func toScheduleResponse(s *schedule.Schedule) ScheduleResponse {
	return ScheduleResponse{
		ID: s.ID, RouteID: s.RouteID,
		ScheduleDate:   s.ScheduleDate.Format("2006-01-02"),
		TotalCapacity:  s.TotalCapacity,
		AvailableSeats: s.AvailableSeats,
		BaseFare:       s.BaseFare,
		Status:         string(s.Status),
	}
}

// Search は出発駅・到着駅・日付でスケジュールを検索する
func (h *ScheduleHandler) Search(c echo.Context) error {
	source := c.QueryParam("source")
	dest := c.QueryParam("destination")
	dateStr := c.QueryParam("date")
	if source == "" || dest == "" || dateStr == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "source・destination・date は必須です")
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "日付の形式が不正です")
	}

	schedules, err := h.service.Search(c.Request().Context(), schedule.SearchCriteria{
		SourceStationID:      source,
		DestinationStationID: dest,
		TravelDate:           date,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]ScheduleResponse, len(schedules))
	for i, s := range schedules {
		resp[i] = toScheduleResponse(s)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetByID はスケジュールを取得する
func (h *ScheduleHandler) GetByID(c echo.Context) error {
	s, err := h.service.GetSchedule(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, schedule.ErrScheduleNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toScheduleResponse(s))
}

// GetAvailability はスケジュールの空席数を取得する
func (h *ScheduleHandler) GetAvailability(c echo.Context) error {
	count, err := h.service.GetAvailability(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, schedule.ErrScheduleNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{"available_seats": count})
}
