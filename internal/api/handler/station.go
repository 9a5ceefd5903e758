package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/20r01a04l8/railway-management-system/internal/domain/station"
)

type StationHandler struct {
	service StationServiceInterface
}

func NewStationHandler(s StationServiceInterface) *StationHandler {
	return &StationHandler{service: s}
}

type CreateStationRequest struct {
	Code  string `json:"code" validate:"required,max=10"`
	Name  string `json:"name" validate:"required"`
	City  string `json:"city"`
	State string `json:"state"`
}

type StationResponse struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`
}

func toStationResponse(s *station.Station) StationResponse {
	return StationResponse{ID: s.ID, Code: s.Code, Name: s.Name, City: s.City, State: s.State}
}

// Create は新しい駅を作成する（管理者のみ）
func (h *StationHandler) Create(c echo.Context) error {
	var req CreateStationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	s, err := h.service.CreateStation(c.Request().Context(), req.Code, req.Name, req.City, req.State)
	if err != nil {
		if errors.Is(err, station.ErrStationCodeDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, toStationResponse(s))
}

// GetByID は駅を取得する
func (h *StationHandler) GetByID(c echo.Context) error {
	s, err := h.service.GetStation(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, station.ErrStationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toStationResponse(s))
}

// List は駅一覧を取得する
func (h *StationHandler) List(c echo.Context) error {
	stations, err := h.service.ListStations(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]StationResponse, len(stations))
	for i, s := range stations {
		resp[i] = toStationResponse(s)
	}
	return c.JSON(http.StatusOK, resp)
}
