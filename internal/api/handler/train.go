package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/20r01a04l8/railway-management-system/internal/application"
	"github.com/20r01a04l8/railway-management-system/internal/domain/station"
	"github.com/20r01a04l8/railway-management-system/internal/domain/train"
)

type TrainHandler struct {
	service TrainServiceInterface
}

func NewTrainHandler(s TrainServiceInterface) *TrainHandler {
	return &TrainHandler{service: s}
}

type CreateTrainRequest struct {
	Number     string `json:"number" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=express passenger superfast"`
	TotalSeats int    `json:"total_seats" validate:"required,min=1"`
}

type UpdateTrainRequest struct {
	Name       string `json:"name" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=express passenger superfast"`
	TotalSeats int    `json:"total_seats" validate:"required,min=1"`
}

type TrainResponse struct {
	ID         string `json:"id"`
	Number     string `json:"number"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	TotalSeats int    `json:"total_seats"`
	IsActive   bool   `json:"is_active"`
}

func toTrainResponse(t *train.Train) TrainResponse {
	return TrainResponse{
		ID: t.ID, Number: t.Number, Name: t.Name, Type: string(t.Type),
		TotalSeats: t.TotalSeats, IsActive: t.IsActive,
	}
}

type CreateRouteRequest struct {
	TrainID              string `json:"train_id" validate:"required"`
	SourceStationID      string `json:"source_station_id" validate:"required"`
	DestinationStationID string `json:"destination_station_id" validate:"required"`
	DepartureTime        string `json:"departure_time" validate:"required"`
	ArrivalTime          string `json:"arrival_time" validate:"required"`
	DistanceKM           int    `json:"distance_km" validate:"required,min=1"`
	BaseFare             int    `json:"base_fare" validate:"min=0"`
}

type RouteResponse struct {
	ID                   string `json:"id"`
	TrainID              string `json:"train_id"`
	SourceStationID      string `json:"source_station_id"`
	DestinationStationID string `json:"destination_station_id"`
	DepartureTime        string `json:"departure_time"`
	ArrivalTime          string `json:"arrival_time"`
	DistanceKM           int    `json:"distance_km"`
	BaseFare             int    `json:"base_fare"`
	IsActive             bool   `json:"is_active"`
}

func toRouteResponse(r *train.Route) RouteResponse {
	return RouteResponse{
		ID: r.ID, TrainID: r.TrainID,
		SourceStationID: r.SourceStationID, DestinationStationID: r.DestinationStationID,
		DepartureTime: r.DepartureTime, ArrivalTime: r.ArrivalTime,
		DistanceKM: r.DistanceKM, BaseFare: r.BaseFare, IsActive: r.IsActive,
	}
}

// Create は新しい列車を作成する（管理者のみ）
func (h *TrainHandler) Create(c echo.Context) error {
	var req CreateTrainRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	t, err := h.service.CreateTrain(c.Request().Context(), req.Number, req.Name, train.Type(req.Type), req.TotalSeats)
	if err != nil {
		if errors.Is(err, train.ErrTrainNumberDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, toTrainResponse(t))
}

// GetByID は列車を取得する
func (h *TrainHandler) GetByID(c echo.Context) error {
	t, err := h.service.GetTrain(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, train.ErrTrainNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toTrainResponse(t))
}

// List は列車一覧を取得する
func (h *TrainHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	trains, err := h.service.ListTrains(c.Request().Context(), limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]TrainResponse, len(trains))
	for i, t := range trains {
		resp[i] = toTrainResponse(t)
	}
	return c.JSON(http.StatusOK, resp)
}

// Update は列車を更新する（管理者のみ）
func (h *TrainHandler) Update(c echo.Context) error {
	var req UpdateTrainRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	t, err := h.service.UpdateTrain(c.Request().Context(), c.Param("id"), application.UpdateTrainInput{
		Name: req.Name, Type: train.Type(req.Type), TotalSeats: req.TotalSeats,
	})
	if err != nil {
		if errors.Is(err, train.ErrTrainNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, toTrainResponse(t))
}

// SetActive は列車のアクティブ状態を切り替える（管理者のみ）
func (h *TrainHandler) SetActive(c echo.Context) error {
	var req struct {
		Active bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := h.service.SetTrainActive(c.Request().Context(), c.Param("id"), req.Active); err != nil {
		if errors.Is(err, train.ErrTrainNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateRoute は新しい経路を作成する（管理者のみ）
func (h *TrainHandler) CreateRoute(c echo.Context) error {
	var req CreateRouteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	r, err := h.service.CreateRoute(c.Request().Context(), application.CreateRouteInput{
		TrainID:              req.TrainID,
		SourceStationID:      req.SourceStationID,
		DestinationStationID: req.DestinationStationID,
		DepartureTime:        req.DepartureTime,
		ArrivalTime:          req.ArrivalTime,
		DistanceKM:           req.DistanceKM,
		BaseFare:             req.BaseFare,
	})
	if err != nil {
		switch {
		case errors.Is(err, train.ErrTrainNotFound), errors.Is(err, station.ErrStationNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, train.ErrRouteDuplicate):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, toRouteResponse(r))
}

// ListRoutes はアクティブな経路一覧を取得する
func (h *TrainHandler) ListRoutes(c echo.Context) error {
	routes, err := h.service.ListRoutes(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]RouteResponse, len(routes))
	for i, r := range routes {
		resp[i] = toRouteResponse(r)
	}
	return c.JSON(http.StatusOK, resp)
}
