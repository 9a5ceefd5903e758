package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/20r01a04l8/railway-management-system/internal/api/middleware"
	"github.com/20r01a04l8/railway-management-system/internal/domain/alert"
	"github.com/20r01a04l8/railway-management-system/internal/domain/refund"
)

type AdminHandler struct {
	adminService  AdminServiceInterface
	refundService RefundServiceInterface
}

func NewAdminHandler(adminService AdminServiceInterface, refundService RefundServiceInterface) *AdminHandler {
	return &AdminHandler{adminService: adminService, refundService: refundService}
}

type RefundResponse struct {
	ID              string     `json:"id"`
	BookingID       string     `json:"booking_id"`
	UserID          string     `json:"user_id"`
	Amount          int        `json:"amount"`
	Status          string     `json:"status"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	RequestedAt     time.Time  `json:"requested_at"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
}

func toRefundResponse(r *refund.Request) RefundResponse {
	return RefundResponse{
		ID: r.ID, BookingID: r.BookingID, UserID: r.UserID, Amount: r.Amount,
		Status: string(r.Status), RejectionReason: r.RejectionReason,
		RequestedAt: r.RequestedAt, DecidedAt: r.DecidedAt,
	}
}

type CreateAlertRequest struct {
	Type    string `json:"type" validate:"required,oneof=info warning danger success"`
	Title   string `json:"title" validate:"required"`
	Message string `json:"message" validate:"required"`
	Icon    string `json:"icon"`
}

type AlertResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Icon        string    `json:"icon"`
	Dismissible bool      `json:"dismissible"`
	CreatedAt   time.Time `json:"created_at"`
}

func toAlertResponse(a *alert.SystemAlert) AlertResponse {
	return AlertResponse{
		ID: a.ID, Type: string(a.Type), Title: a.Title, Message: a.Message,
		Icon: a.Icon, Dismissible: a.Dismissible, CreatedAt: a.CreatedAt,
	}
}

// Dashboard は管理画面の集計値を返す
func (h *AdminHandler) Dashboard(c echo.Context) error {
	stats, err := h.adminService.GetDashboardStats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

// ListPendingRefunds は保留中の返金リクエスト一覧を返す
func (h *AdminHandler) ListPendingRefunds(c echo.Context) error {
	requests, err := h.refundService.ListPending(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]RefundResponse, len(requests))
	for i, r := range requests {
		resp[i] = toRefundResponse(r)
	}
	return c.JSON(http.StatusOK, resp)
}

// ApproveRefund は返金リクエストを承認する
func (h *AdminHandler) ApproveRefund(c echo.Context) error {
	req, err := h.refundService.Approve(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return refundDecisionError(err)
	}
	return c.JSON(http.StatusOK, toRefundResponse(req))
}

// RejectRefund は返金リクエストを却下する
func (h *AdminHandler) RejectRefund(c echo.Context) error {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	req, err := h.refundService.Reject(c.Request().Context(), c.Param("id"), middleware.UserID(c), body.Reason)
	if err != nil {
		return refundDecisionError(err)
	}
	return c.JSON(http.StatusOK, toRefundResponse(req))
}

// CreateAlert はシステムアラートを作成する
func (h *AdminHandler) CreateAlert(c echo.Context) error {
	var req CreateAlertRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	a, err := h.adminService.CreateAlert(c.Request().Context(), alert.Type(req.Type), req.Title, req.Message, req.Icon)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, toAlertResponse(a))
}

// ListAlerts はアクティブなアラート一覧を返す
func (h *AdminHandler) ListAlerts(c echo.Context) error {
	alerts, err := h.adminService.ListAlerts(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]AlertResponse, len(alerts))
	for i, a := range alerts {
		resp[i] = toAlertResponse(a)
	}
	return c.JSON(http.StatusOK, resp)
}

// DismissAlert はアラートを非表示にする
func (h *AdminHandler) DismissAlert(c echo.Context) error {
	if err := h.adminService.DismissAlert(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, alert.ErrAlertNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func refundDecisionError(err error) error {
	switch {
	case errors.Is(err, refund.ErrRequestNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, refund.ErrRequestNotPending):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
