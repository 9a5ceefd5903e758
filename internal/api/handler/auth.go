package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/20r01a04l8/railway-management-system/internal/api/middleware"
	"github.com/20r01a04l8/railway-management-system/internal/application"
	"github.com/20r01a04l8/railway-management-system/internal/domain/user"
)

type AuthHandler struct {
	service AuthServiceInterface
}

func NewAuthHandler(s AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: s}
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID: u.ID, Username: u.Username, Email: u.Email,
		FullName: u.FullName, Phone: u.Phone, Role: string(u.Role),
	}
}

// Register は新しいユーザーを登録する
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	u, err := h.service.Register(c.Request().Context(), application.RegisterInput{
		Username: req.Username, Email: req.Email, Password: req.Password,
		FullName: req.FullName, Phone: req.Phone,
	})
	if err != nil {
		if errors.Is(err, user.ErrUsernameDuplicate) || errors.Is(err, user.ErrEmailDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, toUserResponse(u))
}

// Login は認証を行いJWTを発行する
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	token, u, err := h.service.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) || errors.Is(err, user.ErrUserInactive) {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, LoginResponse{Token: token, User: toUserResponse(u)})
}

// Profile は認証済みユーザーの情報を返す
func (h *AuthHandler) Profile(c echo.Context) error {
	u, err := h.service.GetProfile(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}
