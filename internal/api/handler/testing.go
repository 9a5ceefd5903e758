package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/20r01a04l8/railway-management-system/internal/api"
)

// NewTestEcho はテスト用のEchoインスタンスを作成する
func NewTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = api.NewValidator()
	return e
}
