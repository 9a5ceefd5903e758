package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/20r01a04l8/railway-management-system/internal/application"
	"github.com/20r01a04l8/railway-management-system/internal/domain/user"
)

// コンテキストに格納するキー
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// JWTAuth は Bearer トークンを検証し、ユーザーIDと権限をコンテキストへ格納する
func JWTAuth(secret string) echo.MiddlewareFunc {
	key := []byte(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "認証トークンが必要です")
			}
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "認証形式が不正です")
			}

			claims := &application.Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return key, nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "トークンが無効です")
			}

			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextRole, claims.Role)
			return next(c)
		}
	}
}

// AdminOnly は管理者権限を要求するミドルウェア（JWTAuth の後段で使用）
func AdminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(string)
			if role != string(user.RoleAdmin) {
				return echo.NewHTTPError(http.StatusForbidden, "管理者権限が必要です")
			}
			return next(c)
		}
	}
}

// UserID はコンテキストから認証済みユーザーIDを取得する
func UserID(c echo.Context) string {
	id, _ := c.Get(ContextUserID).(string)
	return id
}

// IsAdmin はコンテキストの権限が管理者かを返す
func IsAdmin(c echo.Context) bool {
	role, _ := c.Get(ContextRole).(string)
	return role == string(user.RoleAdmin)
}
