package handler

import (
	"context"

	"github.com/20r01a04l8/railway-management-system/internal/application"
	"github.com/20r01a04l8/railway-management-system/internal/domain/alert"
	"github.com/20r01a04l8/railway-management-system/internal/domain/booking"
	"github.com/20r01a04l8/railway-management-system/internal/domain/refund"
	"github.com/20r01a04l8/railway-management-system/internal/domain/schedule"
	"github.com/20r01a04l8/railway-management-system/internal/domain/station"
	"github.com/20r01a04l8/railway-management-system/internal/domain/train"
	"github.com/20r01a04l8/railway-management-system/internal/domain/user"
)

// AuthServiceInterface は認証サービスのインターフェース
type AuthServiceInterface interface {
	Register(ctx context.Context, input application.RegisterInput) (*user.User, error)
	Login(ctx context.Context, username, password string) (string, *user.User, error)
	GetProfile(ctx context.Context, userID string) (*user.User, error)
}

// StationServiceInterface は駅サービスのインターフェース
type StationServiceInterface interface {
	CreateStation(ctx context.Context, code, name, city, state string) (*station.Station, error)
	GetStation(ctx context.Context, id string) (*station.Station, error)
	ListStations(ctx context.Context) ([]*station.Station, error)
}

// TrainServiceInterface は列車サービスのインターフェース
type TrainServiceInterface interface {
	CreateTrain(ctx context.Context, number, name string, trainType train.Type, totalSeats int) (*train.Train, error)
	GetTrain(ctx context.Context, id string) (*train.Train, error)
	ListTrains(ctx context.Context, limit, offset int) ([]*train.Train, error)
	UpdateTrain(ctx context.Context, id string, input application.UpdateTrainInput) (*train.Train, error)
	SetTrainActive(ctx context.Context, id string, active bool) error
	CreateRoute(ctx context.Context, input application.CreateRouteInput) (*train.Route, error)
	ListRoutes(ctx context.Context) ([]*train.Route, error)
}

// ScheduleServiceInterface はスケジュールサービスのインターフェース
type ScheduleServiceInterface interface {
	Search(ctx context.Context, criteria schedule.SearchCriteria) ([]*schedule.Schedule, error)
	GetSchedule(ctx context.Context, id string) (*schedule.Schedule, error)
	GetAvailability(ctx context.Context, scheduleID string) (int, error)
}

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	CreateBooking(ctx context.Context, input application.CreateBookingInput) (*booking.Booking, error)
	CancelBooking(ctx context.Context, bookingID, userID string, isAdmin bool) (*booking.Booking, error)
	GetBooking(ctx context.Context, bookingID, userID string, isAdmin bool) (*booking.Booking, error)
	GetBookingByReference(ctx context.Context, reference, userID string, isAdmin bool) (*booking.Booking, error)
	GetUserBookings(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error)
	UpdatePassengers(ctx context.Context, bookingID, userID string, passengers []booking.Passenger) (*booking.Booking, error)
}

// RefundServiceInterface は返金サービスのインターフェース
type RefundServiceInterface interface {
	ListPending(ctx context.Context) ([]*refund.Request, error)
	Approve(ctx context.Context, requestID, adminID string) (*refund.Request, error)
	Reject(ctx context.Context, requestID, adminID, reason string) (*refund.Request, error)
}

// AdminServiceInterface は管理サービスのインターフェース
type AdminServiceInterface interface {
	GetDashboardStats(ctx context.Context) (*application.DashboardStats, error)
	CreateAlert(ctx context.Context, alertType alert.Type, title, message, icon string) (*alert.SystemAlert, error)
	ListAlerts(ctx context.Context) ([]*alert.SystemAlert, error)
	DismissAlert(ctx context.Context, id string) error
}
