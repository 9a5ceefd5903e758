package application

import (
	"context"

	"github.com/20r01a04l8/railway-management-system/internal/domain/alert"
	"github.com/20r01a04l8/railway-management-system/internal/domain/refund"
	"github.com/20r01a04l8/railway-management-system/internal/domain/station"
	"github.com/20r01a04l8/railway-management-system/internal/domain/train"
	"github.com/20r01a04l8/railway-management-system/internal/domain/user"
)

// DashboardStats は管理画面に表示する集計値を表す
type DashboardStats struct {
	ActiveUsers    int `json:"active_users"`
	Stations       int `json:"stations"`
	ActiveRoutes   int `json:"active_routes"`
	PendingRefunds int `json:"pending_refunds"`
}

// AdminService は管理機能のユースケースを提供する
type AdminService struct {
	userRepo    user.Repository
	stationRepo station.Repository
	routeRepo   train.RouteRepository
	refundRepo  refund.Repository
	alertRepo   alert.Repository
}

// NewAdminService は新しいAdminServiceを作成する
func NewAdminService(
	userRepo user.Repository,
	stationRepo station.Repository,
	routeRepo train.RouteRepository,
	refundRepo refund.Repository,
	alertRepo alert.Repository,
) *AdminService {
	return &AdminService{
		userRepo:    userRepo,
		stationRepo: stationRepo,
		routeRepo:   routeRepo,
		refundRepo:  refundRepo,
		alertRepo:   alertRepo,
	}
}

// GetDashboardStats は管理画面の集計値を取得する
func (s *AdminService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	users, err := s.userRepo.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	stations, err := s.stationRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	routes, err := s.routeRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.refundRepo.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		ActiveUsers:    users,
		Stations:       len(stations),
		ActiveRoutes:   len(routes),
		PendingRefunds: len(pending),
	}, nil
}

// CreateAlert は管理者向けアラートを作成する
func (s *AdminService) CreateAlert(ctx context.Context, alertType alert.Type, title, message, icon string) (*alert.SystemAlert, error) {
	a := alert.New(alertType, title, message, icon)
	if err := s.alertRepo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAlerts はアクティブなアラート一覧を取得する
func (s *AdminService) ListAlerts(ctx context.Context) ([]*alert.SystemAlert, error) {
	return s.alertRepo.ListActive(ctx)
}

// DismissAlert はアラートを非表示にする
func (s *AdminService) DismissAlert(ctx context.Context, id string) error {
	return s.alertRepo.Dismiss(ctx, id)
}
