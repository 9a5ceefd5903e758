package application

import (
	"context"

	"github.com/20r01a04l8/railway-management-system/internal/domain/station"
)

// StationService は駅に関するユースケースを提供する
type StationService struct {
	stationRepo station.Repository
}

// NewStationService は新しいStationServiceを作成する
func NewStationService(stationRepo station.Repository) *StationService {
	return &StationService{stationRepo: stationRepo}
}

// CreateStation は新しい駅を作成する
func (s *StationService) CreateStation(ctx context.Context, code, name, city, state string) (*station.Station, error) {
	st := station.NewStation(code, name, city, state)
	if err := st.Validate(); err != nil {
		return nil, err
	}
	if err := s.stationRepo.Create(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// GetStation はIDから駅を取得する
func (s *StationService) GetStation(ctx context.Context, id string) (*station.Station, error) {
	return s.stationRepo.GetByID(ctx, id)
}

// ListStations は駅一覧を取得する
func (s *StationService) ListStations(ctx context.Context) ([]*station.Station, error) {
	return s.stationRepo.List(ctx)
}
