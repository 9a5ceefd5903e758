package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/20r01a04l8/railway-management-system/internal/domain/schedule"
	"github.com/20r01a04l8/railway-management-system/internal/domain/station"
	"github.com/20r01a04l8/railway-management-system/internal/domain/train"
	"github.com/20r01a04l8/railway-management-system/internal/pkg/logger"
)

// TrainService は列車と経路に関するユースケースを提供する
type TrainService struct {
	trainRepo    train.Repository
	routeRepo    train.RouteRepository
	stationRepo  station.Repository
	scheduleRepo schedule.Repository
	scheduleDays int
}

// NewTrainService は新しいTrainServiceを作成する
func NewTrainService(
	trainRepo train.Repository,
	routeRepo train.RouteRepository,
	stationRepo station.Repository,
	scheduleRepo schedule.Repository,
	scheduleDays int,
) *TrainService {
	if scheduleDays < 1 {
		scheduleDays = 30
	}
	return &TrainService{
		trainRepo:    trainRepo,
		routeRepo:    routeRepo,
		stationRepo:  stationRepo,
		scheduleRepo: scheduleRepo,
		scheduleDays: scheduleDays,
	}
}

// CreateTrain は新しい列車を作成する
func (s *TrainService) CreateTrain(ctx context.Context, number, name string, trainType train.Type, totalSeats int) (*train.Train, error) {
	t := train.NewTrain(number, name, trainType, totalSeats)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.trainRepo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetTrain はIDから列車を取得する
func (s *TrainService) GetTrain(ctx context.Context, id string) (*train.Train, error) {
	return s.trainRepo.GetByID(ctx, id)
}

// ListTrains は列車一覧を取得する
func (s *TrainService) ListTrains(ctx context.Context, limit, offset int) ([]*train.Train, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.trainRepo.List(ctx, limit, offset)
}

// UpdateTrainInput は列車更新の入力を表す
type UpdateTrainInput struct {
	Name       string
	Type       train.Type
	TotalSeats int
}

// UpdateTrain は列車を更新する
// 総座席数の変更は既存スケジュールの総座席数には波及しない
func (s *TrainService) UpdateTrain(ctx context.Context, id string, input UpdateTrainInput) (*train.Train, error) {
	t, err := s.trainRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Name = input.Name
	t.Type = input.Type
	t.TotalSeats = input.TotalSeats
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.trainRepo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// SetTrainActive は列車と関連経路のアクティブ状態を切り替える
func (s *TrainService) SetTrainActive(ctx context.Context, id string, active bool) error {
	return s.trainRepo.SetActive(ctx, id, active)
}

// CreateRouteInput は経路作成の入力を表す
type CreateRouteInput struct {
	TrainID              string
	SourceStationID      string
	DestinationStationID string
	DepartureTime        string
	ArrivalTime          string
	DistanceKM           int
	BaseFare             int
}

// CreateRoute は新しい経路を作成し、先の日付分のスケジュールを自動生成する
func (s *TrainService) CreateRoute(ctx context.Context, input CreateRouteInput) (*train.Route, error) {
	t, err := s.trainRepo.GetByID(ctx, input.TrainID)
	if err != nil {
		return nil, err
	}
	if _, err := s.stationRepo.GetByID(ctx, input.SourceStationID); err != nil {
		return nil, err
	}
	if _, err := s.stationRepo.GetByID(ctx, input.DestinationStationID); err != nil {
		return nil, err
	}

	exists, err := s.routeRepo.ExistsActive(ctx, input.TrainID, input.SourceStationID, input.DestinationStationID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, train.ErrRouteDuplicate
	}

	r := train.NewRoute(input.TrainID, input.SourceStationID, input.DestinationStationID,
		input.DepartureTime, input.ArrivalTime, input.DistanceKM, input.BaseFare)
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.routeRepo.Create(ctx, r); err != nil {
		return nil, err
	}

	// スケジュール生成の失敗は経路作成を巻き戻さない
	// 欠けた日付は再実行時に補完される
	if err := s.generateSchedules(ctx, r, t.TotalSeats); err != nil {
		logger.Warn("スケジュールの自動生成に一部失敗",
			zap.String("route_id", r.ID), zap.Error(err))
	}
	return r, nil
}

// ListRoutes はアクティブな経路一覧を取得する
func (s *TrainService) ListRoutes(ctx context.Context) ([]*train.Route, error) {
	return s.routeRepo.ListActive(ctx)
}

// generateSchedules は今日から scheduleDays 日分のスケジュールを作成する
// 総座席数は作成時点の列車の座席数で固定される
func (s *TrainService) generateSchedules(ctx context.Context, r *train.Route, totalSeats int) error {
	today := time.Now().Truncate(24 * time.Hour)
	for i := 0; i < s.scheduleDays; i++ {
		date := today.AddDate(0, 0, i)
		exists, err := s.scheduleRepo.ExistsForRouteAndDate(ctx, r.ID, date)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		sched := schedule.NewSchedule(r.ID, date, totalSeats, r.BaseFare)
		if err := s.scheduleRepo.Create(ctx, sched); err != nil {
			return err
		}
	}
	return nil
}
