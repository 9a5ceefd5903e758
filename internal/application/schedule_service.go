package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/20r01a04l8/railway-management-system/internal/domain/schedule"
	"github.com/20r01a04l8/railway-management-system/internal/infrastructure/redis"
	"github.com/20r01a04l8/railway-management-system/internal/pkg/logger"
)

// availabilityCacheTTL は空席数キャッシュの有効期間
// 表示用の値であり、予約時には常にDBの値で再確認される
const availabilityCacheTTL = 30 * time.Second

// ScheduleService は運行スケジュールに関するユースケースを提供する
type ScheduleService struct {
	scheduleRepo schedule.Repository
	cache        redis.AvailabilityCacheInterface // nil の場合はキャッシュを使わない
}

// NewScheduleService は新しいScheduleServiceを作成する
func NewScheduleService(scheduleRepo schedule.Repository, cache redis.AvailabilityCacheInterface) *ScheduleService {
	return &ScheduleService{scheduleRepo: scheduleRepo, cache: cache}
}

// Search は出発駅・到着駅・日付で空席のあるスケジュールを検索する
func (s *ScheduleService) Search(ctx context.Context, criteria schedule.SearchCriteria) ([]*schedule.Schedule, error) {
	return s.scheduleRepo.Search(ctx, criteria)
}

// GetSchedule はIDからスケジュールを取得する
func (s *ScheduleService) GetSchedule(ctx context.Context, id string) (*schedule.Schedule, error) {
	return s.scheduleRepo.GetByID(ctx, id)
}

// GetAvailability はスケジュールの空席数を取得する
// キャッシュヒット時はDBを参照しない。キャッシュの値は最大30秒古い可能性がある
func (s *ScheduleService) GetAvailability(ctx context.Context, scheduleID string) (int, error) {
	if s.cache != nil {
		count, err := s.cache.GetAvailableSeats(ctx, scheduleID)
		if err == nil {
			return count, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			logger.Warn("空席数キャッシュの取得に失敗",
				zap.String("schedule_id", scheduleID), zap.Error(err))
		}
	}

	sched, err := s.scheduleRepo.GetByID(ctx, scheduleID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetAvailableSeats(ctx, scheduleID, sched.AvailableSeats, availabilityCacheTTL); err != nil {
			logger.Warn("空席数キャッシュの保存に失敗",
				zap.String("schedule_id", scheduleID), zap.Error(err))
		}
	}
	return sched.AvailableSeats, nil
}
