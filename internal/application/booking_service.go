package application

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/20r01a04l8/railway-management-system/internal/domain/booking"
	"github.com/20r01a04l8/railway-management-system/internal/domain/refund"
	"github.com/20r01a04l8/railway-management-system/internal/domain/schedule"
	"github.com/20r01a04l8/railway-management-system/internal/domain/train"
	"github.com/20r01a04l8/railway-management-system/internal/domain/transaction"
	"github.com/20r01a04l8/railway-management-system/internal/infrastructure/redis"
	"github.com/20r01a04l8/railway-management-system/internal/inventory"
	"github.com/20r01a04l8/railway-management-system/internal/pkg/logger"
)

// referenceCharset は予約参照コードに使用する文字
// 読み間違えやすい 0/O/1/I は含めない
const referenceCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const referenceLength = 8

// maxReferenceAttempts は参照コード衝突時の再生成回数
const maxReferenceAttempts = 3

// InventoryManager は座席在庫の予約・解放インターフェース
type InventoryManager interface {
	Reserve(ctx context.Context, input inventory.ReserveInput) (*booking.Booking, error)
	Release(ctx context.Context, bookingID string) (*booking.Booking, error)
}

// BookingService は予約に関するユースケースを提供する
// 空席数の変更はすべて在庫マネージャーに委譲する
type BookingService struct {
	inventoryMgr InventoryManager
	bookingRepo  booking.Repository
	scheduleRepo schedule.Repository
	routeRepo    train.RouteRepository
	refundRepo   refund.Repository
	txManager    transaction.Manager
	cache        redis.AvailabilityCacheInterface // nil 可
}

// NewBookingService は新しいBookingServiceを作成する
func NewBookingService(
	inventoryMgr InventoryManager,
	bookingRepo booking.Repository,
	scheduleRepo schedule.Repository,
	routeRepo train.RouteRepository,
	refundRepo refund.Repository,
	txManager transaction.Manager,
	cache redis.AvailabilityCacheInterface,
) *BookingService {
	return &BookingService{
		inventoryMgr: inventoryMgr,
		bookingRepo:  bookingRepo,
		scheduleRepo: scheduleRepo,
		routeRepo:    routeRepo,
		refundRepo:   refundRepo,
		txManager:    txManager,
		cache:        cache,
	}
}

// CreateBookingInput は予約作成の入力を表す
type CreateBookingInput struct {
	UserID     string
	ScheduleID string
	Passengers []booking.Passenger
}

// CreateBooking は座席を予約する
// 空席の確認と減算は在庫マネージャーのクリティカルセクション内で行われる
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*booking.Booking, error) {
	if len(input.Passengers) < 1 {
		return nil, booking.ErrInvalidSeatCount
	}

	sched, err := s.scheduleRepo.GetByID(ctx, input.ScheduleID)
	if err != nil {
		return nil, err
	}
	route, err := s.routeRepo.GetByID(ctx, sched.RouteID)
	if err != nil {
		return nil, err
	}
	journeyFrom, journeyTo := journeyWindow(sched, route)

	// 参照コードの衝突は再生成でのみ回復する
	var created *booking.Booking
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		reference, err := generateReference()
		if err != nil {
			return nil, err
		}
		created, err = s.inventoryMgr.Reserve(ctx, inventory.ReserveInput{
			UserID:      input.UserID,
			ScheduleID:  input.ScheduleID,
			Reference:   reference,
			Passengers:  input.Passengers,
			JourneyFrom: journeyFrom,
			JourneyTo:   journeyTo,
		})
		if errors.Is(err, booking.ErrReferenceDuplicate) {
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}
	if created == nil {
		return nil, booking.ErrReferenceDuplicate
	}

	s.invalidateCache(ctx, input.ScheduleID)
	return created, nil
}

// CancelBooking は予約をキャンセルし、保留中の返金リクエストを作成する
// 既にキャンセル済みの場合は ErrBookingAlreadyCancelled を返し、何も変更しない
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, userID string, isAdmin bool) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && b.UserID != userID {
		return nil, booking.ErrBookingNotOwned
	}

	released, err := s.inventoryMgr.Release(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// キャンセルは確定済み。返金リクエストの作成失敗は後続の手動対応に回す
	req := refund.NewRequest(released.ID, released.UserID, released.TotalAmount)
	if err := s.refundRepo.Create(ctx, req); err != nil {
		logger.Error("返金リクエストの作成に失敗",
			zap.String("booking_id", released.ID), zap.Error(err))
	}

	s.invalidateCache(ctx, released.ScheduleID)
	return released, nil
}

// GetBooking はIDから予約を取得する（本人または管理者のみ）
func (s *BookingService) GetBooking(ctx context.Context, bookingID, userID string, isAdmin bool) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && b.UserID != userID {
		return nil, booking.ErrBookingNotOwned
	}
	return b, nil
}

// GetBookingByReference は参照コードから予約を取得する
func (s *BookingService) GetBookingByReference(ctx context.Context, reference, userID string, isAdmin bool) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !isAdmin && b.UserID != userID {
		return nil, booking.ErrBookingNotOwned
	}
	return b, nil
}

// GetUserBookings はユーザーの予約一覧を取得する
func (s *BookingService) GetUserBookings(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.bookingRepo.GetByUserID(ctx, userID, limit, offset)
}

// UpdatePassengers は確定済み予約の乗客情報を更新する
// 乗客の人数は予約座席数から変更できない
func (s *BookingService) UpdatePassengers(ctx context.Context, bookingID, userID string, passengers []booking.Passenger) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, booking.ErrBookingNotOwned
	}
	if !b.IsConfirmed() {
		return nil, booking.ErrBookingNotConfirmed
	}
	if len(passengers) != b.SeatCount {
		return nil, booking.ErrPassengerCountMismatch
	}

	b.Passengers = passengers
	b.UpdatedAt = time.Now()
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.UpdatePassengers(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// CompleteEndedJourneys は旅程が終了した確定予約を完了状態にする
// 完了への遷移は座席在庫に影響しない（座席は返却されない）
func (s *BookingService) CompleteEndedJourneys(ctx context.Context) (int, error) {
	ended, err := s.bookingRepo.GetConfirmedJourneyEndedBefore(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, b := range ended {
		if err := b.Complete(); err != nil {
			continue
		}
		tx, err := s.txManager.Begin(ctx)
		if err != nil {
			return completed, err
		}
		if err := s.bookingRepo.UpdateStatus(ctx, tx, b); err != nil {
			tx.Rollback()
			logger.Warn("予約の完了処理に失敗", zap.String("booking_id", b.ID), zap.Error(err))
			continue
		}
		if err := tx.Commit(); err != nil {
			logger.Warn("予約の完了処理のコミットに失敗", zap.String("booking_id", b.ID), zap.Error(err))
			continue
		}
		completed++
	}
	return completed, nil
}

func (s *BookingService) invalidateCache(ctx context.Context, scheduleID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, scheduleID); err != nil {
		logger.Warn("空席数キャッシュの無効化に失敗",
			zap.String("schedule_id", scheduleID), zap.Error(err))
	}
}

// journeyWindow は運行日と経路から旅程の開始・終了時刻を計算する
// 到着日は走行距離に応じて運行日から繰り下がる（500kmごとに1日）
func journeyWindow(sched *schedule.Schedule, route *train.Route) (time.Time, time.Time) {
	from := combineDateTime(sched.ScheduleDate, route.DepartureTime)
	arrivalDate := sched.ScheduleDate.AddDate(0, 0, route.JourneyDays()-1)
	to := combineDateTime(arrivalDate, route.ArrivalTime)
	if !to.After(from) {
		to = to.AddDate(0, 0, 1)
	}
	return from, to
}

// combineDateTime は日付と "15:04" 形式の時刻を合成する
func combineDateTime(date time.Time, hhmm string) time.Time {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return date
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), 0, 0, date.Location())
}

// generateReference は8文字の予約参照コードを生成する
func generateReference() (string, error) {
	buf := make([]byte, referenceLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("参照コード生成に失敗: %w", err)
	}
	for i, b := range buf {
		buf[i] = referenceCharset[int(b)%len(referenceCharset)]
	}
	return string(buf), nil
}
