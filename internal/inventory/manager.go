package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/20r01a04l8/railway-management-system/internal/domain/booking"
	"github.com/20r01a04l8/railway-management-system/internal/domain/schedule"
	"github.com/20r01a04l8/railway-management-system/internal/domain/transaction"
	"github.com/20r01a04l8/railway-management-system/internal/infrastructure/redis"
	"github.com/20r01a04l8/railway-management-system/internal/pkg/logger"
	"github.com/20r01a04l8/railway-management-system/internal/pkg/metrics"
	"github.com/20r01a04l8/railway-management-system/internal/pkg/retry"
)

// ReserveInput は座席予約の入力を表す
// 運賃は予約時点のスケジュールの値から計算され、以後の運賃変更の影響を受けない
type ReserveInput struct {
	UserID      string
	ScheduleID  string
	Reference   string
	Passengers  []booking.Passenger
	JourneyFrom time.Time
	JourneyTo   time.Time
}

// Options は在庫マネージャーの動作設定
type Options struct {
	LockTTL       time.Duration // 分散ロックのTTL
	MaxRetries    int           // トランザクションの最大試行回数
	RetryBaseWait time.Duration // リトライの初期待機時間
}

// DefaultOptions は既定の動作設定を返す
func DefaultOptions() Options {
	return Options{
		LockTTL:       10 * time.Second,
		MaxRetries:    3,
		RetryBaseWait: 100 * time.Millisecond,
	}
}

// Manager は運行スケジュールの座席在庫を管理する
//
// 予約・解放は次の手順で直列化される：
//  1. スケジュール単位の分散ロックを取得（Redisが無効な場合はスキップ）
//  2. トランザクション内で FOR UPDATE によりスケジュール行をロック
//  3. 空席数の確認・変更と予約行の作成・更新を同一トランザクションでコミット
//
// 一時的な障害（直列化失敗・デッドロック・接続断）はバックオフ付きでリトライし、
// ビジネスルール上の拒否（空席不足・二重キャンセルなど）は決してリトライしない
type Manager struct {
	txManager    transaction.Manager
	scheduleRepo schedule.Repository
	bookingRepo  booking.Repository
	lockManager  redis.LockManagerInterface // nil の場合は行ロックのみで直列化
	metrics      *metrics.Metrics
	opts         Options
}

// NewManager は新しい在庫マネージャーを作成する
func NewManager(
	txManager transaction.Manager,
	scheduleRepo schedule.Repository,
	bookingRepo booking.Repository,
	lockManager redis.LockManagerInterface,
	m *metrics.Metrics,
	opts Options,
) *Manager {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	return &Manager{
		txManager:    txManager,
		scheduleRepo: scheduleRepo,
		bookingRepo:  bookingRepo,
		lockManager:  lockManager,
		metrics:      m,
		opts:         opts,
	}
}

// Reserve は指定スケジュールの座席を予約する
//
// 空席数の確認と減算はアトミックに行われ、確認と減算の間に他の予約が
// 割り込むことはない。空席不足の場合は InsufficientSeatsError を返し、
// 在庫は一切変更されない
func (m *Manager) Reserve(ctx context.Context, input ReserveInput) (*booking.Booking, error) {
	seatCount := len(input.Passengers)
	if seatCount < 1 {
		return nil, schedule.ErrInvalidSeatCount
	}

	unlock, err := m.acquireScheduleLock(ctx, input.ScheduleID)
	if err != nil {
		m.recordBooking("lock_failed")
		return nil, err
	}
	defer unlock()

	start := time.Now()
	var created *booking.Booking

	err = m.withRetry(ctx, func() error {
		tx, err := m.txManager.Begin(ctx)
		if err != nil {
			return fmt.Errorf("トランザクション開始に失敗: %w", err)
		}
		defer tx.Rollback()

		sched, err := m.scheduleRepo.GetByIDForUpdate(ctx, tx, input.ScheduleID)
		if err != nil {
			if errors.Is(err, schedule.ErrScheduleNotFound) {
				return retry.Permanent(err)
			}
			return err
		}

		if err := sched.CheckInvariant(); err != nil {
			m.logInvariantViolation(sched, "reserve")
			return retry.Permanent(err)
		}

		if !sched.CanReserve(seatCount) {
			return retry.Permanent(&schedule.InsufficientSeatsError{
				Available: sched.AvailableSeats,
				Requested: seatCount,
			})
		}

		totalAmount := sched.BaseFare * seatCount
		b := booking.NewBooking(input.Reference, input.UserID, input.ScheduleID,
			input.Passengers, totalAmount, input.JourneyFrom, input.JourneyTo)
		if err := b.Validate(); err != nil {
			return retry.Permanent(err)
		}

		if err := m.scheduleRepo.AdjustSeats(ctx, tx, input.ScheduleID, -seatCount); err != nil {
			if errors.Is(err, schedule.ErrCapacityInvariantViolated) {
				m.logInvariantViolation(sched, "reserve")
				return retry.Permanent(err)
			}
			return err
		}

		if err := m.bookingRepo.Create(ctx, tx, b); err != nil {
			if errors.Is(err, booking.ErrReferenceDuplicate) {
				return retry.Permanent(err)
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("コミットに失敗: %w", err)
		}
		created = b
		return nil
	})

	m.observeLockDuration("reserve", start)
	if err != nil {
		m.recordBooking(reserveStatus(err))
		return nil, err
	}
	m.recordBooking("success")
	return created, nil
}

// Release は予約をキャンセルし、座席を在庫に戻す
//
// 既にキャンセル済みの予約に対しては ErrBookingAlreadyCancelled を返し、
// 在庫は変更されない（同じ予約の解放が二重に計上されることはない）
func (m *Manager) Release(ctx context.Context, bookingID string) (*booking.Booking, error) {
	// ロックキーの決定のためにスケジュールIDを先に読む
	// 状態の確認と更新は後続のトランザクション内のロック下で改めて行う
	existing, err := m.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		m.recordCancellation(releaseStatus(err))
		return nil, err
	}

	unlock, err := m.acquireScheduleLock(ctx, existing.ScheduleID)
	if err != nil {
		m.recordCancellation("error")
		return nil, err
	}
	defer unlock()

	start := time.Now()
	var released *booking.Booking

	err = m.withRetry(ctx, func() error {
		tx, err := m.txManager.Begin(ctx)
		if err != nil {
			return fmt.Errorf("トランザクション開始に失敗: %w", err)
		}
		defer tx.Rollback()

		b, err := m.bookingRepo.GetByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			if errors.Is(err, booking.ErrBookingNotFound) {
				return retry.Permanent(err)
			}
			return err
		}

		if err := b.Cancel(); err != nil {
			return retry.Permanent(err)
		}

		sched, err := m.scheduleRepo.GetByIDForUpdate(ctx, tx, b.ScheduleID)
		if err != nil {
			if errors.Is(err, schedule.ErrScheduleNotFound) {
				return retry.Permanent(err)
			}
			return err
		}

		if err := sched.CheckInvariant(); err != nil {
			m.logInvariantViolation(sched, "release")
			return retry.Permanent(err)
		}

		// 返却で総座席数を超える場合は AdjustSeats が不変条件違反を返す
		if err := m.scheduleRepo.AdjustSeats(ctx, tx, b.ScheduleID, b.SeatCount); err != nil {
			if errors.Is(err, schedule.ErrCapacityInvariantViolated) {
				m.logInvariantViolation(sched, "release")
				return retry.Permanent(err)
			}
			return err
		}

		if err := m.bookingRepo.UpdateStatus(ctx, tx, b); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("コミットに失敗: %w", err)
		}
		released = b
		return nil
	})

	m.observeLockDuration("release", start)
	if err != nil {
		m.recordCancellation(releaseStatus(err))
		return nil, err
	}
	m.recordCancellation("success")
	return released, nil
}

// acquireScheduleLock はスケジュール単位の分散ロックを取得する
// ロックマネージャーが未設定の場合は何もしない解放関数を返す
func (m *Manager) acquireScheduleLock(ctx context.Context, scheduleID string) (func(), error) {
	if m.lockManager == nil {
		return func() {}, nil
	}
	lock, err := m.lockManager.AcquireLockWithRetry(ctx,
		"schedule:"+scheduleID, m.opts.LockTTL, m.opts.MaxRetries, m.opts.RetryBaseWait)
	if err != nil {
		return nil, fmt.Errorf("スケジュールロックの取得に失敗: %w", err)
	}
	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("スケジュールロックの解放に失敗",
				zap.String("schedule_id", scheduleID), zap.Error(err))
		}
	}, nil
}

func (m *Manager) withRetry(ctx context.Context, fn func() error) error {
	policy := retry.Policy{
		MaxAttempts: m.opts.MaxRetries,
		BaseDelay:   m.opts.RetryBaseWait,
		MaxDelay:    2 * time.Second,
		Multiplier:  2.0,
	}
	attempt := 0
	return retry.Do(ctx, policy, func() error {
		attempt++
		if attempt > 1 && m.metrics != nil {
			m.metrics.InventoryRetriesTotal.Inc()
		}
		return fn()
	})
}

func (m *Manager) logInvariantViolation(s *schedule.Schedule, operation string) {
	logger.Error("空席数の不変条件違反を検出",
		zap.String("schedule_id", s.ID),
		zap.String("operation", operation),
		zap.Int("available_seats", s.AvailableSeats),
		zap.Int("total_capacity", s.TotalCapacity),
	)
}

func (m *Manager) recordBooking(status string) {
	if m.metrics != nil {
		m.metrics.BookingsTotal.WithLabelValues(status).Inc()
	}
}

func (m *Manager) recordCancellation(status string) {
	if m.metrics != nil {
		m.metrics.CancellationsTotal.WithLabelValues(status).Inc()
	}
}

func (m *Manager) observeLockDuration(operation string, start time.Time) {
	if m.metrics != nil {
		m.metrics.SeatLockDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

func reserveStatus(err error) string {
	switch {
	case schedule.IsInsufficientSeats(err):
		return "insufficient_seats"
	case errors.Is(err, schedule.ErrScheduleNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func releaseStatus(err error) string {
	switch {
	case errors.Is(err, booking.ErrBookingAlreadyCancelled):
		return "already_cancelled"
	case errors.Is(err, booking.ErrBookingNotFound):
		return "not_found"
	default:
		return "error"
	}
}
