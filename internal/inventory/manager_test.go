package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/20r01a04l8/railway-management-system/internal/domain/booking"
	"github.com/20r01a04l8/railway-management-system/internal/domain/schedule"
	"github.com/20r01a04l8/railway-management-system/internal/domain/transaction"
)

// === インメモリストア ===
// FOR UPDATE の直列化をトランザクション単位のミューテックスで模し、
// 変更はコミット時にのみ反映される

type memStore struct {
	mu              sync.Mutex
	schedules       map[string]*schedule.Schedule
	bookings        map[string]*booking.Booking
	seq             int
	failNextCommits int // 注入するコミット失敗の回数
}

func newMemStore() *memStore {
	return &memStore{
		schedules: make(map[string]*schedule.Schedule),
		bookings:  make(map[string]*booking.Booking),
	}
}

func (s *memStore) addSchedule(id string, total, available, fare int) {
	s.schedules[id] = &schedule.Schedule{
		ID: id, RouteID: "route-1", ScheduleDate: time.Now(),
		TotalCapacity: total, AvailableSeats: available,
		BaseFare: fare, Status: schedule.StatusScheduled,
	}
}

type memTx struct {
	store   *memStore
	pending []func()
	done    bool
}

func (s *memStore) Begin(ctx context.Context) (transaction.Tx, error) {
	s.mu.Lock()
	return &memTx{store: s}, nil
}

func (t *memTx) Commit() error {
	if t.done {
		return errors.New("トランザクションは終了済み")
	}
	t.done = true
	defer t.store.mu.Unlock()
	if t.store.failNextCommits > 0 {
		t.store.failNextCommits--
		return errors.New("injected commit failure")
	}
	for _, apply := range t.pending {
		apply()
	}
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.pending = nil
	t.store.mu.Unlock()
	return nil
}

type memScheduleRepo struct{ store *memStore }

func (r *memScheduleRepo) Create(ctx context.Context, s *schedule.Schedule) error { return nil }

func (r *memScheduleRepo) GetByID(ctx context.Context, id string) (*schedule.Schedule, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.schedules[id]
	if !ok {
		return nil, schedule.ErrScheduleNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *memScheduleRepo) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*schedule.Schedule, error) {
	s, ok := r.store.schedules[id]
	if !ok {
		return nil, schedule.ErrScheduleNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *memScheduleRepo) AdjustSeats(ctx context.Context, tx transaction.Tx, id string, delta int) error {
	mtx := tx.(*memTx)
	s, ok := r.store.schedules[id]
	if !ok {
		return schedule.ErrScheduleNotFound
	}
	next := s.AvailableSeats + delta
	if next < 0 || next > s.TotalCapacity {
		return schedule.ErrCapacityInvariantViolated
	}
	mtx.pending = append(mtx.pending, func() { s.AvailableSeats = next })
	return nil
}

func (r *memScheduleRepo) ExistsForRouteAndDate(ctx context.Context, routeID string, date time.Time) (bool, error) {
	return false, nil
}

func (r *memScheduleRepo) Search(ctx context.Context, criteria schedule.SearchCriteria) ([]*schedule.Schedule, error) {
	return nil, nil
}

type memBookingRepo struct{ store *memStore }

func (r *memBookingRepo) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	mtx := tx.(*memTx)
	r.store.seq++
	b.ID = fmt.Sprintf("booking-%d", r.store.seq)
	copied := *b
	mtx.pending = append(mtx.pending, func() { r.store.bookings[copied.ID] = &copied })
	return nil
}

func (r *memBookingRepo) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *memBookingRepo) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*booking.Booking, error) {
	b, ok := r.store.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *memBookingRepo) GetByReference(ctx context.Context, reference string) (*booking.Booking, error) {
	return nil, booking.ErrBookingNotFound
}

func (r *memBookingRepo) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	return nil, nil
}

func (r *memBookingRepo) UpdateStatus(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	mtx := tx.(*memTx)
	copied := *b
	mtx.pending = append(mtx.pending, func() { r.store.bookings[copied.ID] = &copied })
	return nil
}

func (r *memBookingRepo) UpdatePassengers(ctx context.Context, b *booking.Booking) error { return nil }

func (r *memBookingRepo) GetConfirmedJourneyEndedBefore(ctx context.Context, before time.Time) ([]*booking.Booking, error) {
	return nil, nil
}

var (
	_ schedule.Repository = (*memScheduleRepo)(nil)
	_ booking.Repository  = (*memBookingRepo)(nil)
)

func newTestManager(store *memStore) *Manager {
	return NewManager(store, &memScheduleRepo{store: store}, &memBookingRepo{store: store}, nil, nil, Options{
		LockTTL:       time.Second,
		MaxRetries:    3,
		RetryBaseWait: time.Millisecond,
	})
}

func passengers(n int) []booking.Passenger {
	ps := make([]booking.Passenger, n)
	for i := range ps {
		ps[i] = booking.Passenger{Name: fmt.Sprintf("乗客%d", i+1), Age: 30, Gender: booking.GenderOther}
	}
	return ps
}

func reserveInput(scheduleID, ref string, seats int) ReserveInput {
	return ReserveInput{
		UserID:      "user-1",
		ScheduleID:  scheduleID,
		Reference:   ref,
		Passengers:  passengers(seats),
		JourneyFrom: time.Now().Add(24 * time.Hour),
		JourneyTo:   time.Now().Add(30 * time.Hour),
	}
}

func TestManager_Reserve(t *testing.T) {
	ctx := context.Background()

	t.Run("空席があれば予約が成立し空席数が減る", func(t *testing.T) {
		store := newMemStore()
		store.addSchedule("sched-1", 10, 10, 500)
		mgr := newTestManager(store)

		b, err := mgr.Reserve(ctx, reserveInput("sched-1", "REF00001", 3))
		require.NoError(t, err)
		assert.Equal(t, 3, b.SeatCount)
		assert.Equal(t, booking.StatusConfirmed, b.Status)
		assert.Equal(t, 1500, b.TotalAmount) // 500 × 3
		assert.Equal(t, 7, store.schedules["sched-1"].AvailableSeats)
	})

	t.Run("空席不足は型付きエラーを返し在庫を変更しない", func(t *testing.T) {
		store := newMemStore()
		store.addSchedule("sched-1", 10, 2, 500)
		mgr := newTestManager(store)

		_, err := mgr.Reserve(ctx, reserveInput("sched-1", "REF00002", 3))
		require.Error(t, err)

		var insufficient *schedule.InsufficientSeatsError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, 2, insufficient.Available)
		assert.Equal(t, 3, insufficient.Requested)
		assert.Equal(t, 2, store.schedules["sched-1"].AvailableSeats)
		assert.Empty(t, store.bookings)
	})

	t.Run("存在しないスケジュールはErrScheduleNotFound", func(t *testing.T) {
		store := newMemStore()
		mgr := newTestManager(store)

		_, err := mgr.Reserve(ctx, reserveInput("missing", "REF00003", 1))
		assert.ErrorIs(t, err, schedule.ErrScheduleNotFound)
	})

	t.Run("座席数0はエラー", func(t *testing.T) {
		store := newMemStore()
		store.addSchedule("sched-1", 10, 10, 500)
		mgr := newTestManager(store)

		_, err := mgr.Reserve(ctx, reserveInput("sched-1", "REF00004", 0))
		assert.ErrorIs(t, err, schedule.ErrInvalidSeatCount)
	})

	t.Run("不変条件違反を検出したら即座に失敗する", func(t *testing.T) {
		store := newMemStore()
		store.addSchedule("sched-1", 10, 15, 500) // available > total の破損状態
		mgr := newTestManager(store)

		_, err := mgr.Reserve(ctx, reserveInput("sched-1", "REF00005", 1))
		assert.ErrorIs(t, err, schedule.ErrCapacityInvariantViolated)
		assert.Empty(t, store.bookings)
	})

	t.Run("コミット失敗時は予約も空席数も変更されない", func(t *testing.T) {
		store := newMemStore()
		store.addSchedule("sched-1", 10, 10, 500)
		store.failNextCommits = 3 // 全試行を失敗させる
		mgr := newTestManager(store)

		_, err := mgr.Reserve(ctx, reserveInput("sched-1", "REF00006", 2))
		require.Error(t, err)
		assert.Equal(t, 10, store.schedules["sched-1"].AvailableSeats)
		assert.Empty(t, store.bookings)
	})

	t.Run("一時的なコミット失敗はリトライで回復する", func(t *testing.T) {
		store := newMemStore()
		store.addSchedule("sched-1", 10, 10, 500)
		store.failNextCommits = 1
		mgr := newTestManager(store)

		b, err := mgr.Reserve(ctx, reserveInput("sched-1", "REF00007", 2))
		require.NoError(t, err)
		assert.Equal(t, 8, store.schedules["sched-1"].AvailableSeats)
		assert.Equal(t, booking.StatusConfirmed, store.bookings[b.ID].Status)
	})
}

func TestManager_Reserve_Concurrent(t *testing.T) {
	// 容量10に対して15件の並行予約（各1席）：ちょうど10件だけ成功する
	store := newMemStore()
	store.addSchedule("sched-1", 10, 10, 500)
	mgr := newTestManager(store)

	const attempts = 15
	var success, insufficient int32
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := mgr.Reserve(context.Background(), reserveInput("sched-1", fmt.Sprintf("CONC%04d", n), 1))
			switch {
			case err == nil:
				atomic.AddInt32(&success, 1)
			case schedule.IsInsufficientSeats(err):
				atomic.AddInt32(&insufficient, 1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(10), success, "成功はちょうど10件")
	assert.Equal(t, int32(5), insufficient, "残り5件は空席不足")
	assert.Equal(t, 0, store.schedules["sched-1"].AvailableSeats)

	// 保存則：空席数 + 確定予約の座席数 == 総座席数
	reserved := 0
	for _, b := range store.bookings {
		if b.Status == booking.StatusConfirmed {
			reserved += b.SeatCount
		}
	}
	assert.Equal(t, 10, reserved)
}

func TestManager_Release(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Manager, *memStore, *booking.Booking) {
		store := newMemStore()
		store.addSchedule("sched-1", 10, 10, 500)
		mgr := newTestManager(store)
		b, err := mgr.Reserve(ctx, reserveInput("sched-1", "RELEASE1", 4))
		require.NoError(t, err)
		return mgr, store, b
	}

	t.Run("解放で座席が在庫に戻る", func(t *testing.T) {
		mgr, store, b := setup(t)

		released, err := mgr.Release(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCancelled, released.Status)
		assert.Equal(t, 10, store.schedules["sched-1"].AvailableSeats)
	})

	t.Run("二重解放は冪等safe：2回目はエラーで在庫は変わらない", func(t *testing.T) {
		mgr, store, b := setup(t)

		_, err := mgr.Release(ctx, b.ID)
		require.NoError(t, err)

		_, err = mgr.Release(ctx, b.ID)
		assert.ErrorIs(t, err, booking.ErrBookingAlreadyCancelled)
		assert.Equal(t, 10, store.schedules["sched-1"].AvailableSeats)
	})

	t.Run("存在しない予約はErrBookingNotFound", func(t *testing.T) {
		mgr, _, _ := setup(t)

		_, err := mgr.Release(ctx, "missing")
		assert.ErrorIs(t, err, booking.ErrBookingNotFound)
	})

	t.Run("同一予約の並行解放でも座席は一度しか戻らない", func(t *testing.T) {
		mgr, store, b := setup(t)

		const attempts = 5
		var success int32
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := mgr.Release(context.Background(), b.ID); err == nil {
					atomic.AddInt32(&success, 1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), success, "成功は1件だけ")
		assert.Equal(t, 10, store.schedules["sched-1"].AvailableSeats)
	})

	t.Run("コミット失敗時は予約状態も在庫も変わらない", func(t *testing.T) {
		mgr, store, b := setup(t)
		store.failNextCommits = 3

		_, err := mgr.Release(ctx, b.ID)
		require.Error(t, err)
		assert.Equal(t, booking.StatusConfirmed, store.bookings[b.ID].Status)
		assert.Equal(t, 6, store.schedules["sched-1"].AvailableSeats)
	})
}

func TestManager_Scenario(t *testing.T) {
	// 容量50のスケジュールに対して予約と解放を織り交ぜ、
	// どの時点でも保存則が崩れないことを確認する
	ctx := context.Background()
	store := newMemStore()
	store.addSchedule("sched-50", 50, 50, 1000)
	mgr := newTestManager(store)

	checkConservation := func(t *testing.T) {
		t.Helper()
		reserved := 0
		for _, b := range store.bookings {
			if b.Status == booking.StatusConfirmed {
				reserved += b.SeatCount
			}
		}
		s := store.schedules["sched-50"]
		assert.Equal(t, s.TotalCapacity, s.AvailableSeats+reserved)
		assert.GreaterOrEqual(t, s.AvailableSeats, 0)
	}

	var ids []string
	for i := 0; i < 10; i++ {
		b, err := mgr.Reserve(ctx, reserveInput("sched-50", fmt.Sprintf("SCEN%04d", i), 4))
		require.NoError(t, err)
		ids = append(ids, b.ID)
		checkConservation(t)
	}
	assert.Equal(t, 10, store.schedules["sched-50"].AvailableSeats)

	// 残り10席に対して11席の要求は拒否される
	_, err := mgr.Reserve(ctx, reserveInput("sched-50", "SCENOVER", 11))
	require.True(t, schedule.IsInsufficientSeats(err))
	checkConservation(t)

	// 半分解放して再予約
	for i := 0; i < 5; i++ {
		_, err := mgr.Release(ctx, ids[i])
		require.NoError(t, err)
		checkConservation(t)
	}
	assert.Equal(t, 30, store.schedules["sched-50"].AvailableSeats)

	b, err := mgr.Reserve(ctx, reserveInput("sched-50", "SCENLAST", 30))
	require.NoError(t, err)
	assert.Equal(t, 30, b.SeatCount)
	assert.Equal(t, 0, store.schedules["sched-50"].AvailableSeats)
	checkConservation(t)
}

func TestManager_ReserveReleaseSequence(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addSchedule("sched-seq", 50, 50, 1000)
	mgr := newTestManager(store)

	first, err := mgr.Reserve(ctx, reserveInput("sched-seq", "SEQFIRST", 3))
	require.NoError(t, err)
	assert.Equal(t, 47, store.schedules["sched-seq"].AvailableSeats)

	_, err = mgr.Reserve(ctx, reserveInput("sched-seq", "SEQBULK1", 50))
	var insufficient *schedule.InsufficientSeatsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 47, insufficient.Available)
	assert.Equal(t, 50, insufficient.Requested)
	assert.Equal(t, 47, store.schedules["sched-seq"].AvailableSeats)

	_, err = mgr.Release(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, store.schedules["sched-seq"].AvailableSeats)

	_, err = mgr.Release(ctx, first.ID)
	assert.ErrorIs(t, err, booking.ErrBookingAlreadyCancelled)
	assert.Equal(t, 50, store.schedules["sched-seq"].AvailableSeats)
}
