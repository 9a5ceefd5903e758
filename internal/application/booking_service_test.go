package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/20r01a04l8/railway-management-system/internal/domain/booking"
	"github.com/20r01a04l8/railway-management-system/internal/domain/refund"
	"github.com/20r01a04l8/railway-management-system/internal/domain/schedule"
	"github.com/20r01a04l8/railway-management-system/internal/domain/train"
	"github.com/20r01a04l8/railway-management-system/internal/domain/transaction"
	"github.com/20r01a04l8/railway-management-system/internal/inventory"
)

// === Mock implementations ===

type MockInventoryManager struct {
	mock.Mock
}

func (m *MockInventoryManager) Reserve(ctx context.Context, input inventory.ReserveInput) (*booking.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockInventoryManager) Release(ctx context.Context, bookingID string) (*booking.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	args := m.Called(ctx, tx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*booking.Booking, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByReference(ctx context.Context, reference string) (*booking.Booking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	args := m.Called(ctx, tx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) UpdatePassengers(ctx context.Context, b *booking.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) GetConfirmedJourneyEndedBefore(ctx context.Context, before time.Time) ([]*booking.Booking, error) {
	args := m.Called(ctx, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) Create(ctx context.Context, s *schedule.Schedule) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockScheduleRepository) GetByID(ctx context.Context, id string) (*schedule.Schedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schedule.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*schedule.Schedule, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schedule.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) AdjustSeats(ctx context.Context, tx transaction.Tx, id string, delta int) error {
	args := m.Called(ctx, tx, id, delta)
	return args.Error(0)
}

func (m *MockScheduleRepository) ExistsForRouteAndDate(ctx context.Context, routeID string, date time.Time) (bool, error) {
	args := m.Called(ctx, routeID, date)
	return args.Bool(0), args.Error(1)
}

func (m *MockScheduleRepository) Search(ctx context.Context, criteria schedule.SearchCriteria) ([]*schedule.Schedule, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*schedule.Schedule), args.Error(1)
}

type MockRouteRepository struct {
	mock.Mock
}

func (m *MockRouteRepository) Create(ctx context.Context, r *train.Route) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRouteRepository) GetByID(ctx context.Context, id string) (*train.Route, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*train.Route), args.Error(1)
}

func (m *MockRouteRepository) ListActive(ctx context.Context) ([]*train.Route, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*train.Route), args.Error(1)
}

func (m *MockRouteRepository) ExistsActive(ctx context.Context, trainID, sourceStationID, destStationID string) (bool, error) {
	args := m.Called(ctx, trainID, sourceStationID, destStationID)
	return args.Bool(0), args.Error(1)
}

type MockRefundRepository struct {
	mock.Mock
}

func (m *MockRefundRepository) Create(ctx context.Context, req *refund.Request) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockRefundRepository) GetByID(ctx context.Context, id string) (*refund.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*refund.Request), args.Error(1)
}

func (m *MockRefundRepository) ListPending(ctx context.Context) ([]*refund.Request, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*refund.Request), args.Error(1)
}

func (m *MockRefundRepository) Update(ctx context.Context, req *refund.Request) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// === Tests ===

type bookingServiceMocks struct {
	inventoryMgr *MockInventoryManager
	bookingRepo  *MockBookingRepository
	scheduleRepo *MockScheduleRepository
	routeRepo    *MockRouteRepository
	refundRepo   *MockRefundRepository
	txManager    *MockTxManager
}

func newBookingService() (*BookingService, *bookingServiceMocks) {
	m := &bookingServiceMocks{
		inventoryMgr: new(MockInventoryManager),
		bookingRepo:  new(MockBookingRepository),
		scheduleRepo: new(MockScheduleRepository),
		routeRepo:    new(MockRouteRepository),
		refundRepo:   new(MockRefundRepository),
		txManager:    new(MockTxManager),
	}
	svc := NewBookingService(m.inventoryMgr, m.bookingRepo, m.scheduleRepo, m.routeRepo, m.refundRepo, m.txManager, nil)
	return svc, m
}

func testSchedule() *schedule.Schedule {
	return &schedule.Schedule{
		ID: "sched-1", RouteID: "route-1",
		ScheduleDate:  time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		TotalCapacity: 100, AvailableSeats: 50, BaseFare: 750,
		Status: schedule.StatusScheduled,
	}
}

func testRoute() *train.Route {
	return &train.Route{
		ID: "route-1", TrainID: "train-1",
		SourceStationID: "st-1", DestinationStationID: "st-2",
		DepartureTime: "08:30", ArrivalTime: "20:15",
		DistanceKM: 1200, BaseFare: 750, IsActive: true,
	}
}

func TestBookingService_CreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("参照コードと旅程を付与して在庫マネージャーへ委譲する", func(t *testing.T) {
		svc, m := newBookingService()
		m.scheduleRepo.On("GetByID", ctx, "sched-1").Return(testSchedule(), nil)
		m.routeRepo.On("GetByID", ctx, "route-1").Return(testRoute(), nil)

		var captured inventory.ReserveInput
		m.inventoryMgr.On("Reserve", ctx, mock.AnythingOfType("inventory.ReserveInput")).
			Run(func(args mock.Arguments) {
				captured = args.Get(1).(inventory.ReserveInput)
			}).
			Return(&booking.Booking{ID: "booking-1", ScheduleID: "sched-1", Status: booking.StatusConfirmed}, nil)

		b, err := svc.CreateBooking(ctx, CreateBookingInput{
			UserID:     "user-1",
			ScheduleID: "sched-1",
			Passengers: []booking.Passenger{{Name: "山田太郎", Age: 40, Gender: booking.GenderMale}},
		})
		require.NoError(t, err)
		assert.Equal(t, "booking-1", b.ID)

		assert.Len(t, captured.Reference, 8)
		assert.Equal(t, "user-1", captured.UserID)
		// 1200km → 3日行程：9/1 08:30 発、9/3 20:15 着
		assert.Equal(t, time.Date(2026, 9, 1, 8, 30, 0, 0, time.UTC), captured.JourneyFrom)
		assert.Equal(t, time.Date(2026, 9, 3, 20, 15, 0, 0, time.UTC), captured.JourneyTo)
	})

	t.Run("乗客なしはエラー", func(t *testing.T) {
		svc, _ := newBookingService()
		_, err := svc.CreateBooking(ctx, CreateBookingInput{UserID: "user-1", ScheduleID: "sched-1"})
		assert.ErrorIs(t, err, booking.ErrInvalidSeatCount)
	})

	t.Run("スケジュールが存在しない場合は在庫マネージャーを呼ばない", func(t *testing.T) {
		svc, m := newBookingService()
		m.scheduleRepo.On("GetByID", ctx, "missing").Return(nil, schedule.ErrScheduleNotFound)

		_, err := svc.CreateBooking(ctx, CreateBookingInput{
			UserID:     "user-1",
			ScheduleID: "missing",
			Passengers: []booking.Passenger{{Name: "山田太郎", Age: 40, Gender: booking.GenderMale}},
		})
		assert.ErrorIs(t, err, schedule.ErrScheduleNotFound)
		m.inventoryMgr.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything)
	})

	t.Run("空席不足エラーはそのまま伝播する", func(t *testing.T) {
		svc, m := newBookingService()
		m.scheduleRepo.On("GetByID", ctx, "sched-1").Return(testSchedule(), nil)
		m.routeRepo.On("GetByID", ctx, "route-1").Return(testRoute(), nil)
		m.inventoryMgr.On("Reserve", ctx, mock.Anything).
			Return(nil, &schedule.InsufficientSeatsError{Available: 1, Requested: 2})

		_, err := svc.CreateBooking(ctx, CreateBookingInput{
			UserID:     "user-1",
			ScheduleID: "sched-1",
			Passengers: []booking.Passenger{{Name: "A", Age: 20, Gender: booking.GenderOther}, {Name: "B", Age: 21, Gender: booking.GenderOther}},
		})
		assert.True(t, schedule.IsInsufficientSeats(err))
	})
}

func TestBookingService_CancelBooking(t *testing.T) {
	ctx := context.Background()

	confirmed := func() *booking.Booking {
		return &booking.Booking{
			ID: "booking-1", UserID: "user-1", ScheduleID: "sched-1",
			SeatCount: 2, TotalAmount: 1500, Status: booking.StatusConfirmed,
		}
	}

	t.Run("キャンセル成立時に保留中の返金リクエストを作成する", func(t *testing.T) {
		svc, m := newBookingService()
		m.bookingRepo.On("GetByID", ctx, "booking-1").Return(confirmed(), nil)

		cancelled := confirmed()
		cancelled.Status = booking.StatusCancelled
		m.inventoryMgr.On("Release", ctx, "booking-1").Return(cancelled, nil)

		m.refundRepo.On("Create", ctx, mock.MatchedBy(func(req *refund.Request) bool {
			return req.BookingID == "booking-1" && req.Amount == 1500 && req.Status == refund.StatusPending
		})).Return(nil)

		b, err := svc.CancelBooking(ctx, "booking-1", "user-1", false)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCancelled, b.Status)
		m.refundRepo.AssertExpectations(t)
	})

	t.Run("他人の予約はキャンセルできない", func(t *testing.T) {
		svc, m := newBookingService()
		m.bookingRepo.On("GetByID", ctx, "booking-1").Return(confirmed(), nil)

		_, err := svc.CancelBooking(ctx, "booking-1", "other-user", false)
		assert.ErrorIs(t, err, booking.ErrBookingNotOwned)
		m.inventoryMgr.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
	})

	t.Run("管理者は他人の予約をキャンセルできる", func(t *testing.T) {
		svc, m := newBookingService()
		m.bookingRepo.On("GetByID", ctx, "booking-1").Return(confirmed(), nil)

		cancelled := confirmed()
		cancelled.Status = booking.StatusCancelled
		m.inventoryMgr.On("Release", ctx, "booking-1").Return(cancelled, nil)
		m.refundRepo.On("Create", ctx, mock.Anything).Return(nil)

		_, err := svc.CancelBooking(ctx, "booking-1", "admin-1", true)
		assert.NoError(t, err)
	})

	t.Run("キャンセル済みエラー時は返金リクエストを作成しない", func(t *testing.T) {
		svc, m := newBookingService()
		m.bookingRepo.On("GetByID", ctx, "booking-1").Return(confirmed(), nil)
		m.inventoryMgr.On("Release", ctx, "booking-1").Return(nil, booking.ErrBookingAlreadyCancelled)

		_, err := svc.CancelBooking(ctx, "booking-1", "user-1", false)
		assert.ErrorIs(t, err, booking.ErrBookingAlreadyCancelled)
		m.refundRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestBookingService_UpdatePassengers(t *testing.T) {
	ctx := context.Background()

	base := func() *booking.Booking {
		return &booking.Booking{
			ID: "booking-1", UserID: "user-1", ScheduleID: "sched-1",
			SeatCount: 2, Status: booking.StatusConfirmed,
			Passengers: []booking.Passenger{
				{Name: "A", Age: 20, Gender: booking.GenderOther},
				{Name: "B", Age: 21, Gender: booking.GenderOther},
			},
		}
	}

	t.Run("人数が一致すれば更新できる", func(t *testing.T) {
		svc, m := newBookingService()
		m.bookingRepo.On("GetByID", ctx, "booking-1").Return(base(), nil)
		m.bookingRepo.On("UpdatePassengers", ctx, mock.Anything).Return(nil)

		b, err := svc.UpdatePassengers(ctx, "booking-1", "user-1", []booking.Passenger{
			{Name: "C", Age: 30, Gender: booking.GenderFemale},
			{Name: "D", Age: 31, Gender: booking.GenderMale},
		})
		require.NoError(t, err)
		assert.Equal(t, "C", b.Passengers[0].Name)
	})

	t.Run("人数の変更は拒否される", func(t *testing.T) {
		svc, m := newBookingService()
		m.bookingRepo.On("GetByID", ctx, "booking-1").Return(base(), nil)

		_, err := svc.UpdatePassengers(ctx, "booking-1", "user-1", []booking.Passenger{
			{Name: "C", Age: 30, Gender: booking.GenderFemale},
		})
		assert.ErrorIs(t, err, booking.ErrPassengerCountMismatch)
	})

	t.Run("キャンセル済み予約は更新できない", func(t *testing.T) {
		svc, m := newBookingService()
		b := base()
		b.Status = booking.StatusCancelled
		m.bookingRepo.On("GetByID", ctx, "booking-1").Return(b, nil)

		_, err := svc.UpdatePassengers(ctx, "booking-1", "user-1", b.Passengers)
		assert.ErrorIs(t, err, booking.ErrBookingNotConfirmed)
	})
}

func TestBookingService_CompleteEndedJourneys(t *testing.T) {
	ctx := context.Background()

	t.Run("旅程が終了した確定予約を完了にする", func(t *testing.T) {
		svc, m := newBookingService()
		ended := []*booking.Booking{
			{ID: "b-1", Status: booking.StatusConfirmed},
			{ID: "b-2", Status: booking.StatusConfirmed},
		}
		m.bookingRepo.On("GetConfirmedJourneyEndedBefore", ctx, mock.AnythingOfType("time.Time")).Return(ended, nil)

		tx := new(MockTx)
		tx.On("Commit").Return(nil)
		m.txManager.On("Begin", ctx).Return(tx, nil)
		m.bookingRepo.On("UpdateStatus", ctx, tx, mock.MatchedBy(func(b *booking.Booking) bool {
			return b.Status == booking.StatusCompleted
		})).Return(nil)

		count, err := svc.CompleteEndedJourneys(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("対象がなければ何もしない", func(t *testing.T) {
		svc, m := newBookingService()
		m.bookingRepo.On("GetConfirmedJourneyEndedBefore", ctx, mock.Anything).Return([]*booking.Booking{}, nil)

		count, err := svc.CompleteEndedJourneys(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
		m.txManager.AssertNotCalled(t, "Begin", mock.Anything)
	})
}

func TestGenerateReference(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref, err := generateReference()
		require.NoError(t, err)
		assert.Len(t, ref, 8)
		for _, ch := range ref {
			assert.Contains(t, referenceCharset, string(ch))
		}
		seen[ref] = true
	}
	assert.Greater(t, len(seen), 90, "ほぼ毎回異なるコードが生成される")
}

func TestJourneyWindow(t *testing.T) {
	t.Run("日帰り行程で到着が出発より前なら翌日着とみなす", func(t *testing.T) {
		sched := testSchedule()
		route := testRoute()
		route.DistanceKM = 400 // 1日行程
		route.DepartureTime = "23:00"
		route.ArrivalTime = "05:30"

		from, to := journeyWindow(sched, route)
		assert.True(t, to.After(from))
		assert.Equal(t, time.Date(2026, 9, 2, 5, 30, 0, 0, time.UTC), to)
	})
}
