package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/20r01a04l8/railway-management-system/internal/domain/alert"
	"github.com/20r01a04l8/railway-management-system/internal/domain/refund"
)

type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) Create(ctx context.Context, a *alert.SystemAlert) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAlertRepository) ListActive(ctx context.Context) ([]*alert.SystemAlert, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*alert.SystemAlert), args.Error(1)
}

func (m *MockAlertRepository) Dismiss(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockAlertPublisher struct {
	mock.Mock
}

func (m *MockAlertPublisher) Publish(ctx context.Context, a *alert.SystemAlert) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAlertPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func pendingRequest() *refund.Request {
	return &refund.Request{
		ID: "refund-1", BookingID: "booking-1", UserID: "user-1",
		Amount: 1500, Status: refund.StatusPending,
	}
}

func TestRefundService_Approve(t *testing.T) {
	ctx := context.Background()

	t.Run("承認すると状態が更新されアラートが発行される", func(t *testing.T) {
		refundRepo := new(MockRefundRepository)
		alertRepo := new(MockAlertRepository)
		publisher := new(MockAlertPublisher)
		svc := NewRefundService(refundRepo, alertRepo, publisher)

		refundRepo.On("GetByID", ctx, "refund-1").Return(pendingRequest(), nil)
		refundRepo.On("Update", ctx, mock.MatchedBy(func(r *refund.Request) bool {
			return r.Status == refund.StatusApproved && r.AdminID != nil && *r.AdminID == "admin-1"
		})).Return(nil)
		alertRepo.On("Create", ctx, mock.MatchedBy(func(a *alert.SystemAlert) bool {
			return a.Type == alert.TypeSuccess
		})).Return(nil)
		publisher.On("Publish", ctx, mock.Anything).Return(nil)

		req, err := svc.Approve(ctx, "refund-1", "admin-1")
		require.NoError(t, err)
		assert.Equal(t, refund.StatusApproved, req.Status)
		alertRepo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("保留中でないリクエストは承認できない", func(t *testing.T) {
		refundRepo := new(MockRefundRepository)
		alertRepo := new(MockAlertRepository)
		svc := NewRefundService(refundRepo, alertRepo, nil)

		decided := pendingRequest()
		decided.Status = refund.StatusApproved
		refundRepo.On("GetByID", ctx, "refund-1").Return(decided, nil)

		_, err := svc.Approve(ctx, "refund-1", "admin-1")
		assert.ErrorIs(t, err, refund.ErrRequestNotPending)
		refundRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("配信先が未設定でも承認は成立する", func(t *testing.T) {
		refundRepo := new(MockRefundRepository)
		alertRepo := new(MockAlertRepository)
		svc := NewRefundService(refundRepo, alertRepo, nil)

		refundRepo.On("GetByID", ctx, "refund-1").Return(pendingRequest(), nil)
		refundRepo.On("Update", ctx, mock.Anything).Return(nil)
		alertRepo.On("Create", ctx, mock.Anything).Return(nil)

		_, err := svc.Approve(ctx, "refund-1", "admin-1")
		assert.NoError(t, err)
	})
}

func TestRefundService_Reject(t *testing.T) {
	ctx := context.Background()

	t.Run("却下理由が保存されアラートが発行される", func(t *testing.T) {
		refundRepo := new(MockRefundRepository)
		alertRepo := new(MockAlertRepository)
		publisher := new(MockAlertPublisher)
		svc := NewRefundService(refundRepo, alertRepo, publisher)

		refundRepo.On("GetByID", ctx, "refund-1").Return(pendingRequest(), nil)
		refundRepo.On("Update", ctx, mock.MatchedBy(func(r *refund.Request) bool {
			return r.Status == refund.StatusRejected &&
				r.RejectionReason != nil && *r.RejectionReason == "規約違反"
		})).Return(nil)
		alertRepo.On("Create", ctx, mock.MatchedBy(func(a *alert.SystemAlert) bool {
			return a.Type == alert.TypeWarning
		})).Return(nil)
		publisher.On("Publish", ctx, mock.Anything).Return(nil)

		req, err := svc.Reject(ctx, "refund-1", "admin-1", "規約違反")
		require.NoError(t, err)
		assert.Equal(t, refund.StatusRejected, req.Status)
	})
}
