package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/20r01a04l8/railway-management-system/internal/domain/alert"
	"github.com/20r01a04l8/railway-management-system/internal/domain/refund"
	"github.com/20r01a04l8/railway-management-system/internal/infrastructure/rabbitmq"
	"github.com/20r01a04l8/railway-management-system/internal/pkg/logger"
)

// RefundService は返金リクエストの承認フローを提供する
type RefundService struct {
	refundRepo refund.Repository
	alertRepo  alert.Repository
	publisher  rabbitmq.AlertPublisherInterface // nil の場合は配信しない
}

// NewRefundService は新しいRefundServiceを作成する
func NewRefundService(refundRepo refund.Repository, alertRepo alert.Repository, publisher rabbitmq.AlertPublisherInterface) *RefundService {
	return &RefundService{
		refundRepo: refundRepo,
		alertRepo:  alertRepo,
		publisher:  publisher,
	}
}

// ListPending は保留中の返金リクエスト一覧を取得する
func (s *RefundService) ListPending(ctx context.Context) ([]*refund.Request, error) {
	return s.refundRepo.ListPending(ctx)
}

// Approve は返金リクエストを承認し、アラートを発行する
func (s *RefundService) Approve(ctx context.Context, requestID, adminID string) (*refund.Request, error) {
	req, err := s.refundRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := req.Approve(adminID); err != nil {
		return nil, err
	}
	if err := s.refundRepo.Update(ctx, req); err != nil {
		return nil, err
	}

	s.emitAlert(ctx, alert.New(alert.TypeSuccess, "返金を承認しました",
		fmt.Sprintf("予約 %s の返金（%d）が承認されました", req.BookingID, req.Amount),
		"check-circle"))
	return req, nil
}

// Reject は返金リクエストを却下し、アラートを発行する
func (s *RefundService) Reject(ctx context.Context, requestID, adminID, reason string) (*refund.Request, error) {
	req, err := s.refundRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := req.Reject(adminID, reason); err != nil {
		return nil, err
	}
	if err := s.refundRepo.Update(ctx, req); err != nil {
		return nil, err
	}

	s.emitAlert(ctx, alert.New(alert.TypeWarning, "返金を却下しました",
		fmt.Sprintf("予約 %s の返金が却下されました", req.BookingID),
		"x-circle"))
	return req, nil
}

// emitAlert はアラートを永続化し、設定されていればブローカーへ配信する
// どちらの失敗も承認フロー自体は失敗させない
func (s *RefundService) emitAlert(ctx context.Context, a *alert.SystemAlert) {
	if err := s.alertRepo.Create(ctx, a); err != nil {
		logger.Error("アラートの保存に失敗", zap.String("title", a.Title), zap.Error(err))
		return
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, a); err != nil {
		logger.Warn("アラートの配信に失敗", zap.String("title", a.Title), zap.Error(err))
	}
}
