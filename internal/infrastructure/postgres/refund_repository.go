package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/20r01a04l8/railway-management-system/internal/domain/refund"
)

type refundRow struct {
	ID              string     `db:"id"`
	BookingID       string     `db:"booking_id"`
	UserID          string     `db:"user_id"`
	Amount          int        `db:"amount"`
	Status          string     `db:"status"`
	AdminID         *string    `db:"admin_id"`
	RejectionReason *string    `db:"rejection_reason"`
	RequestedAt     time.Time  `db:"requested_at"`
	DecidedAt       *time.Time `db:"decided_at"`
}

func (r *refundRow) toEntity() *refund.Request {
	return &refund.Request{
		ID: r.ID, BookingID: r.BookingID, UserID: r.UserID, Amount: r.Amount,
		Status: refund.Status(r.Status), AdminID: r.AdminID,
		RejectionReason: r.RejectionReason, RequestedAt: r.RequestedAt, DecidedAt: r.DecidedAt,
	}
}

// RefundRepository は返金リクエストリポジトリのPostgreSQL実装
type RefundRepository struct{ db *sqlx.DB }

func NewRefundRepository(db *sqlx.DB) *RefundRepository { return &RefundRepository{db: db} }

func (r *RefundRepository) Create(ctx context.Context, req *refund.Request) error {
	query := `INSERT INTO refund_requests (booking_id, user_id, amount, status, requested_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		req.BookingID, req.UserID, req.Amount, string(req.Status), req.RequestedAt,
	).Scan(&req.ID)
	if err != nil {
		return fmt.Errorf("返金リクエスト作成に失敗: %w", err)
	}
	return nil
}

func (r *RefundRepository) GetByID(ctx context.Context, id string) (*refund.Request, error) {
	var row refundRow
	query := `SELECT id, booking_id, user_id, amount, status, admin_id, rejection_reason, requested_at, decided_at
		FROM refund_requests WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, refund.ErrRequestNotFound
		}
		return nil, fmt.Errorf("返金リクエスト取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *RefundRepository) ListPending(ctx context.Context) ([]*refund.Request, error) {
	var rows []refundRow
	query := `SELECT id, booking_id, user_id, amount, status, admin_id, rejection_reason, requested_at, decided_at
		FROM refund_requests WHERE status = 'pending' ORDER BY requested_at`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("返金リクエスト一覧取得に失敗: %w", err)
	}
	requests := make([]*refund.Request, len(rows))
	for i, row := range rows {
		requests[i] = row.toEntity()
	}
	return requests, nil
}

// Update は保留中のリクエストのみ更新する
// 既に確定済みのリクエストは ErrRequestNotPending を返す
func (r *RefundRepository) Update(ctx context.Context, req *refund.Request) error {
	query := `UPDATE refund_requests
		SET status = $1, admin_id = $2, rejection_reason = $3, decided_at = $4
		WHERE id = $5 AND status = 'pending'`
	result, err := r.db.ExecContext(ctx, query,
		string(req.Status), req.AdminID, req.RejectionReason, req.DecidedAt, req.ID)
	if err != nil {
		return fmt.Errorf("返金リクエスト更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return refund.ErrRequestNotPending
	}
	return nil
}

var _ refund.Repository = (*RefundRepository)(nil)
