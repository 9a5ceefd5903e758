package refund

import "time"

// Status は返金リクエストの状態を表す
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Request は返金リクエストを表す
// キャンセル時に即時返金せず、管理者の承認を待つ
type Request struct {
	ID              string
	BookingID       string
	UserID          string
	Amount          int
	Status          Status
	AdminID         *string
	RejectionReason *string
	RequestedAt     time.Time
	DecidedAt       *time.Time
}

// NewRequest は新しい返金リクエストを作成する
func NewRequest(bookingID, userID string, amount int) *Request {
	return &Request{
		BookingID:   bookingID,
		UserID:      userID,
		Amount:      amount,
		Status:      StatusPending,
		RequestedAt: time.Now(),
	}
}

// Approve は返金リクエストを承認する
func (r *Request) Approve(adminID string) error {
	if r.Status != StatusPending {
		return ErrRequestNotPending
	}
	now := time.Now()
	r.Status = StatusApproved
	r.AdminID = &adminID
	r.DecidedAt = &now
	return nil
}

// Reject は返金リクエストを却下する
func (r *Request) Reject(adminID, reason string) error {
	if r.Status != StatusPending {
		return ErrRequestNotPending
	}
	now := time.Now()
	r.Status = StatusRejected
	r.AdminID = &adminID
	if reason != "" {
		r.RejectionReason = &reason
	}
	r.DecidedAt = &now
	return nil
}
