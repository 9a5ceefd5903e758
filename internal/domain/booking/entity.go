package booking

import "time"

// Status は予約の状態を表す
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Gender は乗客の性別を表す
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Passenger は予約に紐づく乗客を表す
type Passenger struct {
	ID         string
	Name       string
	Age        int
	Gender     Gender
	SeatNumber string
}

// Booking は予約エンティティを表す
// SeatCount は作成時に固定され、以後変更されない
type Booking struct {
	ID          string
	Reference   string // 利用者に提示する予約参照コード
	UserID      string
	ScheduleID  string
	SeatCount   int
	TotalAmount int // 予約時点の運賃スナップショット × 座席数
	Status      Status
	Passengers  []Passenger
	JourneyFrom time.Time
	JourneyTo   time.Time
	BookedAt    time.Time
	UpdatedAt   time.Time
}

// NewBooking は新しい予約を作成する
func NewBooking(reference, userID, scheduleID string, passengers []Passenger, totalAmount int, journeyFrom, journeyTo time.Time) *Booking {
	now := time.Now()
	return &Booking{
		Reference:   reference,
		UserID:      userID,
		ScheduleID:  scheduleID,
		SeatCount:   len(passengers),
		TotalAmount: totalAmount,
		Status:      StatusConfirmed,
		Passengers:  passengers,
		JourneyFrom: journeyFrom,
		JourneyTo:   journeyTo,
		BookedAt:    now,
		UpdatedAt:   now,
	}
}

// IsConfirmed は予約が確定状態かを返す
func (b *Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}

// Cancel は予約をキャンセル状態に遷移させる
// confirmed 以外からの遷移は不正（cancelled は終端状態）
func (b *Booking) Cancel() error {
	if b.Status == StatusCancelled {
		return ErrBookingAlreadyCancelled
	}
	if b.Status != StatusConfirmed {
		return ErrBookingNotConfirmed
	}
	b.Status = StatusCancelled
	b.UpdatedAt = time.Now()
	return nil
}

// Complete は旅程終了後に予約を完了状態にする
func (b *Booking) Complete() error {
	if b.Status != StatusConfirmed {
		return ErrBookingNotConfirmed
	}
	b.Status = StatusCompleted
	b.UpdatedAt = time.Now()
	return nil
}

// Validate は予約の検証を行う
func (b *Booking) Validate() error {
	if b.UserID == "" {
		return ErrUserIDRequired
	}
	if b.ScheduleID == "" {
		return ErrScheduleIDRequired
	}
	if b.SeatCount < 1 {
		return ErrInvalidSeatCount
	}
	if b.TotalAmount < 0 {
		return ErrInvalidTotalAmount
	}
	for _, p := range b.Passengers {
		if p.Name == "" {
			return ErrPassengerNameRequired
		}
		if p.Age <= 0 {
			return ErrInvalidPassengerAge
		}
	}
	return nil
}
