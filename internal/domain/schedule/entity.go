package schedule

import "time"

// Status は運行スケジュールの状態を表す
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Schedule はある経路の特定日の運行を表す
// TotalCapacity は作成時に固定され、以後変更されない
// AvailableSeats の変更は在庫マネージャーの予約・解放操作のみが行う
type Schedule struct {
	ID             string
	RouteID        string
	ScheduleDate   time.Time
	TotalCapacity  int
	AvailableSeats int
	BaseFare       int // 予約時の運賃スナップショットの元となる1座席あたりの運賃
	Status         Status
	CreatedAt      time.Time
}

// NewSchedule は新しい運行スケジュールを作成する
// 空席数は総座席数と同じ値で初期化される
func NewSchedule(routeID string, scheduleDate time.Time, totalCapacity, baseFare int) *Schedule {
	return &Schedule{
		RouteID:        routeID,
		ScheduleDate:   scheduleDate,
		TotalCapacity:  totalCapacity,
		AvailableSeats: totalCapacity,
		BaseFare:       baseFare,
		Status:         StatusScheduled,
		CreatedAt:      time.Now(),
	}
}

// Validate はスケジュールの検証を行う
func (s *Schedule) Validate() error {
	if s.RouteID == "" {
		return ErrRouteIDRequired
	}
	if s.TotalCapacity <= 0 {
		return ErrInvalidCapacity
	}
	if s.AvailableSeats < 0 || s.AvailableSeats > s.TotalCapacity {
		return ErrCapacityInvariantViolated
	}
	if s.BaseFare < 0 {
		return ErrInvalidBaseFare
	}
	return nil
}

// CheckInvariant は空席数が 0 <= available <= total を満たすかを確認する
// 違反はプロトコル実装の欠陥を意味するため、呼び出し側は回復を試みず即座に失敗させる
func (s *Schedule) CheckInvariant() error {
	if s.AvailableSeats < 0 || s.AvailableSeats > s.TotalCapacity {
		return ErrCapacityInvariantViolated
	}
	return nil
}

// CanReserve は指定座席数を予約可能かを返す
func (s *Schedule) CanReserve(seatCount int) bool {
	return s.AvailableSeats >= seatCount
}
