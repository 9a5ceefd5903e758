package schedule

import (
	"errors"
	"fmt"
)

// Schedule ドメインのエラー定義
var (
	ErrScheduleNotFound          = errors.New("運行スケジュールが見つかりません")
	ErrRouteIDRequired           = errors.New("経路IDは必須です")
	ErrInvalidCapacity           = errors.New("総座席数は1以上である必要があります")
	ErrInvalidBaseFare           = errors.New("基本運賃は0以上である必要があります")
	ErrInvalidSeatCount          = errors.New("座席数は1以上である必要があります")
	ErrCapacityInvariantViolated = errors.New("空席数が不変条件に違反しています")
)

// InsufficientSeatsError は空席不足を表す
// ビジネスルール上の正常な拒否であり、リトライしてはならない
type InsufficientSeatsError struct {
	Available int
	Requested int
}

func (e *InsufficientSeatsError) Error() string {
	return fmt.Sprintf("空席が不足しています（空席: %d、要求: %d）", e.Available, e.Requested)
}

// IsInsufficientSeats は err が空席不足エラーかを返す
func IsInsufficientSeats(err error) bool {
	var target *InsufficientSeatsError
	return errors.As(err, &target)
}
