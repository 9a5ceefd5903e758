package booking

import "errors"

// Booking ドメインのエラー定義
var (
	ErrBookingNotFound         = errors.New("予約が見つかりません")
	ErrBookingAlreadyCancelled = errors.New("予約は既にキャンセルされています")
	ErrBookingNotConfirmed     = errors.New("予約は確定状態ではありません")
	ErrBookingNotOwned         = errors.New("他のユーザーの予約は操作できません")
	ErrUserIDRequired          = errors.New("ユーザーIDは必須です")
	ErrScheduleIDRequired      = errors.New("スケジュールIDは必須です")
	ErrInvalidSeatCount        = errors.New("座席数は1以上である必要があります")
	ErrInvalidTotalAmount      = errors.New("合計金額は0以上である必要があります")
	ErrPassengerNameRequired   = errors.New("乗客名は必須です")
	ErrInvalidPassengerAge     = errors.New("乗客の年齢は1以上である必要があります")
	ErrPassengerCountMismatch  = errors.New("乗客数が予約座席数と一致しません")
	ErrReferenceDuplicate      = errors.New("同じ予約参照コードが既に存在します")
)
