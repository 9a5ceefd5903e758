package station

import "errors"

// Station ドメインのエラー定義
var (
	ErrStationNotFound      = errors.New("駅が見つかりません")
	ErrStationCodeRequired  = errors.New("駅コードは必須です")
	ErrStationNameRequired  = errors.New("駅名は必須です")
	ErrStationCodeDuplicate = errors.New("同じ駅コードが既に存在します")
)
