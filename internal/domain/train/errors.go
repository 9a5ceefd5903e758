package train

import "errors"

// Train ドメインのエラー定義
var (
	ErrTrainNotFound            = errors.New("列車が見つかりません")
	ErrTrainNumberRequired      = errors.New("列車番号は必須です")
	ErrTrainNameRequired        = errors.New("列車名は必須です")
	ErrTrainNumberDuplicate     = errors.New("同じ列車番号が既に存在します")
	ErrInvalidTotalSeats        = errors.New("総座席数は1以上である必要があります")
	ErrInvalidTrainType         = errors.New("不正な列車種別です")
	ErrRouteNotFound            = errors.New("経路が見つかりません")
	ErrRouteDuplicate           = errors.New("同じ列車・駅の組み合わせの経路が既に存在します")
	ErrTrainIDRequired          = errors.New("列車IDは必須です")
	ErrStationIDsRequired       = errors.New("出発駅・到着駅は必須です")
	ErrSameSourceAndDestination = errors.New("出発駅と到着駅が同じです")
	ErrInvalidDistance          = errors.New("走行距離は1以上である必要があります")
	ErrInvalidBaseFare          = errors.New("基本運賃は0以上である必要があります")
)
