package train

import "time"

// Type は列車種別を表す
type Type string

const (
	TypeExpress   Type = "express"
	TypePassenger Type = "passenger"
	TypeSuperfast Type = "superfast"
)

// Train は列車エンティティを表す
type Train struct {
	ID         string
	Number     string
	Name       string
	Type       Type
	TotalSeats int
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int // 楽観的ロック用
}

// NewTrain は新しい列車を作成する
func NewTrain(number, name string, trainType Type, totalSeats int) *Train {
	now := time.Now()
	return &Train{
		Number:     number,
		Name:       name,
		Type:       trainType,
		TotalSeats: totalSeats,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    0,
	}
}

// Validate は列車の検証を行う
func (t *Train) Validate() error {
	if t.Number == "" {
		return ErrTrainNumberRequired
	}
	if t.Name == "" {
		return ErrTrainNameRequired
	}
	if t.TotalSeats <= 0 {
		return ErrInvalidTotalSeats
	}
	switch t.Type {
	case TypeExpress, TypePassenger, TypeSuperfast:
	default:
		return ErrInvalidTrainType
	}
	return nil
}

// Route は列車の運行経路を表す
type Route struct {
	ID                   string
	TrainID              string
	SourceStationID      string
	DestinationStationID string
	DepartureTime        string // "15:04" 形式
	ArrivalTime          string
	DistanceKM           int
	BaseFare             int // 1座席あたりの基本運賃（最小通貨単位）
	IsActive             bool
	CreatedAt            time.Time
}

// NewRoute は新しい経路を作成する
func NewRoute(trainID, sourceStationID, destStationID, departureTime, arrivalTime string, distanceKM, baseFare int) *Route {
	return &Route{
		TrainID:              trainID,
		SourceStationID:      sourceStationID,
		DestinationStationID: destStationID,
		DepartureTime:        departureTime,
		ArrivalTime:          arrivalTime,
		DistanceKM:           distanceKM,
		BaseFare:             baseFare,
		IsActive:             true,
		CreatedAt:            time.Now(),
	}
}

// Validate は経路の検証を行う
func (r *Route) Validate() error {
	if r.TrainID == "" {
		return ErrTrainIDRequired
	}
	if r.SourceStationID == "" || r.DestinationStationID == "" {
		return ErrStationIDsRequired
	}
	if r.SourceStationID == r.DestinationStationID {
		return ErrSameSourceAndDestination
	}
	if r.DistanceKM <= 0 {
		return ErrInvalidDistance
	}
	if r.BaseFare < 0 {
		return ErrInvalidBaseFare
	}
	return nil
}

// JourneyDays は走行距離から所要日数を計算する（500kmごとに1日、最低1日）
func (r *Route) JourneyDays() int {
	days := (r.DistanceKM + 499) / 500
	if days < 1 {
		days = 1
	}
	return days
}
