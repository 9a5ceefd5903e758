package station

import "time"

// Station は駅エンティティを表す
type Station struct {
	ID        string
	Code      string
	Name      string
	City      string
	State     string
	CreatedAt time.Time
}

// NewStation は新しい駅を作成する
func NewStation(code, name, city, state string) *Station {
	return &Station{
		Code:      code,
		Name:      name,
		City:      city,
		State:     state,
		CreatedAt: time.Now(),
	}
}

// Validate は駅の検証を行う
func (s *Station) Validate() error {
	if s.Code == "" {
		return ErrStationCodeRequired
	}
	if s.Name == "" {
		return ErrStationNameRequired
	}
	return nil
}
