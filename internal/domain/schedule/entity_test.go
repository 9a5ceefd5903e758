package schedule

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSchedule(t *testing.T) {
	s := NewSchedule("route-1", time.Now(), 100, 500)

	assert.Equal(t, 100, s.TotalCapacity)
	assert.Equal(t, 100, s.AvailableSeats, "空席数は総座席数で初期化される")
	assert.Equal(t, StatusScheduled, s.Status)
	assert.NoError(t, s.Validate())
}

func TestSchedule_CheckInvariant(t *testing.T) {
	tests := []struct {
		name      string
		available int
		total     int
		wantErr   bool
	}{
		{"満席", 0, 100, false},
		{"全席空き", 100, 100, false},
		{"途中", 42, 100, false},
		{"負の空席数", -1, 100, true},
		{"総座席数超過", 101, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Schedule{TotalCapacity: tt.total, AvailableSeats: tt.available}
			err := s.CheckInvariant()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrCapacityInvariantViolated)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSchedule_CanReserve(t *testing.T) {
	s := &Schedule{TotalCapacity: 10, AvailableSeats: 3}

	assert.True(t, s.CanReserve(3))
	assert.True(t, s.CanReserve(1))
	assert.False(t, s.CanReserve(4))
}

func TestInsufficientSeatsError(t *testing.T) {
	err := &InsufficientSeatsError{Available: 2, Requested: 5}

	assert.True(t, IsInsufficientSeats(err))
	assert.True(t, IsInsufficientSeats(fmt.Errorf("予約に失敗: %w", err)))
	assert.False(t, IsInsufficientSeats(errors.New("別のエラー")))
	assert.Contains(t, err.Error(), "2")
	assert.Contains(t, err.Error(), "5")
}
