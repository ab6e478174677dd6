package repository

import (
	"testing"

	"github.com/biharilibrary/library-manager/backend/internal/domain"
	"github.com/biharilibrary/library-manager/backend/internal/pricing"
	"github.com/stretchr/testify/assert"
)

func TestSeatAllows(t *testing.T) {
	holders := []*domain.SeatOccupancy{
		{SeatNumber: "4", SeatShift: pricing.SeatShiftMorningLong, SID: 7},
		{SeatNumber: "4", SeatShift: pricing.SeatShiftNight, SID: 9},
	}

	tests := []struct {
		name       string
		want       pricing.SeatShift
		excludeSID int64
		allowed    bool
	}{
		{"new student overlapping morningLong", pricing.SeatShiftMorning, 0, false},
		{"new student overlapping night", pricing.SeatShiftNightLong, 0, false},
		{"new student inside the morningLong span", pricing.SeatShiftEvening, 0, false},
		{"holder keeps its own slot", pricing.SeatShiftMorningLong, 7, true},
		{"holder moves inside its own slot", pricing.SeatShiftAfternoon, 7, true},
		{"holder moves onto another holder", pricing.SeatShiftNightLong, 7, false},
		{"night holder extends to nightLong", pricing.SeatShiftNightLong, 9, true},
		{"unrelated sid does not free anything", pricing.SeatShiftMorning, 42, false},
		{"unknown key", pricing.SeatShiftNone, 7, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, SeatAllows(holders, tt.want, tt.excludeSID))
		})
	}

	assert.True(t, SeatAllows(nil, pricing.SeatShiftFullDay, 0))
}
