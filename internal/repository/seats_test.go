package repository

import (
	"testing"

	"github.com/biharilibrary/library-manager/backend/internal/domain"
	"github.com/biharilibrary/library-manager/backend/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSeatAvailabilities(t *testing.T) {
	seats := []*domain.Seat{{SeatNumber: "1"}, {SeatNumber: "2"}}
	occupancies := []*domain.SeatOccupancy{
		{SeatNumber: "1", SeatShift: pricing.SeatShiftMorning, SID: 1},
		{SeatNumber: "1", SeatShift: pricing.SeatShiftNight, SID: 2},
		{SeatNumber: "99", SeatShift: pricing.SeatShiftFullDay, SID: 3},
	}

	got := BuildSeatAvailabilities(seats, occupancies)
	require.Len(t, got, 2)

	assert.Equal(t, "1", got[0].SeatNumber)
	assert.False(t, got[0].Availability[pricing.SeatShiftMorning])
	assert.False(t, got[0].Availability[pricing.SeatShiftNightLong])
	assert.True(t, got[0].Availability[pricing.SeatShiftAfternoon])
	assert.True(t, got[0].Availability[pricing.SeatShiftDoubleEvening])

	assert.Equal(t, "2", got[1].SeatNumber)
	assert.Len(t, got[1].Availability, 9)
	for key, free := range got[1].Availability {
		assert.True(t, free, "key %s", key)
	}
}
