package domain

import (
	"time"

	"github.com/biharilibrary/library-manager/backend/internal/pricing"
)

type Seat struct {
	SeatNumber string    `json:"seatNumber"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SeatOccupancy 是某个学生对座位某个时段的占用
type SeatOccupancy struct {
	SeatNumber string            `json:"seatNumber"`
	SeatShift  pricing.SeatShift `json:"seatShift"`
	SID        int64             `json:"sid"`
}

type SeatAvailability struct {
	SeatNumber   string                     `json:"seatNumber"`
	Availability map[pricing.SeatShift]bool `json:"availability"`
}
