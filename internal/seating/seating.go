package seating

import "github.com/biharilibrary/library-manager/backend/internal/pricing"

// Blocks 是一天中被占用的时间块（位图）
type Blocks uint8

const (
	BlockMorning   Blocks = 1 << iota // 07:00-11:00
	BlockAfternoon                    // 11:00-15:00
	BlockEvening                      // 15:00-19:00
	BlockNight                        // 19:00-23:00
	BlockLateNight                    // 23:00-07:00
)

var coverage = map[pricing.SeatShift]Blocks{
	pricing.SeatShiftMorning:       BlockMorning,
	pricing.SeatShiftAfternoon:     BlockAfternoon,
	pricing.SeatShiftEvening:       BlockEvening,
	pricing.SeatShiftNight:         BlockNight,
	pricing.SeatShiftNightLong:     BlockNight | BlockLateNight,
	pricing.SeatShiftDoubleMorning: BlockMorning | BlockAfternoon,
	pricing.SeatShiftDoubleEvening: BlockAfternoon | BlockEvening,
	pricing.SeatShiftMorningLong:   BlockMorning | BlockAfternoon | BlockEvening,
	pricing.SeatShiftFullDay:       BlockMorning | BlockAfternoon | BlockEvening | BlockNight | BlockLateNight,
}

// Coverage 返回座位时段占用的时间块，未知的 key 不占用任何时间块
func Coverage(key pricing.SeatShift) Blocks {
	return coverage[key]
}

func Overlaps(a, b pricing.SeatShift) bool {
	return Coverage(a)&Coverage(b) != 0
}

// Available 判断一个座位在已有占用 occupied 的情况下能否再分配给 want
func Available(occupied []pricing.SeatShift, want pricing.SeatShift) bool {
	w := Coverage(want)
	if w == 0 {
		return false
	}
	for _, key := range occupied {
		if Coverage(key)&w != 0 {
			return false
		}
	}
	return true
}

// Availability 计算座位在每一个座位时段下是否空闲
func Availability(occupied []pricing.SeatShift) map[pricing.SeatShift]bool {
	var used Blocks
	for _, key := range occupied {
		used |= Coverage(key)
	}

	keys := pricing.SeatShifts()
	availability := make(map[pricing.SeatShift]bool, len(keys))
	for _, key := range keys {
		availability[key] = Coverage(key)&used == 0
	}
	return availability
}
