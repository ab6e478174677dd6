// Package pricing 维护班次、时间段、月费与座位时段之间的对应关系。
//
// 整个表是编译期常量，只读，可以被任意数量的 goroutine 同时调用。
package pricing

type Shift string

const (
	ShiftMorning   Shift = "Morning"
	ShiftAfternoon Shift = "Afternoon"
	ShiftEvening   Shift = "Evening"
	ShiftNight     Shift = "Night"
	ShiftDouble    Shift = "Double"
	Shift24Hours   Shift = "24Hours"
)

// SeatShift 是座位服务用来区分占用时段的 key，必须逐字节匹配（区分大小写）
type SeatShift string

const (
	SeatShiftNone          SeatShift = ""
	SeatShiftMorning       SeatShift = "morning"
	SeatShiftMorningLong   SeatShift = "morningLong"
	SeatShiftAfternoon     SeatShift = "afternoon"
	SeatShiftEvening       SeatShift = "evening"
	SeatShiftNight         SeatShift = "night"
	SeatShiftNightLong     SeatShift = "nightLong"
	SeatShiftDoubleMorning SeatShift = "doubleMorning"
	SeatShiftDoubleEvening SeatShift = "doubleEvening"
	SeatShiftFullDay       SeatShift = "fullDay"
)

// Resolution 是某个时间段对应的月费（卢比）和座位时段
type Resolution struct {
	Amount    int64     `json:"amount"`
	SeatShift SeatShift `json:"seatShift"`
}

type TimeSlot struct {
	Shift     Shift     `json:"shift"`
	TimeSlot  string    `json:"timeSlot"`
	Amount    int64     `json:"amount"`
	SeatShift SeatShift `json:"seatShift"`
}

// 顺序即展示顺序，注意 Evening 的时间段原本就没有空格
var table = []TimeSlot{
	{Shift: ShiftMorning, TimeSlot: "07:00 AM - 11:00 AM", Amount: 300, SeatShift: SeatShiftMorning},
	{Shift: ShiftMorning, TimeSlot: "07:00 AM - 07:00 PM", Amount: 700, SeatShift: SeatShiftMorningLong},
	{Shift: ShiftAfternoon, TimeSlot: "11:00 AM - 03:00 PM", Amount: 300, SeatShift: SeatShiftAfternoon},
	{Shift: ShiftEvening, TimeSlot: "03:00PM - 07:00PM", Amount: 300, SeatShift: SeatShiftEvening},
	{Shift: ShiftNight, TimeSlot: "07:00 PM - 11:00 PM", Amount: 300, SeatShift: SeatShiftNight},
	{Shift: ShiftNight, TimeSlot: "07:00 PM - 07:00 AM", Amount: 500, SeatShift: SeatShiftNightLong},
	{Shift: ShiftDouble, TimeSlot: "07:00 AM - 03:00 PM", Amount: 500, SeatShift: SeatShiftDoubleMorning},
	{Shift: ShiftDouble, TimeSlot: "11:00 AM - 07:00 PM", Amount: 500, SeatShift: SeatShiftDoubleEvening},
	{Shift: Shift24Hours, TimeSlot: "24 Hours", Amount: 1000, SeatShift: SeatShiftFullDay},
}

var shifts = []Shift{ShiftMorning, ShiftAfternoon, ShiftEvening, ShiftNight, ShiftDouble, Shift24Hours}

var bySlot = func() map[string]Resolution {
	m := make(map[string]Resolution, len(table))
	for _, row := range table {
		m[row.TimeSlot] = Resolution{Amount: row.Amount, SeatShift: row.SeatShift}
	}
	return m
}()

// Resolve 根据时间段得到月费和座位时段。
// 不在表中的输入（包括空串）返回零值，调用方应当据此不去查询空闲座位。
func Resolve(timeSlot string) Resolution {
	return bySlot[timeSlot]
}

// AvailableTimeSlots 返回某个班次下可选的时间段，未知班次返回空切片。
// 每次都返回新的切片，调用方修改它不会影响表。
func AvailableTimeSlots(shift Shift) []string {
	slots := make([]string, 0, 2)
	for _, row := range table {
		if row.Shift == shift {
			slots = append(slots, row.TimeSlot)
		}
	}
	return slots
}

// Table 返回整张表的副本
func Table() []TimeSlot {
	return append([]TimeSlot(nil), table...)
}

func Shifts() []Shift {
	return append([]Shift(nil), shifts...)
}

func SeatShifts() []SeatShift {
	keys := make([]SeatShift, 0, len(table))
	for _, row := range table {
		keys = append(keys, row.SeatShift)
	}
	return keys
}

func ParseShift(s string) (Shift, bool) {
	for _, shift := range shifts {
		if string(shift) == s {
			return shift, true
		}
	}
	return "", false
}

func ValidSeatShift(key string) bool {
	for _, row := range table {
		if string(row.SeatShift) == key {
			return true
		}
	}
	return false
}

// MatchTimeSlot 在 shift 的时间段中找到与 raw 规范化后相同的那一个，返回表中的原始写法。
// 两边都要规范化，否则 Evening 那一项永远匹配不上。
func MatchTimeSlot(shift Shift, raw string) (string, bool) {
	want := NormalizeTime(raw)
	if want == "" {
		return "", false
	}
	for _, row := range table {
		if row.Shift == shift && NormalizeTime(row.TimeSlot) == want {
			return row.TimeSlot, true
		}
	}
	return "", false
}

// ResolveStored 用于回显数据库中已保存的时间，先匹配再查表
func ResolveStored(shift Shift, raw string) (string, Resolution) {
	canonical, ok := MatchTimeSlot(shift, raw)
	if !ok {
		return "", Resolution{}
	}
	return canonical, Resolve(canonical)
}
