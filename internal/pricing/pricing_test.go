package pricing

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveKnownSlots(t *testing.T) {
	cases := []struct {
		shift     Shift
		timeSlot  string
		amount    int64
		seatShift SeatShift
	}{
		{ShiftMorning, "07:00 AM - 11:00 AM", 300, "morning"},
		{ShiftMorning, "07:00 AM - 07:00 PM", 700, "morningLong"},
		{ShiftAfternoon, "11:00 AM - 03:00 PM", 300, "afternoon"},
		{ShiftEvening, "03:00PM - 07:00PM", 300, "evening"},
		{ShiftNight, "07:00 PM - 11:00 PM", 300, "night"},
		{ShiftNight, "07:00 PM - 07:00 AM", 500, "nightLong"},
		{ShiftDouble, "07:00 AM - 03:00 PM", 500, "doubleMorning"},
		{ShiftDouble, "11:00 AM - 07:00 PM", 500, "doubleEvening"},
		{Shift24Hours, "24 Hours", 1000, "fullDay"},
	}

	for _, tc := range cases {
		t.Run(tc.timeSlot, func(t *testing.T) {
			got := Resolve(tc.timeSlot)
			assert.Equal(t, tc.amount, got.Amount)
			assert.Equal(t, tc.seatShift, got.SeatShift)
			assert.Contains(t, AvailableTimeSlots(tc.shift), tc.timeSlot)
		})
	}
}

func TestResolveUnknownSlots(t *testing.T) {
	for _, in := range []string{"", "24 hours", "Invalid", "07:00AM - 11:00AM", "03:00 PM - 07:00 PM", " 24 Hours"} {
		got := Resolve(in)
		assert.Equal(t, Resolution{}, got, "input %q", in)
		assert.Equal(t, SeatShiftNone, got.SeatShift)
	}
}

func TestAvailableTimeSlots(t *testing.T) {
	assert.Equal(t, []string{"07:00 AM - 11:00 AM", "07:00 AM - 07:00 PM"}, AvailableTimeSlots(ShiftMorning))
	assert.Equal(t, []string{"07:00 PM - 11:00 PM", "07:00 PM - 07:00 AM"}, AvailableTimeSlots(ShiftNight))
	assert.Equal(t, []string{"24 Hours"}, AvailableTimeSlots(Shift24Hours))

	unknown := AvailableTimeSlots("Unknown")
	require.NotNil(t, unknown)
	assert.Empty(t, unknown)

	// 返回的是副本
	slots := AvailableTimeSlots(ShiftMorning)
	slots[0] = "tampered"
	assert.Equal(t, "07:00 AM - 11:00 AM", AvailableTimeSlots(ShiftMorning)[0])
}

func TestShiftsAndSeatShifts(t *testing.T) {
	assert.Equal(t, []Shift{"Morning", "Afternoon", "Evening", "Night", "Double", "24Hours"}, Shifts())
	assert.Len(t, SeatShifts(), 9)

	total := 0
	for _, s := range Shifts() {
		total += len(AvailableTimeSlots(s))
	}
	assert.Equal(t, 9, total)

	shift, ok := ParseShift("Double")
	assert.True(t, ok)
	assert.Equal(t, ShiftDouble, shift)
	_, ok = ParseShift("double")
	assert.False(t, ok)

	assert.True(t, ValidSeatShift("nightLong"))
	assert.False(t, ValidSeatShift("NightLong"))
	assert.False(t, ValidSeatShift(""))
}

func TestNormalizeTime(t *testing.T) {
	cases := map[string]string{
		"07:00AM - 11:00AM":        "07:00 AM - 11:00 AM",
		"07:00PM-07:00AM":          "07:00 PM - 07:00 AM",
		"  07:00 AM   -  11:00 AM ": "07:00 AM - 11:00 AM",
		"03:00PM - 07:00PM":        "03:00 PM - 07:00 PM",
		"24 Hours":                 "24 Hours",
		"24  Hours\t":              "24 Hours",
		"07:00am - 11:00am":        "07:00am - 11:00am",
		"":                         "",
	}

	for in, want := range cases {
		assert.Equal(t, want, NormalizeTime(in), "input %q", in)
	}

	assert.Equal(t, Resolution{Amount: 300, SeatShift: SeatShiftMorning}, Resolve(NormalizeTime("07:00AM - 11:00AM")))
}

func FuzzNormalizeTimeIdempotent(f *testing.F) {
	for _, seed := range []string{
		"07:00AM - 11:00AM", "07:00PM-07:00AM", "AMAM", "xAMAM", "APMAM", "--", "a--b", "-x",
		" AM", "PM", "  ", "24 Hours", "03:00PM - 07:00PM", "\xffAM",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, s string) {
		once := NormalizeTime(s)
		assert.Equal(t, once, NormalizeTime(once))
	})
}

func TestMatchTimeSlot(t *testing.T) {
	got, ok := MatchTimeSlot(ShiftEvening, "03:00 PM - 07:00 PM")
	assert.True(t, ok)
	assert.Equal(t, "03:00PM - 07:00PM", got)

	got, ok = MatchTimeSlot(ShiftMorning, "07:00AM - 07:00PM")
	assert.True(t, ok)
	assert.Equal(t, "07:00 AM - 07:00 PM", got)

	// 时间段属于其他班次
	_, ok = MatchTimeSlot(ShiftAfternoon, "07:00 AM - 11:00 AM")
	assert.False(t, ok)

	_, ok = MatchTimeSlot(ShiftMorning, "")
	assert.False(t, ok)
}

func TestResolveStored(t *testing.T) {
	canonical, res := ResolveStored(ShiftMorning, "07:00AM - 11:00AM")
	assert.Equal(t, "07:00 AM - 11:00 AM", canonical)
	assert.Equal(t, Resolution{Amount: 300, SeatShift: SeatShiftMorning}, res)

	canonical, res = ResolveStored(ShiftNight, "07:00 PM - 07:00 AM")
	assert.Equal(t, "07:00 PM - 07:00 AM", canonical)
	assert.Equal(t, int64(500), res.Amount)
	assert.Equal(t, SeatShiftNightLong, res.SeatShift)

	canonical, res = ResolveStored(ShiftDouble, "11:00 AM - 07:00 PM")
	assert.Equal(t, "11:00 AM - 07:00 PM", canonical)
	assert.Equal(t, Resolution{Amount: 500, SeatShift: SeatShiftDoubleEvening}, res)

	canonical, res = ResolveStored(Shift24Hours, "24 Hours")
	assert.Equal(t, "24 Hours", canonical)
	assert.Equal(t, Resolution{Amount: 1000, SeatShift: SeatShiftFullDay}, res)

	canonical, res = ResolveStored("Unknown", "24 Hours")
	assert.Empty(t, canonical)
	assert.Equal(t, Resolution{}, res)
}

func TestResolveConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, row := range Table() {
				assert.Equal(t, row.SeatShift, Resolve(row.TimeSlot).SeatShift)
				_, ok := MatchTimeSlot(row.Shift, row.TimeSlot)
				assert.True(t, ok)
			}
		}()
	}
	wg.Wait()
}
