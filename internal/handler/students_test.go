package handler

import (
	"testing"
	"time"

	"github.com/biharilibrary/library-manager/backend/internal/domain"
	"github.com/biharilibrary/library-manager/backend/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func morningStudent() *domain.Student {
	return &domain.Student{
		SID:           12,
		Name:          "Rahul Kumar",
		Mobile:        "9876543210",
		AdmissionDate: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		Shift:         pricing.ShiftMorning,
		Time:          "07:00 AM - 11:00 AM",
		PaymentAmount: 300,
		SeatNumber:    "4",
		SeatShift:     pricing.SeatShiftMorning,
		Status:        domain.StudentStatusActive,
	}
}

func TestApplyStudentPatchReresolvesPricing(t *testing.T) {
	tests := []struct {
		name      string
		patch     studentPatch
		shift     pricing.Shift
		time      string
		amount    int64
		seatShift pricing.SeatShift
	}{
		{
			name:      "time within the same shift",
			patch:     studentPatch{Time: ptr("07:00AM - 07:00PM")},
			shift:     pricing.ShiftMorning,
			time:      "07:00 AM - 07:00 PM",
			amount:    700,
			seatShift: pricing.SeatShiftMorningLong,
		},
		{
			name:      "shift and time together",
			patch:     studentPatch{Shift: ptr("Night"), Time: ptr("07:00PM-07:00AM")},
			shift:     pricing.ShiftNight,
			time:      "07:00 PM - 07:00 AM",
			amount:    500,
			seatShift: pricing.SeatShiftNightLong,
		},
		{
			name:      "evening keeps its stored literal",
			patch:     studentPatch{Shift: ptr("Evening"), Time: ptr("03:00 PM - 07:00 PM")},
			shift:     pricing.ShiftEvening,
			time:      "03:00PM - 07:00PM",
			amount:    300,
			seatShift: pricing.SeatShiftEvening,
		},
		{
			name:      "unrelated fields leave pricing alone",
			patch:     studentPatch{Name: ptr("  Rahul K  "), Address: ptr("Patna")},
			shift:     pricing.ShiftMorning,
			time:      "07:00 AM - 11:00 AM",
			amount:    300,
			seatShift: pricing.SeatShiftMorning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			student := morningStudent()
			require.NoError(t, applyStudentPatch(student, &tt.patch))

			assert.Equal(t, tt.shift, student.Shift)
			assert.Equal(t, tt.time, student.Time)
			assert.Equal(t, tt.amount, student.PaymentAmount)
			assert.Equal(t, tt.seatShift, student.SeatShift)
			assert.Equal(t, "4", student.SeatNumber)
		})
	}
}

func TestApplyStudentPatchRejectsAndLeavesStudentUntouched(t *testing.T) {
	tests := []struct {
		name  string
		patch studentPatch
	}{
		{"shift only with a time of the old shift", studentPatch{Shift: ptr("Afternoon")}},
		{"time of another shift", studentPatch{Time: ptr("07:00 PM - 11:00 PM")}},
		{"bad mobile", studentPatch{Name: ptr("Someone"), Mobile: ptr("12345")}},
		{"bad admission date", studentPatch{AdmissionDate: ptr("01/03/2025")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			student := morningStudent()
			before := *student

			assert.Error(t, applyStudentPatch(student, &tt.patch))
			assert.Equal(t, before, *student)
		})
	}
}

func TestApplyStudentPatchFields(t *testing.T) {
	student := morningStudent()
	patch := studentPatch{
		Email:         ptr("RAHUL@Example.com"),
		Mobile:        ptr("+91 91234 56789"),
		AdmissionDate: ptr("2025-02-10"),
		SeatNumber:    ptr(" 9 "),
		Status:        ptr("Inactive"),
	}

	require.NoError(t, applyStudentPatch(student, &patch))
	assert.Equal(t, "rahul@example.com", student.Email)
	assert.Equal(t, "9123456789", student.Mobile)
	assert.Equal(t, time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC), student.AdmissionDate)
	assert.Equal(t, "9", student.SeatNumber)
	assert.Equal(t, domain.StudentStatusInactive, student.Status)
}
