package handler

import (
	"net/http"

	"github.com/biharilibrary/library-manager/backend/internal/pricing"
	"github.com/go-chi/chi/v5"
)

type shiftTimeSlot struct {
	TimeSlot  string            `json:"timeSlot"`
	Amount    int64             `json:"amount"`
	SeatShift pricing.SeatShift `json:"seatShift"`
}

type shiftWithTimeSlots struct {
	Shift     pricing.Shift   `json:"shift"`
	TimeSlots []shiftTimeSlot `json:"timeSlots"`
}

func (h *Handler) GetShifts(w http.ResponseWriter, r *http.Request) {
	rows := pricing.Table()

	shifts := make([]shiftWithTimeSlots, 0, len(pricing.Shifts()))
	for _, shift := range pricing.Shifts() {
		item := shiftWithTimeSlots{Shift: shift, TimeSlots: make([]shiftTimeSlot, 0, 2)}
		for _, row := range rows {
			if row.Shift == shift {
				item.TimeSlots = append(item.TimeSlots, shiftTimeSlot{
					TimeSlot:  row.TimeSlot,
					Amount:    row.Amount,
					SeatShift: row.SeatShift,
				})
			}
		}
		shifts = append(shifts, item)
	}

	h.successResponse(w, r, "获取班次列表成功", shifts)
}

// GetShiftTimeSlots 未知班次返回空列表
func (h *Handler) GetShiftTimeSlots(w http.ResponseWriter, r *http.Request) {
	shift := pricing.Shift(chi.URLParam(r, "shift"))
	h.successResponse(w, r, "获取时间段列表成功", pricing.AvailableTimeSlots(shift))
}

func (h *Handler) ResolveTimeSlot(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("time")
	if raw == "" {
		h.errorResponse(w, r, "请提供时间段")
		return
	}

	data := struct {
		TimeSlot       string            `json:"timeSlot"`
		NormalizedTime string            `json:"normalizedTime"`
		Amount         int64             `json:"amount"`
		SeatShift      pricing.SeatShift `json:"seatShift"`
	}{
		TimeSlot:       raw,
		NormalizedTime: pricing.NormalizeTime(raw),
	}

	// 带班次时按已保存数据的方式匹配，否则严格查表
	var res pricing.Resolution
	if shiftParam := r.URL.Query().Get("shift"); shiftParam != "" {
		shift, ok := pricing.ParseShift(shiftParam)
		if !ok {
			h.errorResponse(w, r, "无效的班次")
			return
		}
		data.TimeSlot, res = pricing.ResolveStored(shift, raw)
	} else {
		res = pricing.Resolve(raw)
		if res.SeatShift == pricing.SeatShiftNone {
			data.TimeSlot = ""
		}
	}

	data.Amount = res.Amount
	data.SeatShift = res.SeatShift

	h.successResponse(w, r, "解析时间段成功", data)
}
