package handler

import (
	"net/http"
	"strings"

	"github.com/biharilibrary/library-manager/backend/internal/domain"
	"github.com/biharilibrary/library-manager/backend/internal/pricing"
)

func (h *Handler) GetSeats(w http.ResponseWriter, r *http.Request) {
	availabilities, err := h.seatAvailabilities()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取座位列表成功", availabilities)
}

func (h *Handler) GetVacantSeats(w http.ResponseWriter, r *http.Request) {
	// 时段为空或者不在表中时不去查询座位
	key := r.URL.Query().Get("seatShift")
	if key == "" {
		h.errorResponse(w, r, "请先选择时间段")
		return
	}
	if !pricing.ValidSeatShift(key) {
		h.errorResponse(w, r, "无效的座位时段")
		return
	}

	availabilities, err := h.seatAvailabilities()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	vacant := make([]*domain.SeatAvailability, 0, len(availabilities))
	for _, seat := range availabilities {
		if seat.Availability[pricing.SeatShift(key)] {
			vacant = append(vacant, seat)
		}
	}

	h.successResponse(w, r, "获取空闲座位成功", vacant)
}

func (h *Handler) CreateSeats(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SeatNumbers []string `json:"seatNumbers" validate:"required,min=1,max=500,dive,required,max=16"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	for i := range req.SeatNumbers {
		req.SeatNumbers[i] = strings.TrimSpace(req.SeatNumbers[i])
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	created, err := h.repository.CreateSeats(req.SeatNumbers)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.invalidateSeatCache()

	h.successResponse(w, r, "创建座位成功", map[string]int{"created": created})
}
