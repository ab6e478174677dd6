package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/biharilibrary/library-manager/backend/internal/billing"
	"github.com/biharilibrary/library-manager/backend/internal/domain"
)

// 客户端按这条消息判断缴费成功，不要修改
const paymentSuccessMessage = "Payment processed and invoice created."

func (h *Handler) MakePayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SID                int64 `json:"sid" validate:"required,gt=0"`
		ExtraPaymentAmount int64 `json:"extraPaymentAmount" validate:"gte=0"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	student, err := h.repository.GetStudentBySID(req.SID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "学生不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if student.IsDeleted {
		h.errorResponse(w, r, "学生已在回收站中")
		return
	}
	if student.Status == domain.StudentStatusInactive {
		h.errorResponse(w, r, "学生已停用，请先恢复为在读状态")
		return
	}

	invoice, update := billing.Settle(student, req.ExtraPaymentAmount, time.Now(), h.config.Billing.CycleMonths)

	if err := h.repository.CreatePayment(student, invoice, update); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "缴费失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.notify(domain.MailMessage{
		Type: domain.MailTypeInvoice,
		To:   student.Email,
		Data: domain.InvoiceMailData{
			Name:            student.Name,
			SID:             student.SID,
			InvoiceID:       invoice.ID,
			CycleStart:      invoice.CycleStart.Format(dateLayout),
			CycleEnd:        invoice.CycleEnd.Format(dateLayout),
			AmountPaid:      invoice.AmountPaid,
			ExtraAmountPaid: invoice.ExtraAmountPaid,
			RemainingDue:    invoice.RemainingDue,
		},
	})

	h.successResponse(w, r, paymentSuccessMessage, map[string]any{
		"invoice": invoice,
		"student": student,
	})
}

func (h *Handler) GetInvoices(w http.ResponseWriter, r *http.Request) {
	var sid int64
	if sidParam := r.URL.Query().Get("sid"); sidParam != "" {
		parsed, err := strconv.ParseInt(sidParam, 10, 64)
		if err != nil || parsed <= 0 {
			h.errorResponse(w, r, "学号无效")
			return
		}
		sid = parsed
	}

	invoices, err := h.repository.GetInvoices(sid)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取发票列表成功", invoices)
}
