package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/biharilibrary/library-manager/backend/internal/billing"
	"github.com/biharilibrary/library-manager/backend/internal/domain"
	"github.com/biharilibrary/library-manager/backend/internal/pricing"
	"github.com/biharilibrary/library-manager/backend/internal/repository"
	"github.com/biharilibrary/library-manager/backend/internal/utils"
)

const dateLayout = "2006-01-02"

// seatError 将座位分配失败转换为业务错误，返回 false 表示不是座位相关的错误
func (h *Handler) seatError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case errors.Is(err, repository.ErrSeatOccupied):
		h.errorResponse(w, r, repository.ErrSeatOccupied.Error())
	case errors.Is(err, repository.ErrSeatNotFound):
		h.errorResponse(w, r, repository.ErrSeatNotFound.Error())
	default:
		return false
	}
	return true
}

func (h *Handler) removeImage(filename string) {
	if err := utils.RemoveImage(h.config.Upload.Dir, filename); err != nil {
		slog.Warn("删除学生照片失败", "image", filename, "error", err)
	}
}

func (h *Handler) GetStudents(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if err := h.validate.Var(status, "omitempty,oneof=Active Pending Inactive"); err != nil {
		h.errorResponse(w, r, "无效的学生状态")
		return
	}

	students, err := h.repository.GetStudents(repository.StudentFilter{
		Status: domain.StudentStatus(status),
		Query:  strings.TrimSpace(r.URL.Query().Get("q")),
	})
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取学生列表成功", students)
}

func (h *Handler) GetTrashedStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.repository.GetStudents(repository.StudentFilter{Deleted: true})
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取回收站成功", students)
}

type admissionForm struct {
	Name          string `validate:"required,max=128"`
	Email         string `validate:"required,email"`
	Mobile        string `validate:"required"`
	Father        string `validate:"max=128"`
	Guardian      string `validate:"max=128"`
	Gender        string `validate:"omitempty,oneof=Male Female Other"`
	AdmissionDate string `validate:"required"`
	Shift         string `validate:"required,oneof=Morning Afternoon Evening Night Double 24Hours"`
	Time          string `validate:"required"`
	Address       string `validate:"max=512"`
	SeatNumber    string `validate:"required,max=16"`
	LastPayment   string
	Instagram     string `validate:"omitempty,url"`
	Facebook      string `validate:"omitempty,url"`
	Youtube       string `validate:"omitempty,url"`
}

// CreateStudent 办理入学，表单以 multipart 提交，照片字段为 image
func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.Upload.MaxImageSize+(1<<20))
	if err := r.ParseMultipartForm(h.config.Upload.MaxImageSize); err != nil {
		h.errorResponse(w, r, "表单格式错误或照片过大")
		return
	}

	field := func(name string) string { return strings.TrimSpace(r.FormValue(name)) }
	form := admissionForm{
		Name:          field("name"),
		Email:         strings.ToLower(field("email")),
		Mobile:        field("mobile"),
		Father:        field("father"),
		Guardian:      field("guardian"),
		Gender:        field("gender"),
		AdmissionDate: field("admissionDate"),
		Shift:         field("shift"),
		Time:          field("time"),
		Address:       field("address"),
		SeatNumber:    field("seatNumber"),
		LastPayment:   field("lastPayment"),
		Instagram:     field("instagram"),
		Facebook:      field("facebook"),
		Youtube:       field("youtube"),
	}
	if err := h.validate.Struct(form); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if !utils.ValidateMobile(form.Mobile) {
		h.errorResponse(w, r, "手机号格式错误")
		return
	}

	shift := pricing.Shift(form.Shift)
	timeSlot, err := utils.ValidateTimeSlot(shift, form.Time)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	res := pricing.Resolve(timeSlot)

	admissionDate, err := utils.ParseDate(form.AdmissionDate)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	var lastPayment *time.Time
	if form.LastPayment != "" {
		t, err := utils.ParseDate(form.LastPayment)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		lastPayment = &t
	}

	now := time.Now()
	nextPayment := billing.FirstNextPayment(admissionDate, lastPayment, h.config.Billing.CycleMonths)
	status := domain.StudentStatusActive
	if !nextPayment.After(now) {
		status = domain.StudentStatusPending
	}

	student := &domain.Student{
		Name:          form.Name,
		Email:         form.Email,
		Mobile:        utils.NormalizeMobile(form.Mobile),
		Father:        form.Father,
		Guardian:      form.Guardian,
		Gender:        form.Gender,
		AdmissionDate: admissionDate,
		Shift:         shift,
		Time:          timeSlot,
		PaymentAmount: res.Amount,
		Address:       form.Address,
		SeatNumber:    form.SeatNumber,
		SeatShift:     res.SeatShift,
		Instagram:     form.Instagram,
		Facebook:      form.Facebook,
		Youtube:       form.Youtube,
		LastPayment:   lastPayment,
		NextPayment:   nextPayment,
		Status:        status,
	}

	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		if header.Size > h.config.Upload.MaxImageSize {
			h.errorResponse(w, r, "照片过大")
			return
		}
		filename, err := utils.SaveStudentImage(file, h.config.Upload.Dir, h.config.Upload.ImageSize, h.config.Upload.JPEGQuality)
		if err != nil {
			if errors.Is(err, utils.ErrInvalidImage) {
				h.errorResponse(w, r, utils.ErrInvalidImage.Error())
				return
			}
			h.internalServerError(w, r, err)
			return
		}
		student.Image = filename
	case !errors.Is(err, http.ErrMissingFile):
		h.errorResponse(w, r, "照片读取失败")
		return
	}

	if err := h.repository.CreateStudent(student); err != nil {
		h.removeImage(student.Image)
		if h.seatError(w, r, err) {
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	h.invalidateSeatCache()

	h.notify(domain.MailMessage{
		Type: domain.MailTypeAdmission,
		To:   student.Email,
		Data: domain.AdmissionMailData{
			Name:          student.Name,
			SID:           student.SID,
			Shift:         string(student.Shift),
			Time:          student.Time,
			SeatNumber:    student.SeatNumber,
			PaymentAmount: student.PaymentAmount,
			NextPayment:   student.NextPayment.Format(dateLayout),
		},
	})

	// 客户端以 201 判断入学成功
	h.createdResponse(w, r, "入学办理成功", student)
}

func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	student := r.Context().Value(StudentInfoCtx).(*domain.Student)

	h.successResponse(w, r, "获取学生信息成功", struct {
		*domain.Student
		Outstanding int64 `json:"outstanding"`
	}{
		Student:     student,
		Outstanding: billing.Outstanding(student, time.Now(), h.config.Billing.CycleMonths),
	})
}

// studentPatch 是学生信息的部分更新，nil 字段保持不变
type studentPatch struct {
	Name          *string `json:"name" validate:"omitempty,max=128"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Mobile        *string `json:"mobile"`
	Father        *string `json:"father" validate:"omitempty,max=128"`
	Guardian      *string `json:"guardian" validate:"omitempty,max=128"`
	Gender        *string `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	AdmissionDate *string `json:"admissionDate"`
	Shift         *string `json:"shift" validate:"omitempty,oneof=Morning Afternoon Evening Night Double 24Hours"`
	Time          *string `json:"time"`
	Address       *string `json:"address" validate:"omitempty,max=512"`
	SeatNumber    *string `json:"seatNumber" validate:"omitempty,max=16"`
	Status        *string `json:"status" validate:"omitempty,oneof=Active Pending Inactive"`
	Instagram     *string `json:"instagram" validate:"omitempty,url"`
	Facebook      *string `json:"facebook" validate:"omitempty,url"`
	Youtube       *string `json:"youtube" validate:"omitempty,url"`
	Image         *string `json:"image"` // data:image/...;base64,...
}

// applyStudentPatch 把 patch 写入 student，班次或时间段变化时重新计算月费和座位时段。
// 出错时 student 保持不变
func applyStudentPatch(student *domain.Student, patch *studentPatch) error {
	updated := *student

	if patch.Name != nil {
		updated.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		updated.Email = strings.ToLower(*patch.Email)
	}
	if patch.Mobile != nil {
		if !utils.ValidateMobile(*patch.Mobile) {
			return errors.New("手机号格式错误")
		}
		updated.Mobile = utils.NormalizeMobile(*patch.Mobile)
	}
	if patch.Father != nil {
		updated.Father = *patch.Father
	}
	if patch.Guardian != nil {
		updated.Guardian = *patch.Guardian
	}
	if patch.Gender != nil {
		updated.Gender = *patch.Gender
	}
	if patch.AdmissionDate != nil {
		admissionDate, err := utils.ParseDate(*patch.AdmissionDate)
		if err != nil {
			return err
		}
		updated.AdmissionDate = admissionDate
	}
	if patch.Address != nil {
		updated.Address = *patch.Address
	}
	if patch.SeatNumber != nil {
		updated.SeatNumber = strings.TrimSpace(*patch.SeatNumber)
	}
	if patch.Status != nil {
		updated.Status = domain.StudentStatus(*patch.Status)
	}
	if patch.Instagram != nil {
		updated.Instagram = *patch.Instagram
	}
	if patch.Facebook != nil {
		updated.Facebook = *patch.Facebook
	}
	if patch.Youtube != nil {
		updated.Youtube = *patch.Youtube
	}

	if patch.Shift != nil || patch.Time != nil {
		shift := updated.Shift
		if patch.Shift != nil {
			shift = pricing.Shift(*patch.Shift)
		}
		raw := updated.Time
		if patch.Time != nil {
			raw = *patch.Time
		}

		// 只改班次时，原来的时间段必须也属于新班次
		timeSlot, err := utils.ValidateTimeSlot(shift, raw)
		if err != nil {
			return err
		}
		res := pricing.Resolve(timeSlot)

		updated.Shift = shift
		updated.Time = timeSlot
		updated.PaymentAmount = res.Amount
		updated.SeatShift = res.SeatShift
	}

	*student = updated
	return nil
}

func (h *Handler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	var req studentPatch

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	student := r.Context().Value(StudentInfoCtx).(*domain.Student)
	if err := applyStudentPatch(student, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	oldImage := student.Image
	if req.Image != nil && *req.Image != "" {
		filename, err := utils.SaveStudentImageFromDataURL(*req.Image, h.config.Upload.Dir, h.config.Upload.ImageSize, h.config.Upload.JPEGQuality)
		if err != nil {
			if errors.Is(err, utils.ErrInvalidImage) {
				h.errorResponse(w, r, utils.ErrInvalidImage.Error())
				return
			}
			h.internalServerError(w, r, err)
			return
		}
		student.Image = filename
	}

	if err := h.repository.UpdateStudent(student); err != nil {
		if student.Image != oldImage {
			h.removeImage(student.Image)
		}
		if h.seatError(w, r, err) {
			return
		}
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新学生信息失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if student.Image != oldImage {
		h.removeImage(oldImage)
	}
	h.invalidateSeatCache()

	h.successResponse(w, r, "更新学生信息成功", student)
}

func (h *Handler) TrashStudent(w http.ResponseWriter, r *http.Request) {
	student := r.Context().Value(StudentInfoCtx).(*domain.Student)

	if err := h.repository.TrashStudent(student.SID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "学生已在回收站中")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.invalidateSeatCache()

	h.successResponse(w, r, "已移入回收站", nil)
}

func (h *Handler) RestoreStudent(w http.ResponseWriter, r *http.Request) {
	student := r.Context().Value(StudentInfoCtx).(*domain.Student)

	// 请求体可选，原座位被占用时可以指定新的座位
	var req struct {
		SeatNumber string `json:"seatNumber" validate:"omitempty,max=16"`
	}
	if r.ContentLength > 0 {
		if err := h.readJSON(w, r, &req); err != nil {
			h.badRequest(w, r, err)
			return
		}
		if err := h.validate.Struct(req); err != nil {
			h.badRequest(w, r, err)
			return
		}
	}

	restored, err := h.repository.RestoreStudent(student.SID, strings.TrimSpace(req.SeatNumber))
	if err != nil {
		if h.seatError(w, r, err) {
			return
		}
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "学生不在回收站中")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.invalidateSeatCache()

	h.successResponse(w, r, "恢复学生成功", restored)
}

func (h *Handler) DeleteStudentPermanently(w http.ResponseWriter, r *http.Request) {
	student := r.Context().Value(StudentInfoCtx).(*domain.Student)

	if err := h.repository.DeleteStudentPermanently(student.SID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "只能彻底删除回收站中的学生")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.removeImage(student.Image)

	h.successResponse(w, r, "彻底删除学生成功", nil)
}

func (h *Handler) GetStudentInvoices(w http.ResponseWriter, r *http.Request) {
	student := r.Context().Value(StudentInfoCtx).(*domain.Student)

	invoices, err := h.repository.GetInvoices(student.SID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取发票列表成功", invoices)
}
