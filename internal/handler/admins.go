package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/biharilibrary/library-manager/backend/internal/domain"
	"github.com/biharilibrary/library-manager/backend/internal/utils"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) GetAllAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.repository.GetAllAdmins()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取管理员列表成功", admins)
}

func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		FullName string `json:"fullName" validate:"required,max=64"`
		Role     string `json:"role" validate:"required,oneof=超级管理员 前台"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 生成随机密码，通过邮件告知新管理员
	password := utils.GenerateRandomPassword(h.config.NewAdmin.PasswordLength)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	admin := &domain.Admin{
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Role:         domain.Role(req.Role),
	}

	if err := h.repository.CreateAdmin(admin); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "admins_email_key":
			h.badRequest(w, r, errors.New("邮箱已存在"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	mailMessage := domain.MailMessage{
		Type: domain.MailTypeCreateAdmin,
		To:   admin.Email,
		Data: domain.CreateAdminMailData{
			FullName: admin.FullName,
			Email:    admin.Email,
			Password: password,
		},
	}

	if err := h.publishMail(mailMessage); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "管理员创建成功", admin)
}

func (h *Handler) GetAdmin(w http.ResponseWriter, r *http.Request) {
	admin := r.Context().Value(AdminInfoCtx).(*domain.Admin)
	h.successResponse(w, r, "获取管理员信息成功", admin)
}

func (h *Handler) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName *string `json:"fullName" validate:"omitempty,max=64"`
		Role     *string `json:"role" validate:"omitempty,oneof=超级管理员 前台"`
		IsActive *bool   `json:"isActive"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	admin := r.Context().Value(AdminInfoCtx).(*domain.Admin)

	if req.FullName != nil {
		admin.FullName = *req.FullName
	}
	if req.Role != nil {
		admin.Role = domain.Role(*req.Role)
	}
	if req.IsActive != nil {
		admin.IsActive = *req.IsActive
	}

	if err := h.repository.UpdateAdmin(admin); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新管理员信息失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新管理员信息成功", admin)
}

func (h *Handler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	admin := r.Context().Value(AdminInfoCtx).(*domain.Admin)

	if err := h.repository.DeleteAdmin(admin.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除管理员成功", nil)
}

func (h *Handler) UpdateAdminPassword(w http.ResponseWriter, r *http.Request) {
	admin := r.Context().Value(AdminInfoCtx).(*domain.Admin)

	var req struct {
		Password string `json:"password" validate:"required,min=8"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	admin.PasswordHash = string(hashedPassword)
	if err := h.repository.UpdateAdmin(admin); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "修改密码失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "修改密码成功", nil)
}
