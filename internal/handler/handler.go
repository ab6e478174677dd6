package handler

import (
	"net/http"
	"strings"

	"github.com/biharilibrary/library-manager/backend/internal/config"
	"github.com/biharilibrary/library-manager/backend/internal/domain"
	"github.com/biharilibrary/library-manager/backend/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type adminStore interface {
	GetAdminByID(id int64) (*domain.Admin, error)
}

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	admins      adminStore
	translator  ut.Translator
	mailChannel *amqp.Channel
	redisClient *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mailCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	h := &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}
	if repo != nil {
		h.admins = repo
	}

	return h, nil
}

var superAdminOnly = []domain.Role{domain.RoleSuperAdmin}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// 客户端启动时检查版本，无需登录
	h.Mux.Post("/version-check", h.VersionCheck)

	// 价格表是静态数据，无需登录
	h.Mux.Route("/pricing", func(r chi.Router) {
		r.Get("/shifts", h.GetShifts)
		r.Get("/shifts/{shift}/time-slots", h.GetShiftTimeSlots)
		r.Get("/resolve", h.ResolveTimeSlot)
	})

	// 学生照片
	h.Mux.Handle("/uploads/*", http.StripPrefix("/uploads/", h.noDirListing(http.FileServer(http.Dir(h.config.Upload.Dir)))))

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/admins", func(r chi.Router) {
			r.With(h.RequiredRole(superAdminOnly)).Post("/", h.CreateAdmin)
			r.Get("/", h.GetAllAdmins)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.adminInfo)
				r.Get("/", h.GetAdmin)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole(superAdminOnly)).Patch("/", h.UpdateAdmin)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole(superAdminOnly)).Delete("/", h.DeleteAdmin)
				r.With(h.RequiredRole(superAdminOnly)).Patch("/password", h.UpdateAdminPassword)
			})
		})

		r.Route("/students", func(r chi.Router) {
			r.Get("/", h.GetStudents)
			r.Post("/", h.CreateStudent)
			r.Get("/trash", h.GetTrashedStudents)
			r.Route("/{sid}", func(r chi.Router) {
				r.Use(h.studentInfo)
				r.Get("/", h.GetStudent)
				r.With(h.preventTrashedStudent).Patch("/", h.UpdateStudent)
				r.With(h.preventTrashedStudent).Delete("/", h.TrashStudent)
				r.With(h.RequiredRole(superAdminOnly)).Post("/restore", h.RestoreStudent)
				r.With(h.RequiredRole(superAdminOnly)).Delete("/permanent", h.DeleteStudentPermanently)
				r.Get("/invoices", h.GetStudentInvoices)
			})
		})

		r.Route("/seats", func(r chi.Router) {
			r.Get("/", h.GetSeats)
			r.Get("/vacant", h.GetVacantSeats)
			r.With(h.RequiredRole(superAdminOnly)).Post("/", h.CreateSeats)
		})

		r.Post("/payments", h.MakePayment)
		r.Get("/invoices", h.GetInvoices)
	})
}

func (h *Handler) noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
