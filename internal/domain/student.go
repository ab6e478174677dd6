package domain

import (
	"time"

	"github.com/biharilibrary/library-manager/backend/internal/pricing"
)

type StudentStatus string

const (
	StudentStatusActive   StudentStatus = "Active"
	StudentStatusPending  StudentStatus = "Pending"
	StudentStatusInactive StudentStatus = "Inactive"
)

type Student struct {
	SID            int64             `json:"sid"`
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	Mobile         string            `json:"mobile"`
	Father         string            `json:"father"`
	Guardian       string            `json:"guardian"`
	Gender         string            `json:"gender"`
	AdmissionDate  time.Time         `json:"admissionDate"`
	Shift          pricing.Shift     `json:"shift"`
	Time           string            `json:"time"`
	PaymentAmount  int64             `json:"paymentAmount"`
	Address        string            `json:"address"`
	Image          string            `json:"image"`
	SeatNumber     string            `json:"seatNumber"`
	SeatShift      pricing.SeatShift `json:"seatShift"`
	Instagram      string            `json:"instagram"`
	Facebook       string            `json:"facebook"`
	Youtube        string            `json:"youtube"`
	LastPayment    *time.Time        `json:"lastPayment"`
	NextPayment    time.Time         `json:"nextPayment"`
	PaymentDue     int64             `json:"paymentDue"` // 大于 0 表示欠费，小于 0 表示预存
	LastRemindedAt *time.Time        `json:"lastRemindedAt"`
	Status         StudentStatus     `json:"status"`
	IsDeleted      bool              `json:"isDeleted"`
	DeletedAt      *time.Time        `json:"deletedAt"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
	Version        int32             `json:"-"`
}

// HoldsSeat 表示该学生当前是否占用着座位
func (s *Student) HoldsSeat() bool {
	return !s.IsDeleted && s.Status != StudentStatusInactive && s.SeatNumber != "" && s.SeatShift != pricing.SeatShiftNone
}
