package billing

import (
	"time"

	"github.com/biharilibrary/library-manager/backend/internal/domain"
)

// CycleEnd 返回 months 个月之后的同一天，目标月份没有这一天时取该月最后一天
func CycleEnd(start time.Time, months int) time.Time {
	y, m, d := start.Date()
	hh, mm, ss := start.Clock()

	// 第 0 天即上个月的最后一天
	lastDay := time.Date(y, m+time.Month(months)+1, 0, 0, 0, 0, 0, start.Location()).Day()
	if d > lastDay {
		d = lastDay
	}

	return time.Date(y, m+time.Month(months), d, hh, mm, ss, start.Nanosecond(), start.Location())
}

// FirstNextPayment 计算新生入学后的第一个缴费日：有上次缴费日期则从它算起，否则从入学日期算起
func FirstNextPayment(admission time.Time, lastPayment *time.Time, months int) time.Time {
	if lastPayment != nil && !lastPayment.IsZero() {
		return CycleEnd(*lastPayment, months)
	}
	return CycleEnd(admission, months)
}

// StudentUpdate 是一次缴费后需要写回学生记录的字段
type StudentUpdate struct {
	LastPayment time.Time
	NextPayment time.Time
	PaymentDue  int64
	Status      domain.StudentStatus
}

// Settle 结算一个周期的月费，extra 用来抵扣之前的欠费（或者预存）
func Settle(student *domain.Student, extra int64, now time.Time, months int) (*domain.Invoice, StudentUpdate) {
	cycleStart := student.NextPayment
	cycleEnd := CycleEnd(cycleStart, months)
	remaining := student.PaymentDue - extra

	invoice := &domain.Invoice{
		SID:             student.SID,
		PaymentDate:     now,
		CycleStart:      cycleStart,
		CycleEnd:        cycleEnd,
		AmountPaid:      student.PaymentAmount,
		ExtraAmountPaid: extra,
		RemainingDue:    remaining,
	}

	status := domain.StudentStatusActive
	if !cycleEnd.After(now) {
		// 补交了一个周期但仍然没有追上
		status = domain.StudentStatusPending
	}

	return invoice, StudentUpdate{
		LastPayment: now,
		NextPayment: cycleEnd,
		PaymentDue:  remaining,
		Status:      status,
	}
}

// MissedCycles 统计从 nextPayment 开始、到 now 为止已经开始但未缴费的周期数
func MissedCycles(nextPayment, now time.Time, months int) int {
	if months <= 0 || nextPayment.IsZero() || now.Before(nextPayment) {
		return 0
	}

	n := 0
	for start := nextPayment; !start.After(now); start = CycleEnd(start, months) {
		n++
	}
	return n
}

func Outstanding(student *domain.Student, now time.Time, months int) int64 {
	return student.PaymentDue + int64(MissedCycles(student.NextPayment, now, months))*student.PaymentAmount
}

func IsOverdue(student *domain.Student, now time.Time) bool {
	if student.Status == domain.StudentStatusInactive || student.IsDeleted {
		return false
	}
	return !student.NextPayment.After(now)
}

// ReminderDue 判断欠费学生是否需要催缴：本期应缴日之后还没提醒过，或者距离上次提醒已满一个周期
func ReminderDue(student *domain.Student, now time.Time, months int) bool {
	if !IsOverdue(student, now) {
		return false
	}
	last := student.LastRemindedAt
	if last == nil || last.Before(student.NextPayment) {
		return true
	}
	return !CycleEnd(*last, months).After(now)
}
