package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/biharilibrary/library-manager/backend/internal/billing"
	"github.com/biharilibrary/library-manager/backend/internal/config"
	"github.com/biharilibrary/library-manager/backend/internal/domain"
	"github.com/biharilibrary/library-manager/backend/internal/mq"
	"github.com/biharilibrary/library-manager/backend/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
)

type studentStore interface {
	GetOverdueStudents(now time.Time) ([]*domain.Student, error)
	SetStudentStatus(sid int64, version int32, status domain.StudentStatus) (int32, error)
	MarkStudentReminded(sid int64, at time.Time) error
}

type sweepResult struct {
	Overdue  int
	Pending  int
	Reminded int
}

// sweep 将欠费学生标记为待缴费，并为留有邮箱的学生发送催缴邮件，
// 同一个学生每个周期最多提醒一次
func sweep(store studentStore, publish func(domain.MailMessage) error, now time.Time, cycleMonths int) (sweepResult, error) {
	students, err := store.GetOverdueStudents(now)
	if err != nil {
		return sweepResult{}, err
	}

	result := sweepResult{Overdue: len(students)}
	for _, student := range students {
		if student.Status != domain.StudentStatusPending {
			if _, err := store.SetStudentStatus(student.SID, student.Version, domain.StudentStatusPending); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					// 学生在扫描期间被修改过，留给下一次扫描
					slog.Warn("学生信息已变更，跳过", "sid", student.SID)
					continue
				}
				return result, err
			}
			result.Pending++
		}

		if student.Email == "" || !billing.ReminderDue(student, now, cycleMonths) {
			continue
		}

		lastPayment := ""
		if student.LastPayment != nil {
			lastPayment = student.LastPayment.Format(time.DateOnly)
		}
		msg := domain.MailMessage{
			Type: domain.MailTypeFeeReminder,
			To:   student.Email,
			Data: domain.FeeReminderMailData{
				Name:        student.Name,
				SID:         student.SID,
				TotalDue:    billing.Outstanding(student, now, cycleMonths),
				LastPayment: lastPayment,
			},
		}
		if err := publish(msg); err != nil {
			slog.Warn("催缴邮件投递失败", "sid", student.SID, "error", err)
			continue
		}
		if err := store.MarkStudentReminded(student.SID, now); err != nil {
			return result, err
		}
		result.Reminded++
	}

	return result, nil
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	dbpool, err := repository.OpenDB(cfg)
	if err != nil {
		logger.Error("无法连接到数据库", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()

	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 rabbitmq", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法建立通道", "error", err)
		os.Exit(1)
	}
	defer ch.Close()

	if _, err := mq.DeclareQueue(ch); err != nil {
		logger.Error("无法声明队列", "error", err)
		os.Exit(1)
	}

	publish := func(msg domain.MailMessage) error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)
		defer cancel()
		return mq.PublishMail(ctx, ch, msg)
	}

	result, err := sweep(repository.NewRepository(cfg, dbpool), publish, time.Now(), cfg.Billing.CycleMonths)
	if err != nil {
		logger.Error("欠费扫描失败", "error", err)
		os.Exit(1)
	}

	logger.Info("欠费扫描完成", "overdue", result.Overdue, "pending", result.Pending, "reminded", result.Reminded)
}
