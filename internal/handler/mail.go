package handler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/biharilibrary/library-manager/backend/internal/domain"
	"github.com/biharilibrary/library-manager/backend/internal/mq"
)

func (h *Handler) publishMail(msg domain.MailMessage) error {
	if h.mailChannel == nil {
		return errors.New("邮件队列未连接")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return mq.PublishMail(ctx, h.mailChannel, msg)
}

// notify 用于发送通知类邮件，失败时只记录日志而不影响业务结果
func (h *Handler) notify(msg domain.MailMessage) {
	if msg.To == "" {
		return
	}
	if err := h.publishMail(msg); err != nil {
		slog.Warn("通知邮件投递失败", "type", msg.Type, "to", msg.To, "error", err)
	}
}
