package main

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/biharilibrary/library-manager/backend/internal/config"
	"github.com/biharilibrary/library-manager/backend/internal/domain"
	"github.com/biharilibrary/library-manager/backend/internal/mq"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"
)

// 每种邮件对应 templates 目录下同名的 html 模板
var subjects = map[string]string{
	domain.MailTypeCreateAdmin:   "Library Manager - 管理员账户信息",
	domain.MailTypeResetPassword: "Library Manager - 重置密码",
	domain.MailTypeAdmission:     "Library Manager - Admission Confirmed",
	domain.MailTypeInvoice:       "Library Manager - Payment Receipt",
	domain.MailTypeFeeReminder:   "Library Manager - Fee Reminder",
}

// loadTemplates 在启动时解析全部模板，缺少任何一个都视为配置错误
func loadTemplates(dir string) (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template, len(subjects))
	for typ := range subjects {
		tmpl, err := template.ParseFiles(filepath.Join(dir, typ+".html"))
		if err != nil {
			return nil, fmt.Errorf("无法解析邮件模板 %s: %w", typ, err)
		}
		templates[typ] = tmpl
	}
	return templates, nil
}

// buildMessage 根据队列中的消息构建邮件
func buildMessage(from string, templates map[string]*template.Template, body []byte) (*mail.Msg, error) {
	typ, to, data, err := mq.DecodeMail(body)
	if err != nil {
		return nil, err
	}

	tmpl, ok := templates[typ]
	if !ok {
		return nil, fmt.Errorf("不支持的邮件类型 %s", typ)
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}
	if err := msg.SetBodyHTMLTemplate(tmpl, data); err != nil {
		return nil, fmt.Errorf("无法设置邮件正文: %w", err)
	}
	msg.Subject(subjects[typ])

	return msg, nil
}

func main() {
	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	templates, err := loadTemplates(cfg.Email.TemplateDir)
	if err != nil {
		logger.Error("无法加载邮件模板", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 创建邮件客户端
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
		mail.WithTimeout(time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second),
	)
	if err != nil {
		logger.Error("无法创建邮件客户端", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	// 验证邮件客户端是否连接成功
	clientDialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(clientDialCtx); err != nil {
		logger.Error("无法连接到邮件服务器", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	// 创建通道
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	q, err := mq.DeclareQueue(ch)
	if err != nil {
		logger.Error("无法声明队列", slog.String("error", err.Error()))
		return
	}

	// 监听 CTRL+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// 消费消息
	msgs, err := ch.Consume(
		q.Name, // 队列
		"",     // 消费者标识，设置为空字符串，表示由 RabbitMQ 自动分配
		false,  // 是否自动确认消息
		false,  // 是否独占队列
		false,  // 是否禁止消费者接受自己发送的消息，必须设置为 false，因为 RabbitMQ 不支持这个参数
		false,  // 是否不等待，等待 RabbitMQ 响应
		nil,    // 额外参数
	)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 用于关闭 goroutine 的上下文
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-msgs:
				if !ok {
					logger.Error("消息通道已关闭")
					return
				}

				m, err := buildMessage(cfg.Email.SMTP.Username, templates, delivery.Body)
				if err != nil {
					// 无法构建的邮件重新入队也没有意义
					logger.Error("无法构建邮件", slog.String("error", err.Error()))
					_ = delivery.Nack(false, false)
					continue
				}

				// 发送邮件
				if err := client.DialAndSend(m); err != nil {
					logger.Error("邮件发送失败", slog.String("error", err.Error()))
					_ = delivery.Nack(false, true) // 将消息重新入队
					continue
				}

				logger.Info("邮件已发送", slog.String("subject", m.GetGenHeader(mail.HeaderSubject)[0]))
				_ = delivery.Ack(false)
			}
		}
	}()

	// 等待 CTRL+C 信号
	logger.Info("等待消息...（按 CTRL+C 退出）")
	<-sigChan

	// 优雅退出
	slog.Info("正在关闭 mail worker...")
	cancel()
	wg.Wait() // 等待所有 goroutine 完成
	slog.Info("mail worker 已成功关闭")
}
