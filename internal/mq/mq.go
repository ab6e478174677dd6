package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/biharilibrary/library-manager/backend/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

const QueueName = "email_queue"

// DeclareQueue 声明持久化的邮件队列，生产者和消费者都需要调用
func DeclareQueue(ch *amqp.Channel) (amqp.Queue, error) {
	return ch.QueueDeclare(
		QueueName, // 队列名称
		true,      // 是否持久化
		false,     // 是否自动删除，设置为 false 可以避免没有消费者的时候自动删除队列
		false,     // 是否独占
		false,     // 是否不等待
		nil,       // 额外参数
	)
}

// EncodeMail 将邮件序列化为可以投递到队列中的消息
func EncodeMail(msg domain.MailMessage) (amqp.Publishing, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("序列化邮件失败: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}, nil
}

func PublishMail(ctx context.Context, ch *amqp.Channel, msg domain.MailMessage) error {
	publishing, err := EncodeMail(msg)
	if err != nil {
		return err
	}

	if err := ch.PublishWithContext(ctx, "", QueueName, true, false, publishing); err != nil {
		return fmt.Errorf("投递邮件到队列失败: %w", err)
	}

	return nil
}

// DecodeMail 解析队列中的消息，Data 保留为原始 JSON，由消费者按类型渲染
func DecodeMail(body []byte) (string, string, map[string]any, error) {
	var msg struct {
		Type string         `json:"type"`
		To   string         `json:"to"`
		Data map[string]any `json:"data"`
	}

	if err := json.Unmarshal(body, &msg); err != nil {
		return "", "", nil, fmt.Errorf("反序列化邮件失败: %w", err)
	}
	if msg.Type == "" || msg.To == "" {
		return "", "", nil, fmt.Errorf("邮件缺少类型或收件人")
	}

	return msg.Type, msg.To, msg.Data, nil
}
