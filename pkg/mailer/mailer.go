// Package mailer hands outbound email to a delivery backend. Rendering and
// SMTP delivery happen in a separate mail worker that consumes the queue.
package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Message is one outbound email.
type Message struct {
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	HTML     string    `json:"html"`
	Text     string    `json:"text"`
	QueuedAt time.Time `json:"queued_at"`
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// AMQPSender publishes messages as persistent JSON to a durable queue.
type AMQPSender struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	queue   string
}

func NewAMQPSender(url, queue string) (*AMQPSender, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	return &AMQPSender{conn: conn, channel: ch, queue: queue}, nil
}

func (s *AMQPSender) Send(ctx context.Context, msg Message) error {
	if msg.QueuedAt.IsZero() {
		msg.QueuedAt = time.Now()
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return s.channel.PublishWithContext(ctx,
		"",
		s.queue,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
		},
	)
}

func (s *AMQPSender) Close() {
	if s.channel != nil {
		_ = s.channel.Close()
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

// LogSender writes emails to the log instead of delivering them.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email (not delivered)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	return nil
}

// VerificationEmail builds the email-verification message.
func VerificationEmail(to, frontendURL, token string) Message {
	link := fmt.Sprintf("%s/verify-email?token=%s", frontendURL, token)
	return Message{
		To:      to,
		Subject: "Verify Your Email - ZuzuPlan",
		HTML: fmt.Sprintf(`<h1>Verify Your Email</h1>
<p>Please click the link below to verify your email address:</p>
<a href="%[1]s">%[1]s</a>
<p>This link will expire in 24 hours.</p>`, html.EscapeString(link)),
		Text: fmt.Sprintf("Verify Your Email\n\nPlease click the link below to verify your email address:\n%s\n\nThis link will expire in 24 hours.", link),
	}
}

// PasswordResetEmail builds the password-reset message.
func PasswordResetEmail(to, frontendURL, token string) Message {
	link := fmt.Sprintf("%s/reset-password?token=%s", frontendURL, token)
	return Message{
		To:      to,
		Subject: "Reset Your Password - ZuzuPlan",
		HTML: fmt.Sprintf(`<h1>Reset Your Password</h1>
<p>You requested to reset your password. Click the link below:</p>
<a href="%[1]s">%[1]s</a>
<p>This link will expire in 1 hour.</p>
<p>If you didn't request this, please ignore this email.</p>`, html.EscapeString(link)),
		Text: fmt.Sprintf("Reset Your Password\n\nYou requested to reset your password. Click the link below:\n%s\n\nThis link will expire in 1 hour.\nIf you didn't request this, please ignore this email.", link),
	}
}

// NotificationEmail wraps a notification message.
func NotificationEmail(to, kind, message string) Message {
	subject := "ZuzuPlan: " + kind
	return Message{
		To:      to,
		Subject: subject,
		HTML: fmt.Sprintf("<h2>%s</h2>\n<p>%s</p>\n<p>Visit ZuzuPlan to view details.</p>",
			html.EscapeString(subject), html.EscapeString(message)),
		Text: fmt.Sprintf("%s\n\n%s\n\nVisit ZuzuPlan to view details.", subject, message),
	}
}
