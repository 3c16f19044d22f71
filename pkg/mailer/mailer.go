// Package mailer delivers transactional mail (verification codes).
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/vidtube/config"
	"github.com/d60-Lab/vidtube/pkg/apperror"
	"github.com/d60-Lab/vidtube/pkg/breaker"
	"github.com/d60-Lab/vidtube/pkg/logger"
)

// Sender 发送纯文本邮件
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender 通过 SMTP（PLAIN 认证）发送
type SMTPSender struct {
	cfg config.MailConfig
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender { return &SMTPSender{cfg: cfg} }

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, buildMessage(s.cfg.From, to, subject, body))
}

func buildMessage(from, to, subject, body string) []byte {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)
	return []byte(msg.String())
}

// LogSender 未配置 SMTP 时使用，只写日志
type LogSender struct{}

func (LogSender) Send(_ context.Context, to, subject, body string) error {
	logger.Info("mail (not delivered, smtp host not configured)",
		zap.String("to", to), zap.String("subject", subject), zap.String("body", body))
	return nil
}

// Guarded 熔断保护，失败映射为 Dependency 错误
type Guarded struct {
	inner Sender
	b     *breaker.Breaker
}

func NewGuarded(inner Sender) *Guarded {
	return &Guarded{inner: inner, b: breaker.New("mailer", 3, time.Minute)}
}

func (g *Guarded) Send(ctx context.Context, to, subject, body string) error {
	if err := g.b.Do(func() error { return g.inner.Send(ctx, to, subject, body) }); err != nil {
		return apperror.Dependency(err, "failed to send mail")
	}
	return nil
}

// New 根据配置选择 SMTP 或日志实现
func New(cfg config.MailConfig) Sender {
	if cfg.Host == "" {
		return LogSender{}
	}
	return NewGuarded(NewSMTPSender(cfg))
}
