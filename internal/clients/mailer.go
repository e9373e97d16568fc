package clients

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"gst-billing-service/internal/config"
)

// ErrMailDisabled is returned when SMTP is not configured
var ErrMailDisabled = errors.New("email delivery is not configured")

// Attachment is an in-memory file sent with a message
type Attachment struct {
	Filename string
	Data     []byte
}

// Mailer sends invoice emails
type Mailer interface {
	Enabled() bool
	SendInvoice(to, subject, htmlBody string, attachment Attachment) error
}

// SMTPMailer delivers over SMTP using gomail
type SMTPMailer struct {
	cfg    config.MailConfig
	dialer *gomail.Dialer
	logger *logrus.Entry
}

// NewMailer returns an SMTPMailer. With no host configured the mailer reports
// Enabled() == false and every send returns ErrMailDisabled.
func NewMailer(cfg config.MailConfig, logger *logrus.Logger) *SMTPMailer {
	m := &SMTPMailer{
		cfg:    cfg,
		logger: logger.WithField("component", "mailer"),
	}
	if cfg.Host == "" || cfg.From == "" {
		return m
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.TLSConfig = &tls.Config{
		ServerName: cfg.Host,
		MinVersion: tls.VersionTLS12,
	}
	m.dialer = dialer
	return m
}

func (m *SMTPMailer) Enabled() bool {
	return m.dialer != nil
}

func (m *SMTPMailer) SendInvoice(to, subject, htmlBody string, attachment Attachment) error {
	if !m.Enabled() {
		return ErrMailDisabled
	}

	msg := gomail.NewMessage(
		gomail.SetCharset("UTF-8"),
		gomail.SetEncoding(gomail.Base64),
	)
	msg.SetAddressHeader("From", m.cfg.From, m.cfg.FromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if len(attachment.Data) > 0 {
		data := attachment.Data
		msg.Attach(attachment.Filename,
			gomail.SetHeader(map[string][]string{"Content-Type": {"application/pdf"}}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		)
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.WithError(err).WithField("to", to).Error("Failed to send invoice email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.WithField("to", to).Info("Invoice email sent")
	return nil
}
