package digest

import (
	"fmt"
	"net/smtp"
	"os"
	"time"

	"finstream/src/helpers"
	"finstream/src/logger"
	"finstream/src/models"
)

// -----------------------------------------------------------------------------

// Sender delivers one rendered email.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// -----------------------------------------------------------------------------
// SMTPSender delivers through a plain SMTP relay. Credentials come from the
// environment variables named in the config, never from the config file.
// -----------------------------------------------------------------------------

type SMTPSender struct {
	Config *models.MDigestConfig
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSMTPSender(cfg *models.MDigestConfig, log *logger.Logger) *SMTPSender {
	return &SMTPSender{
		Config: cfg,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", s.Config.SMTPHost, s.Config.SMTPPort)

	message := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.Config.From, to, subject, htmlBody)

	var auth smtp.Auth
	user := os.Getenv(s.Config.UserEnv)
	pass := os.Getenv(s.Config.PassEnv)
	if user != "" && pass != "" {
		auth = smtp.PlainAuth("", user, pass, s.Config.SMTPHost)
	}

	// Relays hiccup; retrying a couple of times covers most transient
	// failures without holding up the rest of the batch for long.
	err := helpers.RetryWithBackoff(s.Logger, "smtp delivery", 3, 2*time.Second, func() error {
		return smtp.SendMail(addr, auth, s.Config.From, []string{to}, []byte(message))
	})
	if err != nil {
		return fmt.Errorf("smtp delivery to %s failed: %w", to, err)
	}

	s.Logger.Debug("Digest delivered to %s", to)
	return nil
}
