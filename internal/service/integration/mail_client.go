package integration

import (
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/gcek-placements/placement-portal/internal/config"
	"github.com/rs/zerolog"
	"github.com/scorredoira/email"
)

type MailSender interface {
	Send(to, subject, htmlBody string) error
}

type smtpMailSender struct {
	cfg    config.SMTPConfig
	logger zerolog.Logger
}

func NewSMTPMailSender(cfg config.SMTPConfig, logger zerolog.Logger) MailSender {
	return &smtpMailSender{
		cfg:    cfg,
		logger: logger,
	}
}

// Send delivers an HTML mail. With no host configured the call is a no-op,
// which keeps local development working without an SMTP server.
func (s *smtpMailSender) Send(to, subject, htmlBody string) error {
	if len(strings.TrimSpace(s.cfg.Host)) == 0 {
		s.logger.Info().Str("to", to).Msg("SMTP host is not configured, skipping mail")
		return nil
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	m := email.NewHTMLMessage(subject, htmlBody)
	m.From = mail.Address{Name: s.cfg.FromName, Address: s.cfg.FromAddress}
	m.To = []string{to}

	s.logger.Info().Str("to", to).Str("subject", subject).Msg("Sending mail")

	if err := email.Send(s.cfg.ConnectionString(), auth, m); err != nil {
		s.logger.Error().Err(err).Str("to", to).Msg("Failed to send mail")
		return err
	}

	return nil
}
