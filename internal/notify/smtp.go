package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/inkwave/teamsync-backend/internal/platform/logger"
	"github.com/inkwave/teamsync-backend/internal/types"
)

// sendMailFunc matches smtp.SendMail; swapped out in tests.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPChannel emails notifications through a team-configured relay.
type SMTPChannel struct {
	log      *logger.Logger
	sendMail sendMailFunc
}

func NewSMTPChannel(log *logger.Logger) *SMTPChannel {
	return &SMTPChannel{
		log:      log.With("service", "SMTPChannel"),
		sendMail: smtp.SendMail,
	}
}

// FormatNotification renders the subject line and plain-text body.
func (s *SMTPChannel) FormatNotification(n types.Notification) (subject, body string) {
	subject = "[TeamSync] " + n.Title
	body = fmt.Sprintf("%s\n\n— %s, %s\n", n.Body, n.Actor, n.Timestamp.UTC().Format("2006-01-02 15:04 UTC"))
	return subject, body
}

// Send emails one recipient. The result is a boolean outcome; failures are
// logged and skipped.
func (s *SMTPChannel) Send(cfg types.SMTPConfig, to string, n types.Notification) bool {
	if !cfg.Enabled || cfg.Host == "" || cfg.FromAddress == "" || to == "" {
		return false
	}

	subject, body := s.FormatNotification(n)
	msg := strings.Join([]string{
		"From: " + cfg.FromAddress,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	if err := s.sendMail(addr, auth, cfg.FromAddress, []string{to}, []byte(msg)); err != nil {
		s.log.Warn("Email delivery failed", "to", to, "error", err.Error())
		return false
	}
	return true
}
