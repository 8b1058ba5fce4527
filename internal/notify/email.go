package notify

import (
	"fmt"
	"net/smtp"
	"sort"
	"time"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/hgpartners/ledger-analytics/internal/config"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendDataQualityDigest mails the accumulated uncategorized-code counts to
// the ops recipient. A nil or empty count map sends nothing.
func (s *Sender) SendDataQualityDigest(counts map[string]int64) error {
	if len(counts) == 0 || s.cfg.DigestRecipient == "" {
		return nil
	}

	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{s.cfg.DigestRecipient}
	e.Subject = fmt.Sprintf("Ledger data-quality digest %s", time.Now().Format("2006-01-02"))

	codes := make([]string, 0, len(counts))
	var total int64
	for code, n := range counts {
		codes = append(codes, code)
		total += n
	}
	sort.Strings(codes)

	body := fmt.Sprintf(
		"%d ledger transactions were dropped from aggregation because their type code matched no category.\n\n", total,
	)
	for _, code := range codes {
		body += fmt.Sprintf("  %-8s %d\n", code, counts[code])
	}
	body += "\nThese rows neither inflate nor deflate any reported total. " +
		"Review the type-code mapping if any code above is expected to contribute.\n"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send digest to %s: %v", s.cfg.DigestRecipient, err)
		return fmt.Errorf("failed to send digest: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", s.cfg.DigestRecipient, e.Subject)
	return nil
}
