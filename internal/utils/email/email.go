package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/ddanilov/bank-cards/internal/config"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
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

// CardIssued notifies a user that a new card has been issued for them.
// Delivery is best effort, failures are logged here and not propagated.
func (s *Sender) CardIssued(to, username, maskedNumber string, expiry time.Time) {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "New Card Issued"

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"A new card %s has been issued for your account.\n"+
			"The card is valid until %s.\n"+
			"\nBest regards,\nBank Cards Service",
		username, maskedNumber, expiry.Format("2006-01-02"),
	)
	e.Text = []byte(body)

	s.send(e)
}

// CardBlocked notifies a user that their card has been blocked.
// Delivery is best effort, failures are logged here and not propagated.
func (s *Sender) CardBlocked(to, username, maskedNumber string) {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Card Blocked"

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your card %s has been blocked on %s.\n"+
			"Please contact support if you did not request this.\n"+
			"\nBest regards,\nBank Cards Service",
		username, maskedNumber, time.Now().Format("2006-01-02 15:04:05"),
	)
	e.Text = []byte(body)

	s.send(e)
}

func (s *Sender) send(e *email.Email) {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %v: %v", e.To, err)
		return
	}

	s.logger.Infof("Email sent to %v: %s", e.To, e.Subject)
}
